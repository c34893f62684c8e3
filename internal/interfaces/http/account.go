package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"finch/internal/domain/account"
)

// AccountReader is the slice of account.Repository the handlers need.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*account.Account, error)
	ListByItemID(ctx context.Context, itemID string) ([]*account.Account, error)
	ListByUserID(ctx context.Context, userID string) ([]*account.Account, error)
}

type AccountHandler struct {
	accounts AccountReader
}

func NewAccountHandler(accounts AccountReader) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleListAccounts returns accounts scoped by itemId or userId.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := r.URL.Query().Get("itemId")
	userID := r.URL.Query().Get("userId")

	var (
		accounts []*account.Account
		err      error
	)
	switch {
	case itemID != "":
		accounts, err = h.accounts.ListByItemID(r.Context(), itemID)
	case userID != "":
		accounts, err = h.accounts.ListByUserID(r.Context(), userID)
	default:
		http.Error(w, "itemId or userId is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Error listing accounts: %v", err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// HandleAccountByID returns a single account for /api/accounts/{id}.
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	a, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting account %s: %v", id, err)
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

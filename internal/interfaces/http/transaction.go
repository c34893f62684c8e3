package http

import (
	"context"
	"log"
	"net/http"

	"finch/internal/domain/transaction"
)

// TransactionReader is the slice of transaction.Repository the handlers need.
type TransactionReader interface {
	ListByAccountID(ctx context.Context, accountID string) ([]*transaction.Transaction, error)
	ListByItemID(ctx context.Context, itemID string) ([]*transaction.Transaction, error)
	ListByUserID(ctx context.Context, userID string) ([]*transaction.Transaction, error)
}

type TransactionHandler struct {
	transactions TransactionReader
}

func NewTransactionHandler(transactions TransactionReader) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// HandleListTransactions returns transactions scoped by accountId, itemId
// or userId, newest first.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := r.URL.Query().Get("accountId")
	itemID := r.URL.Query().Get("itemId")
	userID := r.URL.Query().Get("userId")

	var (
		txns []*transaction.Transaction
		err  error
	)
	switch {
	case accountID != "":
		txns, err = h.transactions.ListByAccountID(r.Context(), accountID)
	case itemID != "":
		txns, err = h.transactions.ListByItemID(r.Context(), itemID)
	case userID != "":
		txns, err = h.transactions.ListByUserID(r.Context(), userID)
	default:
		http.Error(w, "accountId, itemId or userId is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Error listing transactions: %v", err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finch/internal/domain/item"
	"finch/internal/domain/sync"
	"finch/internal/infrastructure/provider"
)

// ItemRegistry is the slice of item.Registry the handlers need.
type ItemRegistry interface {
	Register(ctx context.Context, params item.RegisterParams) (*item.Item, error)
	Get(ctx context.Context, id string) (*item.Item, error)
	ListByUser(ctx context.Context, userID string) ([]*item.Item, error)
	Delete(ctx context.Context, id string) error
}

// SyncRunner runs one sync epoch for an item.
type SyncRunner interface {
	SyncItem(ctx context.Context, itemID string) (*sync.Result, error)
}

type ItemHandler struct {
	registry ItemRegistry
	engine   SyncRunner
}

func NewItemHandler(registry ItemRegistry, engine SyncRunner) *ItemHandler {
	return &ItemHandler{registry: registry, engine: engine}
}

type RegisterItemRequest struct {
	UserID         string `json:"userId"`
	InstitutionID  string `json:"institutionId"`
	AccessToken    string `json:"accessToken"`
	ProviderItemID string `json:"providerItemId"`
}

// HandleItems routes collection-level item requests.
func (h *ItemHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRegisterItem(w, r)
	case http.MethodGet:
		h.handleListItems(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ItemHandler) handleRegisterItem(w http.ResponseWriter, r *http.Request) {
	var req RegisterItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding register item request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	it, err := h.registry.Register(r.Context(), item.RegisterParams{
		UserID:         req.UserID,
		InstitutionID:  req.InstitutionID,
		AccessToken:    req.AccessToken,
		ProviderItemID: req.ProviderItemID,
	})
	if err != nil {
		if errors.Is(err, item.ErrDuplicateItem) {
			http.Error(w, "Item already linked for this user", http.StatusConflict)
			return
		}
		log.Printf("Error registering item for user %s: %v", req.UserID, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, it)
}

func (h *ItemHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	items, err := h.registry.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing items for user %s: %v", userID, err)
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleItemByID routes /api/items/{id} requests.
func (h *ItemHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		it, err := h.registry.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, item.ErrItemNotFound) {
				http.Error(w, "Item not found", http.StatusNotFound)
				return
			}
			log.Printf("Error getting item %s: %v", id, err)
			http.Error(w, "Failed to get item", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, it)
	case http.MethodDelete:
		if err := h.registry.Delete(r.Context(), id); err != nil {
			if errors.Is(err, item.ErrItemNotFound) {
				http.Error(w, "Item not found", http.StatusNotFound)
				return
			}
			log.Printf("Error deleting item %s: %v", id, err)
			http.Error(w, "Failed to delete item", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSyncItem triggers a sync epoch for /api/items/{id}/sync.
func (h *ItemHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.SyncItem(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, item.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, sync.ErrItemNotSyncable):
			http.Error(w, "Item cannot be synced in its current status", http.StatusConflict)
		case errors.Is(err, sync.ErrUnresolvedAccount):
			log.Printf("Sync of item %s hit unresolved account: %v", id, err)
			http.Error(w, "Provider data references an unknown account", http.StatusBadGateway)
		default:
			var perr *provider.Error
			if errors.As(err, &perr) {
				log.Printf("Sync of item %s failed upstream: %v", id, err)
				http.Error(w, "Provider request failed", http.StatusBadGateway)
				return
			}
			log.Printf("Error syncing item %s: %v", id, err)
			http.Error(w, "Failed to sync item", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

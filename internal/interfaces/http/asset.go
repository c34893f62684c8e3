package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finch/internal/domain/asset"
)

// AssetService is the slice of asset.Service the handlers need.
type AssetService interface {
	Create(ctx context.Context, params asset.CreateParams) (*asset.Asset, error)
	ListByUser(ctx context.Context, userID string) ([]*asset.Asset, error)
	Delete(ctx context.Context, id string) error
}

type AssetHandler struct {
	assets AssetService
}

func NewAssetHandler(assets AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

type CreateAssetRequest struct {
	UserID      string  `json:"userId"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// HandleAssets routes collection-level requests.
func (h *AssetHandler) HandleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateAsset(w, r)
	case http.MethodGet:
		h.handleListAssets(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AssetHandler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create asset request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := asset.CreateParams{
		UserID:      req.UserID,
		Description: req.Description,
		Value:       req.Value,
	}
	if err := params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.assets.Create(r.Context(), params)
	if err != nil {
		log.Printf("Error creating asset: %v", err)
		http.Error(w, "Failed to create asset", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AssetHandler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	assets, err := h.assets.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing assets: %v", err)
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// HandleAssetByID routes /api/assets/{id} requests.
func (h *AssetHandler) HandleAssetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Asset ID is required", http.StatusBadRequest)
		return
	}

	if err := h.assets.Delete(r.Context(), id); err != nil {
		if errors.Is(err, asset.ErrAssetNotFound) {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting asset %s: %v", id, err)
		http.Error(w, "Failed to delete asset", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finch/internal/domain/user"
)

// UserService is the slice of user.Service the handlers need.
type UserService interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	Delete(ctx context.Context, id string) error
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

type CreateUserRequest struct {
	Username string `json:"username"`
}

// HandleUsers routes collection-level requests.
func (h *UserHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateUser(w, r)
	case http.MethodGet:
		h.handleListUsers(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create user request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	u, err := h.users.Create(r.Context(), user.CreateParams{Username: req.Username})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUser) {
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		}
		log.Printf("Error creating user: %v", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleUserByID routes /api/users/{id} requests.
func (h *UserHandler) HandleUserByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := h.users.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				http.Error(w, "User not found", http.StatusNotFound)
				return
			}
			log.Printf("Error getting user %s: %v", id, err)
			http.Error(w, "Failed to get user", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		if err := h.users.Delete(r.Context(), id); err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				http.Error(w, "User not found", http.StatusNotFound)
				return
			}
			log.Printf("Error deleting user %s: %v", id, err)
			http.Error(w, "Failed to delete user", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

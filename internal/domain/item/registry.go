package item

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Registry contains the business logic for item lifecycle operations.
type Registry struct {
	repo *Repository
}

func NewRegistry(repo *Repository) *Registry {
	return &Registry{repo: repo}
}

// Register creates a new item in status good with no cursor. At most one
// item may exist per (user, provider item) pair.
func (s *Registry) Register(ctx context.Context, params RegisterParams) (*Item, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUserAndProviderItem(ctx, params.UserID, params.ProviderItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateItem
	}

	now := time.Now()
	it := &Item{
		ID:             uuid.NewString(),
		UserID:         params.UserID,
		AccessToken:    params.AccessToken,
		ProviderItemID: params.ProviderItemID,
		InstitutionID:  params.InstitutionID,
		Status:         StatusGood,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}

	log.Printf("Registered item %s for user %s (institution %s)", it.ID, it.UserID, it.InstitutionID)
	return it, nil
}

func (s *Registry) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Registry) GetByProviderItemID(ctx context.Context, providerItemID string) (*Item, error) {
	return s.repo.GetByProviderItemID(ctx, providerItemID)
}

func (s *Registry) ListByUser(ctx context.Context, userID string) ([]*Item, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// SetStatus transitions the item status. Idempotent; never touches the
// cursor.
func (s *Registry) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if it.Status == status {
		return nil
	}

	it.Status = status
	it.UpdatedAt = time.Now()
	return s.repo.Update(ctx, it)
}

// AdvanceCursor unconditionally overwrites the stored cursor. Only called
// after a fully committed sync batch; sync is serialized per item, so
// last-writer-wins is safe.
func (s *Registry) AdvanceCursor(ctx context.Context, id, cursor string) error {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	it.TransactionsCursor = cursor
	it.UpdatedAt = time.Now()
	return s.repo.Update(ctx, it)
}

// Delete removes the item and its whole subtree of accounts and
// transactions, atomically.
func (s *Registry) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted item %s and its accounts/transactions", id)
	return nil
}

package user

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"finch/internal/domain/asset"
	"finch/internal/domain/item"
)

// Service contains the business logic for user lifecycle operations.
// Deleting a user tears down every linked item, each with its own atomic
// cascade over accounts and transactions, and drops the user's assets.
type Service struct {
	repo   *Repository
	items  *item.Registry
	assets *asset.Service
}

func NewService(repo *Repository, items *item.Registry, assets *asset.Service) *Service {
	return &Service{repo: repo, items: items, assets: assets}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByUsername(ctx, params.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	now := time.Now()
	u := &User{
		ID:        uuid.NewString(),
		Username:  params.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Printf("Created user %s (%s)", u.ID, u.Username)
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// Delete removes the user and every item they own. Each item cascade is
// its own atomic batch; a failure partway leaves the remaining items
// linked and the user record in place for a retry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	items, err := s.items.ListByUser(ctx, id)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.items.Delete(ctx, it.ID); err != nil {
			return err
		}
	}

	assets, err := s.assets.DeleteByUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted user %s, %d linked items, %d assets", id, len(items), assets)
	return nil
}

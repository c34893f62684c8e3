package asset

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Service contains the business logic for asset lifecycle operations.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Asset, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &Asset{
		ID:          uuid.NewString(),
		UserID:      params.UserID,
		Description: params.Description,
		Value:       params.Value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	log.Printf("Created asset %s for user %s", a.ID, a.UserID)
	return a, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Asset, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("Deleted asset %s", id)
	return nil
}

// DeleteByUser removes every asset of a user. Called from the user
// teardown alongside the item cascades.
func (s *Service) DeleteByUser(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteByUserID(ctx, userID)
}

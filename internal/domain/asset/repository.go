package asset

import (
	"context"
	"errors"
	"fmt"

	"finch/internal/storage"
)

// Repository persists assets in the assets collection.
type Repository struct {
	store storage.Store
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Create(ctx context.Context, a *Asset) error {
	if err := r.store.Put(ctx, storage.Assets, a.ID, toDoc(a)); err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	doc, err := r.store.Get(ctx, storage.Assets, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return fromDoc(doc)
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Asset, error) {
	docs, err := r.store.Query(ctx, storage.Assets,
		[]storage.Filter{{Field: "user_id", Value: userID}},
		[]storage.Order{{Field: "created_at", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	assets := make([]*Asset, 0, len(docs))
	for _, doc := range docs {
		a, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Get(ctx, storage.Assets, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to load asset for deletion: %w", err)
	}
	if err := r.store.Delete(ctx, storage.Assets, id); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// DeleteByUserID removes every asset of a user in one atomic batch and
// reports how many were removed.
func (r *Repository) DeleteByUserID(ctx context.Context, userID string) (int, error) {
	docs, err := r.store.Query(ctx, storage.Assets,
		[]storage.Filter{{Field: "user_id", Value: userID}}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list assets for delete: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ops := make([]storage.Op, 0, len(docs))
	for _, doc := range docs {
		ops = append(ops, storage.DeleteOp(storage.Assets, doc.ID))
	}
	if err := r.store.Apply(ctx, ops); err != nil {
		return 0, fmt.Errorf("failed to delete assets for user %s: %w", userID, err)
	}
	return len(docs), nil
}

package account

import (
	"context"
	"errors"
	"fmt"

	"finch/internal/storage"
)

// Repository persists accounts through the document store.
type Repository struct {
	store storage.Store
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	doc, err := r.store.Get(ctx, storage.Accounts, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return fromDoc(doc)
}

func (r *Repository) ListByItemID(ctx context.Context, itemID string) ([]*Account, error) {
	return r.list(ctx, storage.Filter{Field: "item_id", Value: itemID})
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Account, error) {
	return r.list(ctx, storage.Filter{Field: "user_id", Value: userID})
}

func (r *Repository) list(ctx context.Context, f storage.Filter) ([]*Account, error) {
	docs, err := r.store.Query(ctx, storage.Accounts,
		[]storage.Filter{f},
		[]storage.Order{{Field: "name"}})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]*Account, 0, len(docs))
	for _, doc := range docs {
		a, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// PutOp builds the batch op that upserts an account. Used by the
// reconciler so a whole account snapshot commits in one Apply.
func (r *Repository) PutOp(a *Account) storage.Op {
	return storage.PutOp(storage.Accounts, a.ID, toDoc(a))
}

// DeleteOps builds delete ops for every account of an item. Used by the
// item cascade.
func (r *Repository) DeleteOps(ctx context.Context, itemID string) ([]storage.Op, error) {
	docs, err := r.store.Query(ctx, storage.Accounts,
		[]storage.Filter{{Field: "item_id", Value: itemID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for delete: %w", err)
	}
	ops := make([]storage.Op, 0, len(docs))
	for _, doc := range docs {
		ops = append(ops, storage.DeleteOp(storage.Accounts, doc.ID))
	}
	return ops, nil
}

package transaction

import (
	"context"
	"errors"
	"fmt"

	"finch/internal/storage"
)

// Repository reads and batches transaction records. All listings come
// back newest first; equal dates are broken by ascending transaction id
// so pagination over repeated reads is stable.
type Repository struct {
	store storage.Store
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	doc, err := r.store.Get(ctx, storage.Transactions, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return fromDoc(doc)
}

func (r *Repository) ListByAccountID(ctx context.Context, accountID string) ([]*Transaction, error) {
	return r.list(ctx, storage.Filter{Field: "account_id", Value: accountID})
}

func (r *Repository) ListByItemID(ctx context.Context, itemID string) ([]*Transaction, error) {
	return r.list(ctx, storage.Filter{Field: "item_id", Value: itemID})
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Transaction, error) {
	return r.list(ctx, storage.Filter{Field: "user_id", Value: userID})
}

func (r *Repository) list(ctx context.Context, f storage.Filter) ([]*Transaction, error) {
	docs, err := r.store.Query(ctx, storage.Transactions,
		[]storage.Filter{f},
		[]storage.Order{{Field: "date", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txns := make([]*Transaction, 0, len(docs))
	for _, doc := range docs {
		t, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// PutOp builds the upsert op for one transaction. The sync engine
// collects these into the commit batch.
func (r *Repository) PutOp(t *Transaction) storage.Op {
	return storage.PutOp(storage.Transactions, t.ID, toDoc(t))
}

// DeleteOp builds the removal op for one transaction id.
func (r *Repository) DeleteOp(id string) storage.Op {
	return storage.DeleteOp(storage.Transactions, id)
}

// DeleteOps builds delete ops for every transaction of an item. Used by
// the item cascade.
func (r *Repository) DeleteOps(ctx context.Context, itemID string) ([]storage.Op, error) {
	docs, err := r.store.Query(ctx, storage.Transactions,
		[]storage.Filter{{Field: "item_id", Value: itemID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for delete: %w", err)
	}
	ops := make([]storage.Op, 0, len(docs))
	for _, doc := range docs {
		ops = append(ops, storage.DeleteOp(storage.Transactions, doc.ID))
	}
	return ops, nil
}

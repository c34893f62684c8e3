package item

import (
	"context"
	"errors"
	"fmt"

	"finch/internal/storage"
)

// Encryptor encrypts access tokens before they reach storage.
// Implemented by infrastructure/crypto.Encryptor.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// CascadeSource contributes delete ops for records owned by an item.
// Satisfied by the account and transaction repositories.
type CascadeSource interface {
	DeleteOps(ctx context.Context, itemID string) ([]storage.Op, error)
}

// Repository persists items in the items collection. Access tokens are
// encrypted on the way in and decrypted on the way out, so no caller ever
// sees the stored ciphertext.
type Repository struct {
	store    storage.Store
	enc      Encryptor
	cascades []CascadeSource
}

// NewRepository builds a repository over store. Delete folds the ops from
// each cascade source, in order, into its atomic batch.
func NewRepository(store storage.Store, enc Encryptor, cascades ...CascadeSource) *Repository {
	return &Repository{store: store, enc: enc, cascades: cascades}
}

func (r *Repository) Create(ctx context.Context, it *Item) error {
	op, err := r.PutOp(it)
	if err != nil {
		return err
	}
	if err := r.store.Apply(ctx, []storage.Op{op}); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// PutOp builds the batch op that persists it, encrypting the token.
// Used directly by the sync engine so the cursor/status update commits in
// the same atomic batch as the transaction deltas.
func (r *Repository) PutOp(it *Item) (storage.Op, error) {
	encrypted, err := r.enc.Encrypt(it.AccessToken)
	if err != nil {
		return storage.Op{}, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	return storage.PutOp(storage.Items, it.ID, toDoc(it, encrypted)), nil
}

// CheckOp builds a batch op asserting the item still exists at commit time.
func (r *Repository) CheckOp(id string) storage.Op {
	return storage.CheckOp(storage.Items, id)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Item, error) {
	doc, err := r.store.Get(ctx, storage.Items, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return r.decode(doc)
}

func (r *Repository) GetByProviderItemID(ctx context.Context, providerItemID string) (*Item, error) {
	docs, err := r.store.Query(ctx, storage.Items,
		[]storage.Filter{{Field: "provider_item_id", Value: providerItemID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrItemNotFound
	}
	return r.decode(docs[0])
}

// FindByUserAndProviderItem returns nil when no item exists, backing the
// registration uniqueness check.
func (r *Repository) FindByUserAndProviderItem(ctx context.Context, userID, providerItemID string) (*Item, error) {
	docs, err := r.store.Query(ctx, storage.Items, []storage.Filter{
		{Field: "user_id", Value: userID},
		{Field: "provider_item_id", Value: providerItemID},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return r.decode(docs[0])
}

func (r *Repository) ListByUserID(ctx context.Context, userID string) ([]*Item, error) {
	docs, err := r.store.Query(ctx, storage.Items,
		[]storage.Filter{{Field: "user_id", Value: userID}},
		[]storage.Order{{Field: "created_at", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*Item, 0, len(docs))
	for _, doc := range docs {
		it, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Update rewrites the full item record.
func (r *Repository) Update(ctx context.Context, it *Item) error {
	op, err := r.PutOp(it)
	if err != nil {
		return err
	}
	if err := r.store.Apply(ctx, []storage.Op{op}); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

// Delete removes the item and cascades over its accounts and their
// transactions in one atomic batch.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Get(ctx, storage.Items, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to load item for deletion: %w", err)
	}

	var ops []storage.Op
	for _, src := range r.cascades {
		srcOps, err := src.DeleteOps(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to build cascade for item %s: %w", id, err)
		}
		ops = append(ops, srcOps...)
	}
	ops = append(ops, storage.DeleteOp(storage.Items, id))

	if err := r.store.Apply(ctx, ops); err != nil {
		return fmt.Errorf("failed to cascade delete item: %w", err)
	}
	return nil
}

func (r *Repository) decode(doc storage.Doc) (*Item, error) {
	it, encryptedToken, err := fromDoc(doc)
	if err != nil {
		return nil, err
	}
	if it.AccessToken, err = r.enc.Decrypt(encryptedToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for item %s: %w", doc.ID, err)
	}
	return it, nil
}

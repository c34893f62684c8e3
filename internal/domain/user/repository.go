package user

import (
	"context"
	"errors"
	"fmt"

	"finch/internal/storage"
)

// Repository persists users in the users collection.
type Repository struct {
	store storage.Store
}

func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	if err := r.store.Put(ctx, storage.Users, u.ID, toDoc(u)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	doc, err := r.store.Get(ctx, storage.Users, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return fromDoc(doc)
}

// FindByUsername returns nil when no user has the name, backing the
// uniqueness check on create.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	docs, err := r.store.Query(ctx, storage.Users,
		[]storage.Filter{{Field: "username", Value: username}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return fromDoc(docs[0])
}

func (r *Repository) List(ctx context.Context) ([]*User, error) {
	docs, err := r.store.Query(ctx, storage.Users, nil,
		[]storage.Order{{Field: "created_at", Desc: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*User, 0, len(docs))
	for _, doc := range docs {
		u, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, storage.Users, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

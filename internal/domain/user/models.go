// Package user manages the accounts that own linked items.
package user

import (
	"errors"
	"fmt"
	"time"

	"finch/internal/storage"
)

// Domain errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("username already taken")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateParams contains the inputs for creating a user.
type CreateParams struct {
	Username string
}

func (p CreateParams) Validate() error {
	if p.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

func toDoc(u *User) map[string]any {
	return map[string]any{
		"username":   u.Username,
		"created_at": storage.FormatTime(u.CreatedAt),
		"updated_at": storage.FormatTime(u.UpdatedAt),
	}
}

func fromDoc(doc storage.Doc) (*User, error) {
	var u User
	var err error

	u.ID = doc.ID
	if u.Username, err = storage.StringField(doc.Data, "username"); err != nil {
		return nil, fmt.Errorf("malformed user record %s: %w", doc.ID, err)
	}
	if u.CreatedAt, err = storage.TimeField(doc.Data, "created_at"); err != nil {
		return nil, fmt.Errorf("malformed user record %s: %w", doc.ID, err)
	}
	if u.UpdatedAt, err = storage.TimeField(doc.Data, "updated_at"); err != nil {
		return nil, fmt.Errorf("malformed user record %s: %w", doc.ID, err)
	}
	return &u, nil
}

// Package item owns the lifecycle of a linked financial institution
// connection: registration, status transitions, the transactions sync
// cursor, and cascade deletion of the item's subtree.
package item

import (
	"errors"
	"fmt"
	"time"

	"finch/internal/storage"
)

// Status is the health of a connection. Sync is refused for revoked and
// errored items until the link is repaired.
type Status string

const (
	StatusGood              Status = "good"
	StatusRequiresAttention Status = "requires_attention"
	StatusError             Status = "error"
	StatusRevoked           Status = "revoked"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusGood, StatusRequiresAttention, StatusError, StatusRevoked:
		return true
	}
	return false
}

// Syncable reports whether an item in this status may be synced.
func (s Status) Syncable() bool {
	return s == StatusGood || s == StatusRequiresAttention
}

// Domain errors
var (
	ErrItemNotFound  = errors.New("item not found")
	ErrDuplicateItem = errors.New("item already registered for this user and provider item")
	ErrInvalidStatus = errors.New("invalid item status")
)

// Item represents one linked financial institution connection.
// AccessToken is held in plaintext on the struct; the repository encrypts
// it before it reaches storage.
type Item struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	AccessToken        string    `json:"-"`
	ProviderItemID     string    `json:"providerItemId"`
	InstitutionID      string    `json:"institutionId"`
	Status             Status    `json:"status"`
	TransactionsCursor string    `json:"-"` // "" = never synced
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// RegisterParams contains the inputs for registering a new item.
type RegisterParams struct {
	UserID         string
	InstitutionID  string
	AccessToken    string
	ProviderItemID string
}

// Validate validates the register parameters.
func (p RegisterParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.AccessToken == "" {
		return errors.New("access token is required")
	}
	if p.ProviderItemID == "" {
		return errors.New("provider item ID is required")
	}
	if p.InstitutionID == "" {
		return errors.New("institution ID is required")
	}
	return nil
}

// toDoc renders an item as a storage record. encryptedToken replaces the
// in-memory plaintext token.
func toDoc(it *Item, encryptedToken string) map[string]any {
	return map[string]any{
		"user_id":             it.UserID,
		"access_token":        encryptedToken,
		"provider_item_id":    it.ProviderItemID,
		"institution_id":      it.InstitutionID,
		"status":              string(it.Status),
		"transactions_cursor": it.TransactionsCursor,
		"created_at":          storage.FormatTime(it.CreatedAt),
		"updated_at":          storage.FormatTime(it.UpdatedAt),
	}
}

func fromDoc(doc storage.Doc) (*Item, string, error) {
	var it Item
	var err error

	it.ID = doc.ID
	if it.UserID, err = storage.StringField(doc.Data, "user_id"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	encryptedToken, err := storage.StringField(doc.Data, "access_token")
	if err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	if it.ProviderItemID, err = storage.StringField(doc.Data, "provider_item_id"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	if it.InstitutionID, err = storage.StringField(doc.Data, "institution_id"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}

	rawStatus, err := storage.StringField(doc.Data, "status")
	if err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	it.Status = Status(rawStatus)
	if !it.Status.Valid() {
		return nil, "", malformed(doc.ID, fmt.Errorf("unknown status %q", rawStatus))
	}

	if it.TransactionsCursor, err = storage.StringField(doc.Data, "transactions_cursor"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	if it.CreatedAt, err = storage.TimeField(doc.Data, "created_at"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}
	if it.UpdatedAt, err = storage.TimeField(doc.Data, "updated_at"); err != nil {
		return nil, "", malformed(doc.ID, err)
	}

	return &it, encryptedToken, nil
}

func malformed(id string, err error) error {
	return fmt.Errorf("malformed item record %s: %w", id, err)
}

// Package asset manages user-declared holdings that live outside any
// linked institution, such as property or vehicles.
package asset

import (
	"errors"
	"fmt"
	"time"

	"finch/internal/storage"
)

var ErrAssetNotFound = errors.New("asset not found")

type Asset struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Value       float64   `json:"value"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateParams contains the inputs for declaring an asset.
type CreateParams struct {
	UserID      string
	Description string
	Value       float64
}

func (p CreateParams) Validate() error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if p.Value < 0 {
		return errors.New("value must not be negative")
	}
	return nil
}

func toDoc(a *Asset) map[string]any {
	return map[string]any{
		"user_id":     a.UserID,
		"description": a.Description,
		"value":       a.Value,
		"created_at":  storage.FormatTime(a.CreatedAt),
		"updated_at":  storage.FormatTime(a.UpdatedAt),
	}
}

func fromDoc(doc storage.Doc) (*Asset, error) {
	var a Asset
	var err error

	a.ID = doc.ID
	if a.UserID, err = storage.StringField(doc.Data, "user_id"); err != nil {
		return nil, fmt.Errorf("malformed asset record %s: %w", doc.ID, err)
	}
	if a.Description, err = storage.StringField(doc.Data, "description"); err != nil {
		return nil, fmt.Errorf("malformed asset record %s: %w", doc.ID, err)
	}
	if a.Value, err = storage.FloatField(doc.Data, "value"); err != nil {
		return nil, fmt.Errorf("malformed asset record %s: %w", doc.ID, err)
	}
	if a.CreatedAt, err = storage.TimeField(doc.Data, "created_at"); err != nil {
		return nil, fmt.Errorf("malformed asset record %s: %w", doc.ID, err)
	}
	if a.UpdatedAt, err = storage.TimeField(doc.Data, "updated_at"); err != nil {
		return nil, fmt.Errorf("malformed asset record %s: %w", doc.ID, err)
	}
	return &a, nil
}

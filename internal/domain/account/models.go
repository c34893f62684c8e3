// Package account maps provider account records to local accounts scoped
// to an item.
package account

import (
	"errors"
	"fmt"
	"time"

	"finch/internal/storage"
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrMissingItem means the owning item vanished before the account
	// batch committed (e.g. a concurrent item deletion).
	ErrMissingItem = errors.New("item does not exist for account batch")
)

// Account is a financial account belonging to exactly one item. UserID is
// denormalized from the item so user-scoped reads need no join.
type Account struct {
	ID                     string    `json:"id"`
	ItemID                 string    `json:"itemId"`
	UserID                 string    `json:"userId"`
	ProviderAccountID      string    `json:"providerAccountId"`
	Name                   string    `json:"name"`
	Mask                   string    `json:"mask"`
	OfficialName           string    `json:"officialName"`
	CurrentBalance         float64   `json:"currentBalance"`
	AvailableBalance       float64   `json:"availableBalance"`
	ISOCurrencyCode        string    `json:"isoCurrencyCode"`
	UnofficialCurrencyCode string    `json:"unofficialCurrencyCode,omitempty"`
	Type                   string    `json:"type"`
	Subtype                string    `json:"subtype"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func toDoc(a *Account) map[string]any {
	return map[string]any{
		"item_id":                  a.ItemID,
		"user_id":                  a.UserID,
		"provider_account_id":      a.ProviderAccountID,
		"name":                     a.Name,
		"mask":                     a.Mask,
		"official_name":            a.OfficialName,
		"current_balance":          a.CurrentBalance,
		"available_balance":        a.AvailableBalance,
		"iso_currency_code":        a.ISOCurrencyCode,
		"unofficial_currency_code": a.UnofficialCurrencyCode,
		"type":                     a.Type,
		"subtype":                  a.Subtype,
		"created_at":               storage.FormatTime(a.CreatedAt),
		"updated_at":               storage.FormatTime(a.UpdatedAt),
	}
}

func fromDoc(doc storage.Doc) (*Account, error) {
	var a Account
	var err error

	a.ID = doc.ID
	fields := []struct {
		dst  *string
		name string
	}{
		{&a.ItemID, "item_id"},
		{&a.UserID, "user_id"},
		{&a.ProviderAccountID, "provider_account_id"},
		{&a.Name, "name"},
		{&a.Mask, "mask"},
		{&a.OfficialName, "official_name"},
		{&a.ISOCurrencyCode, "iso_currency_code"},
		{&a.UnofficialCurrencyCode, "unofficial_currency_code"},
		{&a.Type, "type"},
		{&a.Subtype, "subtype"},
	}
	for _, f := range fields {
		if *f.dst, err = storage.StringField(doc.Data, f.name); err != nil {
			return nil, malformed(doc.ID, err)
		}
	}

	if a.ItemID == "" || a.ProviderAccountID == "" {
		return nil, malformed(doc.ID, errors.New("missing item_id or provider_account_id"))
	}

	if a.CurrentBalance, err = storage.FloatField(doc.Data, "current_balance"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if a.AvailableBalance, err = storage.FloatField(doc.Data, "available_balance"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if a.CreatedAt, err = storage.TimeField(doc.Data, "created_at"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if a.UpdatedAt, err = storage.TimeField(doc.Data, "updated_at"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	return &a, nil
}

func malformed(id string, err error) error {
	return fmt.Errorf("malformed account record %s: %w", id, err)
}

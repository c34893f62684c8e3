// Package transaction stores the synced transaction history. Records are
// keyed by the provider transaction id so replaying a sync page lands on
// the same rows instead of duplicating them.
package transaction

import (
	"errors"
	"fmt"
	"time"

	"finch/internal/storage"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// Transaction is one synced transaction. ID is the provider transaction
// id. Date keeps the provider's "2006-01-02" form so string ordering is
// chronological ordering.
type Transaction struct {
	ID                     string    `json:"id"`
	AccountID              string    `json:"accountId"`
	ItemID                 string    `json:"itemId"`
	UserID                 string    `json:"userId"`
	CategoryID             string    `json:"categoryId"`
	Category               string    `json:"category"`
	Subcategory            string    `json:"subcategory,omitempty"`
	Type                   string    `json:"type"`
	Name                   string    `json:"name"`
	Amount                 float64   `json:"amount"`
	ISOCurrencyCode        string    `json:"isoCurrencyCode"`
	UnofficialCurrencyCode string    `json:"unofficialCurrencyCode,omitempty"`
	Date                   string    `json:"date"`
	Pending                bool      `json:"pending"`
	AccountOwner           string    `json:"accountOwner,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func toDoc(t *Transaction) map[string]any {
	return map[string]any{
		"account_id":               t.AccountID,
		"item_id":                  t.ItemID,
		"user_id":                  t.UserID,
		"category_id":              t.CategoryID,
		"category":                 t.Category,
		"subcategory":              t.Subcategory,
		"type":                     t.Type,
		"name":                     t.Name,
		"amount":                   t.Amount,
		"iso_currency_code":        t.ISOCurrencyCode,
		"unofficial_currency_code": t.UnofficialCurrencyCode,
		"date":                     t.Date,
		"pending":                  t.Pending,
		"account_owner":            t.AccountOwner,
		"created_at":               storage.FormatTime(t.CreatedAt),
		"updated_at":               storage.FormatTime(t.UpdatedAt),
	}
}

func fromDoc(doc storage.Doc) (*Transaction, error) {
	var t Transaction
	var err error

	t.ID = doc.ID
	fields := []struct {
		dst  *string
		name string
	}{
		{&t.AccountID, "account_id"},
		{&t.ItemID, "item_id"},
		{&t.UserID, "user_id"},
		{&t.CategoryID, "category_id"},
		{&t.Category, "category"},
		{&t.Subcategory, "subcategory"},
		{&t.Type, "type"},
		{&t.Name, "name"},
		{&t.ISOCurrencyCode, "iso_currency_code"},
		{&t.UnofficialCurrencyCode, "unofficial_currency_code"},
		{&t.Date, "date"},
		{&t.AccountOwner, "account_owner"},
	}
	for _, f := range fields {
		if *f.dst, err = storage.StringField(doc.Data, f.name); err != nil {
			return nil, malformed(doc.ID, err)
		}
	}

	if t.Amount, err = storage.FloatField(doc.Data, "amount"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if t.Pending, err = storage.BoolField(doc.Data, "pending"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if t.CreatedAt, err = storage.TimeField(doc.Data, "created_at"); err != nil {
		return nil, malformed(doc.ID, err)
	}
	if t.UpdatedAt, err = storage.TimeField(doc.Data, "updated_at"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	return &t, nil
}

func malformed(id string, err error) error {
	return fmt.Errorf("malformed transaction record %s: %w", id, err)
}

package provider

import (
	"fmt"
	"time"
)

// SyncPage is one page of the provider's transaction change stream.
// Added and Modified carry full records; Removed carries identifiers only.
type SyncPage struct {
	Added      []Transaction `json:"added"`
	Modified   []Transaction `json:"modified"`
	Removed    []RemovedID   `json:"removed"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// RemovedID wraps a removed transaction identifier.
type RemovedID struct {
	TransactionID string `json:"transaction_id"`
}

// Transaction is a provider transaction record.
type Transaction struct {
	TransactionID          string   `json:"transaction_id"`
	AccountID              string   `json:"account_id"`
	CategoryID             string   `json:"category_id"`
	Category               []string `json:"category"`
	TransactionType        string   `json:"transaction_type"`
	Name                   string   `json:"name"`
	Amount                 float64  `json:"amount"`
	ISOCurrencyCode        string   `json:"iso_currency_code"`
	UnofficialCurrencyCode string   `json:"unofficial_currency_code"`
	DateString             string   `json:"date"` // "2006-01-02"
	Pending                bool     `json:"pending"`
	AccountOwner           string   `json:"account_owner"`
}

// GetDate parses the transaction date (day precision).
func (t *Transaction) GetDate() (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
	}
	return parsed, nil
}

// Account is a provider account record.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	Mask         string   `json:"mask"`
	OfficialName string   `json:"official_name"`
	Balances     Balances `json:"balances"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
}

// Balances carries an account's balance snapshot.
type Balances struct {
	Available              *float64 `json:"available"`
	Current                *float64 `json:"current"`
	ISOCurrencyCode        string   `json:"iso_currency_code"`
	UnofficialCurrencyCode string   `json:"unofficial_currency_code"`
}

// Error is a provider-reported failure. RequestID identifies the upstream
// request for support escalation.
type Error struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
	StatusCode   int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %s/%s (request %s): %s",
		e.ErrorType, e.ErrorCode, e.RequestID, e.ErrorMessage)
}

// Terminal reports whether the error means the connection itself is broken
// (revoked or expired credentials) rather than a transient failure. Terminal
// errors flip the item status to `error`; everything else is retryable.
func (e *Error) Terminal() bool {
	switch e.ErrorType {
	case "ITEM_ERROR", "INVALID_INPUT":
		return true
	}
	switch e.ErrorCode {
	case "ITEM_LOGIN_REQUIRED", "ACCESS_NOT_GRANTED", "ITEM_LOCKED":
		return true
	}
	return false
}

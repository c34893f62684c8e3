// Package event records an append-only audit trail of link flows and
// provider calls. Events are diagnostics: writing them must never fail a
// user-facing operation.
package event

import (
	"time"

	"finch/internal/storage"
)

const (
	TypeLink         = "link"
	TypeProviderCall = "provider_call"
)

// LinkEvent is a client-reported step of the account linking flow.
type LinkEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId,omitempty"`
	EventName string    `json:"eventName"`
	SessionID string    `json:"sessionId,omitempty"`
	Status    string    `json:"status,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	ErrorType string    `json:"errorType,omitempty"`
	ErrorCode string    `json:"errorCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProviderCallEvent records one upstream provider request and its
// outcome. Counts on sync events reflect the net change set the epoch
// committed, not raw page sizes.
type ProviderCallEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ItemID    string    `json:"itemId"`
	Method    string    `json:"method"`
	Args      string    `json:"args,omitempty"`
	Added     int       `json:"added"`
	Modified  int       `json:"modified"`
	Removed   int       `json:"removed"`
	RequestID string    `json:"requestId,omitempty"`
	ErrorType string    `json:"errorType,omitempty"`
	ErrorCode string    `json:"errorCode,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func linkToDoc(e *LinkEvent) map[string]any {
	return map[string]any{
		"type":            TypeLink,
		"user_id":         e.UserID,
		"item_id":         e.ItemID,
		"event_name":      e.EventName,
		"link_session_id": e.SessionID,
		"status":          e.Status,
		"request_id":      e.RequestID,
		"error_type":      e.ErrorType,
		"error_code":      e.ErrorCode,
		"created_at":      storage.FormatTime(e.CreatedAt),
	}
}

func callToDoc(e *ProviderCallEvent) map[string]any {
	return map[string]any{
		"type":       TypeProviderCall,
		"user_id":    e.UserID,
		"item_id":    e.ItemID,
		"method":     e.Method,
		"arguments":  e.Args,
		"added":      float64(e.Added),
		"modified":   float64(e.Modified),
		"removed":    float64(e.Removed),
		"request_id": e.RequestID,
		"error_type": e.ErrorType,
		"error_code": e.ErrorCode,
		"created_at": storage.FormatTime(e.CreatedAt),
	}
}

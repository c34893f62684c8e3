package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"finch/internal/domain/event"
)

// LinkEventRecorder records client-reported link flow events.
type LinkEventRecorder interface {
	LogLinkEvent(ctx context.Context, e *event.LinkEvent)
}

type EventHandler struct {
	events LinkEventRecorder
}

func NewEventHandler(events LinkEventRecorder) *EventHandler {
	return &EventHandler{events: events}
}

type LinkEventRequest struct {
	UserID    string `json:"userId"`
	ItemID    string `json:"itemId,omitempty"`
	EventName string `json:"eventName"`
	SessionID string `json:"sessionId,omitempty"`
	Status    string `json:"status,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// HandleLinkEvent records one step of the client's link flow.
func (h *EventHandler) HandleLinkEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LinkEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding link event request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.EventName == "" {
		http.Error(w, "userId and eventName are required", http.StatusBadRequest)
		return
	}

	h.events.LogLinkEvent(r.Context(), &event.LinkEvent{
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		EventName: req.EventName,
		SessionID: req.SessionID,
		Status:    req.Status,
		RequestID: req.RequestID,
		ErrorType: req.ErrorType,
		ErrorCode: req.ErrorCode,
	})

	w.WriteHeader(http.StatusAccepted)
}

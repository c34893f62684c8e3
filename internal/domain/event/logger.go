package event

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"finch/internal/storage"
)

// Logger appends events to the events collection. Write failures are
// logged and swallowed so a broken audit trail cannot break a sync.
type Logger struct {
	store storage.Store
}

func NewLogger(store storage.Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) LogLinkEvent(ctx context.Context, e *LinkEvent) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	if err := l.store.Put(ctx, storage.Events, e.ID, linkToDoc(e)); err != nil {
		log.Printf("Failed to record link event %s for user %s: %v", e.EventName, e.UserID, err)
	}
}

func (l *Logger) LogProviderCall(ctx context.Context, e *ProviderCallEvent) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	if err := l.store.Put(ctx, storage.Events, e.ID, callToDoc(e)); err != nil {
		log.Printf("Failed to record provider call %s for item %s: %v", e.Method, e.ItemID, err)
	}
}

// ListByItemID returns an item's events, newest first.
func (l *Logger) ListByItemID(ctx context.Context, itemID string) ([]storage.Doc, error) {
	return l.store.Query(ctx, storage.Events,
		[]storage.Filter{{Field: "item_id", Value: itemID}},
		[]storage.Order{{Field: "created_at", Desc: true}})
}

// Package sync drives the cursor-based transaction sync. One sync epoch
// drains the provider's change stream from the item's stored cursor,
// folds the pages into a net change set, and commits the deltas together
// with the advanced cursor in a single atomic batch. Replaying an epoch
// lands on the same rows, so a crash between commit and response is safe.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"finch/internal/domain/account"
	"finch/internal/domain/event"
	"finch/internal/domain/item"
	"finch/internal/domain/transaction"
	"finch/internal/infrastructure/provider"
	"finch/internal/storage"
)

// Domain errors
var (
	// ErrItemNotSyncable means the item's status forbids syncing. The
	// provider is never contacted in that case.
	ErrItemNotSyncable = errors.New("item status does not allow sync")
	// ErrUnresolvedAccount means the provider referenced an account the
	// reconciler could not map to a local account even after refreshing
	// the snapshot. Nothing is committed.
	ErrUnresolvedAccount = errors.New("provider transaction references unknown account")
)

// Result summarizes one committed sync epoch.
type Result struct {
	ItemID   string `json:"itemId"`
	Added    int    `json:"added"`
	Modified int    `json:"modified"`
	Removed  int    `json:"removed"`
	Cursor   string `json:"-"`
}

// Engine coordinates provider calls, account reconciliation and the
// atomic commit of each sync epoch. Safe for concurrent use; epochs for
// the same item are serialized, different items run in parallel.
type Engine struct {
	locks      *keyedLocks
	items      *item.Repository
	registry   *item.Registry
	accounts   *account.Repository
	reconciler *account.Reconciler
	txns       *transaction.Repository
	client     provider.ClientInterface
	events     *event.Logger
	store      storage.Store

	tracer       trace.Tracer
	syncDuration metric.Float64Histogram
	txnCounter   metric.Int64Counter
}

func NewEngine(
	items *item.Repository,
	registry *item.Registry,
	accounts *account.Repository,
	reconciler *account.Reconciler,
	txns *transaction.Repository,
	client provider.ClientInterface,
	events *event.Logger,
	store storage.Store,
) (*Engine, error) {
	meter := otel.Meter("finch.sync")

	syncDuration, err := meter.Float64Histogram("finch.sync.duration",
		metric.WithDescription("Duration of one sync epoch in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync duration histogram: %w", err)
	}
	txnCounter, err := meter.Int64Counter("finch.sync.transactions",
		metric.WithDescription("Transactions committed by sync, by change kind"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync transaction counter: %w", err)
	}

	return &Engine{
		locks:        newKeyedLocks(),
		items:        items,
		registry:     registry,
		accounts:     accounts,
		reconciler:   reconciler,
		txns:         txns,
		client:       client,
		events:       events,
		store:        store,
		tracer:       otel.Tracer("finch.sync"),
		syncDuration: syncDuration,
		txnCounter:   txnCounter,
	}, nil
}

// SyncItem runs one full sync epoch for the item and returns the net
// change counts. The stored cursor only advances when the whole epoch
// committed.
func (e *Engine) SyncItem(ctx context.Context, itemID string) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "sync.item",
		trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	unlock := e.locks.lock(itemID)
	defer unlock()

	start := time.Now()

	it, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.Status.Syncable() {
		return nil, fmt.Errorf("item %s is %s: %w", it.ID, it.Status, ErrItemNotSyncable)
	}

	startCursor := it.TransactionsCursor
	acc, cursor, err := e.drainPages(ctx, it)
	if err != nil {
		return nil, e.handleProviderError(ctx, it, err)
	}

	upserts, removed := acc.changes()

	lookup, err := e.resolveAccounts(ctx, it, upserts)
	if err != nil {
		return nil, err
	}

	if err := e.commit(ctx, it, upserts, removed, lookup, cursor); err != nil {
		return nil, err
	}

	added, modified, removedCount := acc.counts()
	result := &Result{
		ItemID:   it.ID,
		Added:    added,
		Modified: modified,
		Removed:  removedCount,
		Cursor:   cursor,
	}

	e.recordMetrics(ctx, result, time.Since(start))
	e.events.LogProviderCall(ctx, &event.ProviderCallEvent{
		UserID:   it.UserID,
		ItemID:   it.ID,
		Method:   "transactions_sync",
		Args:     fmt.Sprintf(`{"cursor":%q}`, startCursor),
		Added:    added,
		Modified: modified,
		Removed:  removedCount,
	})
	log.Printf("Synced item %s: %d added, %d modified, %d removed", it.ID, added, modified, removedCount)
	return result, nil
}

// drainPages walks the provider change stream until has_more is false.
// Nothing is persisted while draining; the epoch commits all at once.
func (e *Engine) drainPages(ctx context.Context, it *item.Item) (*accumulator, string, error) {
	acc := newAccumulator()
	cursor := it.TransactionsCursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, "", fmt.Errorf("sync of item %s aborted: %w", it.ID, err)
		}

		page, err := e.client.SyncTransactions(ctx, it.AccessToken, cursor)
		if err != nil {
			return nil, "", err
		}

		acc.applyPage(page)
		cursor = page.NextCursor
		if !page.HasMore {
			return acc, cursor, nil
		}
	}
}

// resolveAccounts maps every referenced provider account to a local
// account id. On the first epoch of an item no accounts exist yet, so the
// snapshot is fetched up front; if a reference still cannot be resolved
// the snapshot is refreshed once before giving up.
func (e *Engine) resolveAccounts(ctx context.Context, it *item.Item, upserts []pendingUpsert) (map[string]string, error) {
	if len(upserts) == 0 {
		return nil, nil
	}

	var lookup map[string]string
	refreshed := false

	if it.TransactionsCursor == "" {
		if err := e.refreshAccounts(ctx, it); err != nil {
			return nil, err
		}
		refreshed = true
	}

	local, err := e.accounts.ListByItemID(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	lookup = account.LookupByProviderID(local)

	for _, u := range upserts {
		if _, ok := lookup[u.txn.AccountID]; ok {
			continue
		}
		if refreshed {
			return nil, fmt.Errorf("account %s on item %s: %w", u.txn.AccountID, it.ID, ErrUnresolvedAccount)
		}
		if err := e.refreshAccounts(ctx, it); err != nil {
			return nil, err
		}
		refreshed = true
		local, err = e.accounts.ListByItemID(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		lookup = account.LookupByProviderID(local)
		if _, ok := lookup[u.txn.AccountID]; !ok {
			return nil, fmt.Errorf("account %s on item %s: %w", u.txn.AccountID, it.ID, ErrUnresolvedAccount)
		}
	}
	return lookup, nil
}

func (e *Engine) refreshAccounts(ctx context.Context, it *item.Item) error {
	snapshot, err := e.client.GetAccounts(ctx, it.AccessToken)
	if err != nil {
		return e.handleProviderError(ctx, it, err)
	}
	if _, err := e.reconciler.Reconcile(ctx, it.ID, it.UserID, snapshot); err != nil {
		return err
	}
	return nil
}

// commit applies the whole epoch in one batch: transaction upserts and
// deletes, the advanced cursor and the recovered status, all guarded by
// an existence check on the item.
func (e *Engine) commit(ctx context.Context, it *item.Item, upserts []pendingUpsert, removed []string, lookup map[string]string, cursor string) error {
	if len(upserts) == 0 && len(removed) == 0 && cursor == it.TransactionsCursor && it.Status == item.StatusGood {
		return nil
	}

	now := time.Now().UTC()
	ops := make([]storage.Op, 0, len(upserts)+len(removed)+2)
	ops = append(ops, e.items.CheckOp(it.ID))

	for _, u := range upserts {
		ops = append(ops, e.txns.PutOp(e.toLocal(u.txn, it, lookup[u.txn.AccountID], now)))
	}
	for _, id := range removed {
		ops = append(ops, e.txns.DeleteOp(id))
	}

	it.TransactionsCursor = cursor
	it.Status = item.StatusGood
	it.UpdatedAt = now
	itemOp, err := e.items.PutOp(it)
	if err != nil {
		return err
	}
	ops = append(ops, itemOp)

	if err := e.store.Apply(ctx, ops); err != nil {
		return fmt.Errorf("failed to commit sync epoch for item %s: %w", it.ID, err)
	}
	return nil
}

func (e *Engine) toLocal(p provider.Transaction, it *item.Item, accountID string, now time.Time) *transaction.Transaction {
	// The provider sends the category as a hierarchy; the first two
	// levels are stored as category and subcategory.
	var category, subcategory string
	if len(p.Category) > 0 {
		category = p.Category[0]
	}
	if len(p.Category) > 1 {
		subcategory = p.Category[1]
	}

	return &transaction.Transaction{
		ID:                     p.TransactionID,
		AccountID:              accountID,
		ItemID:                 it.ID,
		UserID:                 it.UserID,
		CategoryID:             p.CategoryID,
		Category:               category,
		Subcategory:            subcategory,
		Type:                   p.TransactionType,
		Name:                   p.Name,
		Amount:                 p.Amount,
		ISOCurrencyCode:        p.ISOCurrencyCode,
		UnofficialCurrencyCode: p.UnofficialCurrencyCode,
		Date:                   p.DateString,
		Pending:                p.Pending,
		AccountOwner:           p.AccountOwner,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// handleProviderError flips the item to error status on terminal provider
// failures. The stored cursor is never touched, so the next sync after
// relinking resumes exactly where this one failed.
func (e *Engine) handleProviderError(ctx context.Context, it *item.Item, err error) error {
	var perr *provider.Error
	if !errors.As(err, &perr) {
		return err
	}

	e.events.LogProviderCall(ctx, &event.ProviderCallEvent{
		UserID:    it.UserID,
		ItemID:    it.ID,
		Method:    "transactions_sync",
		Args:      fmt.Sprintf(`{"cursor":%q}`, it.TransactionsCursor),
		RequestID: perr.RequestID,
		ErrorType: perr.ErrorType,
		ErrorCode: perr.ErrorCode,
	})

	if perr.Terminal() {
		if statusErr := e.registry.SetStatus(ctx, it.ID, item.StatusError); statusErr != nil {
			log.Printf("Failed to mark item %s as errored: %v", it.ID, statusErr)
		}
		log.Printf("Item %s hit terminal provider error %s/%s", it.ID, perr.ErrorType, perr.ErrorCode)
	}
	return err
}

func (e *Engine) recordMetrics(ctx context.Context, r *Result, elapsed time.Duration) {
	e.syncDuration.Record(ctx, elapsed.Seconds())
	e.txnCounter.Add(ctx, int64(r.Added), metric.WithAttributes(attribute.String("change", "added")))
	e.txnCounter.Add(ctx, int64(r.Modified), metric.WithAttributes(attribute.String("change", "modified")))
	e.txnCounter.Add(ctx, int64(r.Removed), metric.WithAttributes(attribute.String("change", "removed")))
}

package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/domain/account"
	"finch/internal/domain/event"
	"finch/internal/domain/item"
	"finch/internal/domain/transaction"
	"finch/internal/infrastructure/crypto"
	"finch/internal/infrastructure/provider"
	"finch/internal/storage"
	"finch/internal/storage/memory"
)

type fakeClient struct {
	syncFunc     func(ctx context.Context, accessToken, cursor string) (*provider.SyncPage, error)
	accountsFunc func(ctx context.Context, accessToken string) ([]provider.Account, error)
	syncCalls    int
}

func (f *fakeClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*provider.SyncPage, error) {
	f.syncCalls++
	return f.syncFunc(ctx, accessToken, cursor)
}

func (f *fakeClient) GetAccounts(ctx context.Context, accessToken string) ([]provider.Account, error) {
	if f.accountsFunc == nil {
		return defaultAccounts(), nil
	}
	return f.accountsFunc(ctx, accessToken)
}

func defaultAccounts() []provider.Account {
	current := 100.0
	return []provider.Account{{
		AccountID: "prov-acc",
		Name:      "Checking",
		Type:      "depository",
		Subtype:   "checking",
		Balances:  provider.Balances{Current: &current, ISOCurrencyCode: "USD"},
	}}
}

// applyFilterStore wraps a store and fails Apply for batches that touch
// a given collection with a put. Reads and other writes pass through.
type applyFilterStore struct {
	storage.Store
	failPutsIn storage.Collection
}

func (s *applyFilterStore) Apply(ctx context.Context, ops []storage.Op) error {
	for _, op := range ops {
		if op.Kind == storage.OpPut && op.Collection == s.failPutsIn {
			return assert.AnError
		}
	}
	return s.Store.Apply(ctx, ops)
}

type harness struct {
	engine *Engine
	items  *item.Repository
	txns   *transaction.Repository
	client *fakeClient
	store  *memory.Store
	itemID string
}

func newHarness(t *testing.T, client *fakeClient) *harness {
	return newHarnessWithStore(t, client, memory.NewStore(), nil)
}

func newHarnessWithStore(t *testing.T, client *fakeClient, mem *memory.Store, engineStore storage.Store) *harness {
	t.Helper()

	enc, err := crypto.NewEncryptor(strings.Repeat("k", 32))
	require.NoError(t, err)

	if engineStore == nil {
		engineStore = mem
	}

	items := item.NewRepository(mem, enc)
	registry := item.NewRegistry(items)
	accounts := account.NewRepository(mem)
	reconciler := account.NewReconciler(accounts)
	txns := transaction.NewRepository(mem)
	events := event.NewLogger(mem)

	engine, err := NewEngine(items, registry, accounts, reconciler, txns, client, events, engineStore)
	require.NoError(t, err)

	it, err := registry.Register(context.Background(), item.RegisterParams{
		UserID:         "user-1",
		InstitutionID:  "ins_1",
		AccessToken:    "access-token-1",
		ProviderItemID: "prov-item-1",
	})
	require.NoError(t, err)

	return &harness{engine: engine, items: items, txns: txns, client: client, store: mem, itemID: it.ID}
}

func pagedClient(pages map[string]*provider.SyncPage) *fakeClient {
	return &fakeClient{
		syncFunc: func(_ context.Context, _, cursor string) (*provider.SyncPage, error) {
			page, ok := pages[cursor]
			if !ok {
				return &provider.SyncPage{NextCursor: cursor}, nil
			}
			return page, nil
		},
	}
}

func twoPageStream() map[string]*provider.SyncPage {
	return map[string]*provider.SyncPage{
		"": {
			Added:      []provider.Transaction{ptxn("t1", 10), ptxn("t2", 20)},
			NextCursor: "c1",
			HasMore:    true,
		},
		"c1": {
			Added:      []provider.Transaction{ptxn("t3", 30)},
			Removed:    []provider.RemovedID{{TransactionID: "t2"}},
			NextCursor: "c2",
		},
	}
}

func TestSyncItemInitialEpochAcrossPages(t *testing.T) {
	h := newHarness(t, pagedClient(twoPageStream()))
	ctx := context.Background()

	result, err := h.engine.SyncItem(ctx, h.itemID)
	require.NoError(t, err)

	// t2 was added and removed within the epoch, so it never lands.
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 0, result.Modified)
	assert.Equal(t, 1, result.Removed)

	stored, err := h.txns.ListByItemID(ctx, h.itemID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	ids := []string{stored[0].ID, stored[1].ID}
	assert.ElementsMatch(t, []string{"t1", "t3"}, ids)

	// Accounts were reconciled and transactions resolved to local ids.
	assert.NotEqual(t, "prov-acc", stored[0].AccountID)
	assert.Equal(t, stored[0].AccountID, stored[1].AccountID)

	it, err := h.items.GetByID(ctx, h.itemID)
	require.NoError(t, err)
	assert.Equal(t, "c2", it.TransactionsCursor)
	assert.Equal(t, item.StatusGood, it.Status)
}

func TestSyncItemReplayIsIdempotent(t *testing.T) {
	h := newHarness(t, pagedClient(twoPageStream()))
	ctx := context.Background()

	_, err := h.engine.SyncItem(ctx, h.itemID)
	require.NoError(t, err)

	// Simulate a client that lost the response and replays the epoch
	// from the previous cursor.
	it, err := h.items.GetByID(ctx, h.itemID)
	require.NoError(t, err)
	it.TransactionsCursor = ""
	require.NoError(t, h.items.Update(ctx, it))

	result, err := h.engine.SyncItem(ctx, h.itemID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	// Same natural keys, so replay lands on the same rows.
	assert.Equal(t, 2, h.store.Len(storage.Transactions))
}

func TestSyncItemRefusedForNonSyncableStatus(t *testing.T) {
	for _, status := range []item.Status{item.StatusError, item.StatusRevoked} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness(t, pagedClient(twoPageStream()))
			ctx := context.Background()

			it, err := h.items.GetByID(ctx, h.itemID)
			require.NoError(t, err)
			it.Status = status
			require.NoError(t, h.items.Update(ctx, it))

			_, err = h.engine.SyncItem(ctx, h.itemID)
			assert.ErrorIs(t, err, ErrItemNotSyncable)
			assert.Zero(t, h.client.syncCalls, "provider must not be contacted")
		})
	}
}

func TestSyncItemCommitFailureLeavesCursorUntouched(t *testing.T) {
	mem := memory.NewStore()
	failing := &applyFilterStore{Store: mem, failPutsIn: storage.Transactions}
	h := newHarnessWithStore(t, pagedClient(twoPageStream()), mem, failing)
	ctx := context.Background()

	_, err := h.engine.SyncItem(ctx, h.itemID)
	require.Error(t, err)

	assert.Zero(t, mem.Len(storage.Transactions))
	it, getErr := h.items.GetByID(ctx, h.itemID)
	require.NoError(t, getErr)
	assert.Empty(t, it.TransactionsCursor)
	assert.Equal(t, item.StatusGood, it.Status)
}

func TestSyncItemUnresolvedAccount(t *testing.T) {
	client := pagedClient(map[string]*provider.SyncPage{
		"": {
			Added: []provider.Transaction{{
				TransactionID: "t1",
				AccountID:     "ghost-account",
				Name:          "orphan",
				Amount:        5,
				DateString:    "2024-06-01",
			}},
			NextCursor: "c1",
		},
	})
	h := newHarness(t, client)
	ctx := context.Background()

	_, err := h.engine.SyncItem(ctx, h.itemID)
	assert.ErrorIs(t, err, ErrUnresolvedAccount)

	// No transactions committed, cursor never advanced.
	assert.Zero(t, h.store.Len(storage.Transactions))
	it, getErr := h.items.GetByID(ctx, h.itemID)
	require.NoError(t, getErr)
	assert.Empty(t, it.TransactionsCursor)
}

func TestSyncItemTerminalProviderError(t *testing.T) {
	perr := &provider.Error{
		ErrorType: "ITEM_ERROR",
		ErrorCode: "ITEM_LOGIN_REQUIRED",
		RequestID: "req-9",
	}
	client := &fakeClient{
		syncFunc: func(context.Context, string, string) (*provider.SyncPage, error) {
			return nil, perr
		},
	}
	h := newHarness(t, client)
	ctx := context.Background()

	_, err := h.engine.SyncItem(ctx, h.itemID)
	require.Error(t, err)

	it, getErr := h.items.GetByID(ctx, h.itemID)
	require.NoError(t, getErr)
	assert.Equal(t, item.StatusError, it.Status)
	assert.Empty(t, it.TransactionsCursor)

	// Until relinked, further syncs are refused without provider calls.
	calls := h.client.syncCalls
	_, err = h.engine.SyncItem(ctx, h.itemID)
	assert.ErrorIs(t, err, ErrItemNotSyncable)
	assert.Equal(t, calls, h.client.syncCalls)
}

func TestSyncItemTransientProviderErrorKeepsStatus(t *testing.T) {
	perr := &provider.Error{
		ErrorType: "RATE_LIMIT_EXCEEDED",
		ErrorCode: "TRANSACTIONS_SYNC_LIMIT",
	}
	client := &fakeClient{
		syncFunc: func(context.Context, string, string) (*provider.SyncPage, error) {
			return nil, perr
		},
	}
	h := newHarness(t, client)

	_, err := h.engine.SyncItem(context.Background(), h.itemID)
	require.Error(t, err)

	it, getErr := h.items.GetByID(context.Background(), h.itemID)
	require.NoError(t, getErr)
	assert.Equal(t, item.StatusGood, it.Status)
}

func TestSyncItemModifiedUpdatesExistingRow(t *testing.T) {
	pages := twoPageStream()
	h := newHarness(t, pagedClient(pages))
	ctx := context.Background()

	_, err := h.engine.SyncItem(ctx, h.itemID)
	require.NoError(t, err)

	settled := ptxn("t1", 10)
	settled.Name = "txn t1 settled"
	pages["c2"] = &provider.SyncPage{
		Modified:   []provider.Transaction{settled},
		NextCursor: "c3",
	}

	result, err := h.engine.SyncItem(ctx, h.itemID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Modified)

	got, err := h.txns.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "txn t1 settled", got.Name)
	assert.Equal(t, 2, h.store.Len(storage.Transactions))
}

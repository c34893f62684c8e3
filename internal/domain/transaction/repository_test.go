package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/storage"
	"finch/internal/storage/memory"
)

func seed(t *testing.T, repo *Repository, store storage.Store, txn *Transaction) {
	t.Helper()
	require.NoError(t, store.Apply(context.Background(), []storage.Op{repo.PutOp(txn)}))
}

func txn(id, account, date string, amount float64) *Transaction {
	now := time.Now().UTC().Truncate(time.Second)
	return &Transaction{
		ID:          id,
		AccountID:   account,
		ItemID:      "item-1",
		UserID:      "user-1",
		Name:        "Coffee " + id,
		Amount:      amount,
		Date:        date,
		Category:    "Food and Drink",
		Subcategory: "Coffee",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestListNewestFirstWithStableTieBreak(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)

	seed(t, repo, store, txn("txn-b", "acc-1", "2024-05-02", 4.5))
	seed(t, repo, store, txn("txn-a", "acc-1", "2024-05-02", 12))
	seed(t, repo, store, txn("txn-c", "acc-1", "2024-05-09", 7))
	seed(t, repo, store, txn("txn-z", "acc-2", "2024-05-20", 99))

	got, err := repo.ListByAccountID(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "txn-c", got[0].ID)
	assert.Equal(t, "txn-a", got[1].ID)
	assert.Equal(t, "txn-b", got[2].ID)

	// Repeat read returns the same order.
	again, err := repo.ListByAccountID(context.Background(), "acc-1")
	require.NoError(t, err)
	for i := range got {
		assert.Equal(t, got[i].ID, again[i].ID)
	}
}

func TestListScopes(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	a := txn("txn-1", "acc-1", "2024-01-01", 1)
	b := txn("txn-2", "acc-2", "2024-01-02", 2)
	other := txn("txn-3", "acc-9", "2024-01-03", 3)
	other.ItemID = "item-9"
	other.UserID = "user-9"
	seed(t, repo, store, a)
	seed(t, repo, store, b)
	seed(t, repo, store, other)

	byItem, err := repo.ListByItemID(ctx, "item-1")
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	byUser, err := repo.ListByUserID(ctx, "user-9")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "txn-3", byUser[0].ID)
}

func TestPutOpUpsertsByProviderID(t *testing.T) {
	store := memory.NewStore()
	repo := NewRepository(store)
	ctx := context.Background()

	seed(t, repo, store, txn("txn-1", "acc-1", "2024-01-01", 10))

	updated := txn("txn-1", "acc-1", "2024-01-01", 10)
	updated.Pending = false
	updated.Name = "Coffee settled"
	seed(t, repo, store, updated)

	assert.Equal(t, 1, store.Len(storage.Transactions))
	got, err := repo.GetByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee settled", got.Name)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewRepository(memory.NewStore())
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestDocRoundtrip(t *testing.T) {
	original := txn("txn-1", "acc-1", "2024-03-15", -42.17)
	original.CategoryID = "13005000"
	original.Type = "place"
	original.ISOCurrencyCode = "USD"
	original.Pending = true
	original.AccountOwner = "primary"

	got, err := fromDoc(storage.Doc{ID: original.ID, Data: toDoc(original)})
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

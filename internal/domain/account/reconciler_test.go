package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/infrastructure/provider"
	"finch/internal/storage"
	"finch/internal/storage/memory"
)

func f64(v float64) *float64 { return &v }

func seedItem(t *testing.T, store storage.Store, id string) {
	t.Helper()
	err := store.Put(context.Background(), storage.Items, id, map[string]any{
		"user_id": "user-1",
		"status":  "good",
	})
	require.NoError(t, err)
}

func providerAccount(id, name string, current float64) provider.Account {
	return provider.Account{
		AccountID:    id,
		Name:         name,
		Mask:         "0000",
		OfficialName: name + " Official",
		Type:         "depository",
		Subtype:      "checking",
		Balances: provider.Balances{
			Current:         f64(current),
			Available:       f64(current - 10),
			ISOCurrencyCode: "USD",
		},
	}
}

func TestReconcileCreatesNewAccounts(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "item-1")
	rec := NewReconciler(NewRepository(store))

	snapshot := []provider.Account{
		providerAccount("prov-a", "Checking", 100),
		providerAccount("prov-b", "Savings", 500),
	}

	accounts, err := rec.Reconcile(context.Background(), "item-1", "user-1", snapshot)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	lookup := LookupByProviderID(accounts)
	assert.Len(t, lookup, 2)
	assert.NotEmpty(t, lookup["prov-a"])
	assert.NotEmpty(t, lookup["prov-b"])
	assert.NotEqual(t, lookup["prov-a"], lookup["prov-b"])

	stored, err := NewRepository(store).ListByItemID(context.Background(), "item-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, a := range stored {
		assert.Equal(t, "item-1", a.ItemID)
		assert.Equal(t, "user-1", a.UserID)
		assert.Equal(t, "USD", a.ISOCurrencyCode)
	}
}

func TestReconcileKeepsLocalIDsStable(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "item-1")
	rec := NewReconciler(NewRepository(store))
	ctx := context.Background()

	first, err := rec.Reconcile(ctx, "item-1", "user-1", []provider.Account{
		providerAccount("prov-a", "Checking", 100),
	})
	require.NoError(t, err)
	require.Len(t, first, 1)
	originalID := first[0].ID

	second, err := rec.Reconcile(ctx, "item-1", "user-1", []provider.Account{
		providerAccount("prov-a", "Checking Renamed", 250),
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, originalID, second[0].ID)
	assert.Equal(t, "Checking Renamed", second[0].Name)
	assert.Equal(t, 250.0, second[0].CurrentBalance)
}

func TestReconcileKeepsAccountsDroppedByProvider(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "item-1")
	rec := NewReconciler(NewRepository(store))
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, "item-1", "user-1", []provider.Account{
		providerAccount("prov-a", "Checking", 100),
		providerAccount("prov-b", "Savings", 500),
	})
	require.NoError(t, err)

	after, err := rec.Reconcile(ctx, "item-1", "user-1", []provider.Account{
		providerAccount("prov-a", "Checking", 120),
	})
	require.NoError(t, err)

	// prov-b stays readable even though the provider stopped reporting it.
	assert.Len(t, after, 2)
}

func TestReconcileMissingItem(t *testing.T) {
	store := memory.NewStore()
	rec := NewReconciler(NewRepository(store))

	_, err := rec.Reconcile(context.Background(), "item-absent", "user-1", []provider.Account{
		providerAccount("prov-a", "Checking", 100),
	})
	assert.ErrorIs(t, err, ErrMissingItem)

	// Nothing committed.
	stored, listErr := NewRepository(store).ListByItemID(context.Background(), "item-absent")
	require.NoError(t, listErr)
	assert.Empty(t, stored)
}

func TestReconcileEmptySnapshotNoWrite(t *testing.T) {
	store := memory.NewStore()
	rec := NewReconciler(NewRepository(store))

	// No item seeded: an empty snapshot must not even run the check.
	accounts, err := rec.Reconcile(context.Background(), "item-1", "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAccountDocRoundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	a := &Account{
		ID:                "acc-1",
		ItemID:            "item-1",
		UserID:            "user-1",
		ProviderAccountID: "prov-a",
		Name:              "Checking",
		Mask:              "1234",
		OfficialName:      "Premier Checking",
		CurrentBalance:    321.5,
		AvailableBalance:  300,
		ISOCurrencyCode:   "USD",
		Type:              "depository",
		Subtype:           "checking",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	got, err := fromDoc(storage.Doc{ID: a.ID, Data: toDoc(a)})
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

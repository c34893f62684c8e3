package user

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/domain/account"
	"finch/internal/domain/asset"
	"finch/internal/domain/item"
	"finch/internal/domain/transaction"
	"finch/internal/infrastructure/crypto"
	"finch/internal/storage"
	"finch/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *item.Registry, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	enc, err := crypto.NewEncryptor(strings.Repeat("k", 32))
	require.NoError(t, err)
	repo := item.NewRepository(store, enc,
		transaction.NewRepository(store), account.NewRepository(store))
	items := item.NewRegistry(repo)
	assets := asset.NewService(asset.NewRepository(store))
	return NewService(NewRepository(store), items, assets), items, store
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateParams{Username: "ada"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Username: "ada"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Username: "ada"})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestCreateRequiresUsername(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), CreateParams{})
	assert.Error(t, err)
}

func TestGetMissingUser(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteCascadesOverItems(t *testing.T) {
	svc, items, store := newService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, CreateParams{Username: "ada"})
	require.NoError(t, err)

	it, err := items.Register(ctx, item.RegisterParams{
		UserID:         u.ID,
		InstitutionID:  "ins_1",
		AccessToken:    "tok",
		ProviderItemID: "prov-1",
	})
	require.NoError(t, err)

	// Give the item an account and a transaction to cascade over, and
	// the user a declared asset.
	require.NoError(t, store.Put(ctx, storage.Accounts, "acc-1", map[string]any{"item_id": it.ID}))
	require.NoError(t, store.Put(ctx, storage.Transactions, "txn-1", map[string]any{"item_id": it.ID}))
	require.NoError(t, store.Put(ctx, storage.Assets, "asset-1", map[string]any{"user_id": u.ID}))

	require.NoError(t, svc.Delete(ctx, u.ID))

	_, err = svc.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, store.Len(storage.Items))
	assert.Zero(t, store.Len(storage.Accounts))
	assert.Zero(t, store.Len(storage.Transactions))
	assert.Zero(t, store.Len(storage.Assets))
}

func TestDeleteMissingUser(t *testing.T) {
	svc, _, _ := newService(t)
	err := svc.Delete(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

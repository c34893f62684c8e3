package asset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/storage"
	"finch/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(NewRepository(store)), store
}

func TestCreateAndListByUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateParams{UserID: "user-1", Description: "House", Value: 350000})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	_, err = svc.Create(ctx, CreateParams{UserID: "user-2", Description: "Car", Value: 12000})
	require.NoError(t, err)

	assets, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "House", assets[0].Description)
	assert.Equal(t, 350000.0, assets[0].Value)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"missing user", CreateParams{Description: "House", Value: 1}},
		{"missing description", CreateParams{UserID: "user-1", Value: 1}},
		{"negative value", CreateParams{UserID: "user-1", Description: "House", Value: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.params)
			assert.Error(t, err)
		})
	}
}

func TestDeleteAsset(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateParams{UserID: "user-1", Description: "House", Value: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.Zero(t, store.Len(storage.Assets))

	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrAssetNotFound)
}

func TestDeleteByUserLeavesOthers(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{UserID: "user-1", Description: "House", Value: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{UserID: "user-1", Description: "Car", Value: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{UserID: "user-2", Description: "Boat", Value: 3})
	require.NoError(t, err)

	n, err := svc.DeleteByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.Len(storage.Assets))

	// No assets is not an error.
	n, err = svc.DeleteByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

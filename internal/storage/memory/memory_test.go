package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/storage"
)

func TestPutGetRoundtrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Put(ctx, storage.Items, "item-1", map[string]any{"status": "good", "user_id": "u1"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, storage.Items, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "item-1", doc.ID)
	assert.Equal(t, "good", doc.Data["status"])

	_, err = s.Get(ctx, storage.Items, "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	record := map[string]any{"name": "original"}
	require.NoError(t, s.Put(ctx, storage.Accounts, "a1", record))

	// Mutating the caller's map or the returned doc must not leak into
	// the store.
	record["name"] = "mutated input"
	doc, err := s.Get(ctx, storage.Accounts, "a1")
	require.NoError(t, err)
	doc.Data["name"] = "mutated output"

	fresh, err := s.Get(ctx, storage.Accounts, "a1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Data["name"])
}

func TestQueryFilterAndOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	put := func(id, account, date string) {
		require.NoError(t, s.Put(ctx, storage.Transactions, id, map[string]any{
			"account_id": account,
			"date":       date,
		}))
	}
	put("t1", "acc-1", "2024-01-01")
	put("t3", "acc-1", "2024-02-10")
	put("t2", "acc-1", "2024-02-10")
	put("t9", "acc-2", "2024-03-01")

	docs, err := s.Query(ctx, storage.Transactions,
		[]storage.Filter{{Field: "account_id", Value: "acc-1"}},
		[]storage.Order{{Field: "date", Desc: true}})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Newest first, equal dates broken by ascending id.
	assert.Equal(t, "t2", docs[0].ID)
	assert.Equal(t, "t3", docs[1].ID)
	assert.Equal(t, "t1", docs[2].ID)
}

func TestApplyAtomicCheckFailure(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.Transactions, "existing", map[string]any{"amount": 1.0}))

	err := s.Apply(ctx, []storage.Op{
		storage.PutOp(storage.Transactions, "new", map[string]any{"amount": 2.0}),
		storage.DeleteOp(storage.Transactions, "existing"),
		storage.CheckOp(storage.Items, "missing-item"),
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Failed batch left everything untouched.
	assert.Equal(t, 1, s.Len(storage.Transactions))
	_, err = s.Get(ctx, storage.Transactions, "existing")
	assert.NoError(t, err)
}

func TestApplyCommitsWholeBatch(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.Items, "item-1", map[string]any{"status": "good"}))
	require.NoError(t, s.Put(ctx, storage.Transactions, "gone", map[string]any{"amount": 5.0}))

	err := s.Apply(ctx, []storage.Op{
		storage.CheckOp(storage.Items, "item-1"),
		storage.PutOp(storage.Transactions, "kept", map[string]any{"amount": 7.5}),
		storage.DeleteOp(storage.Transactions, "gone"),
		storage.PutOp(storage.Items, "item-1", map[string]any{"status": "good", "cursor": "c1"}),
	})
	require.NoError(t, err)

	_, err = s.Get(ctx, storage.Transactions, "gone")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	doc, err := s.Get(ctx, storage.Items, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", doc.Data["cursor"])
}

func TestApplyDeleteAbsentIsNoop(t *testing.T) {
	s := NewStore()
	err := s.Apply(context.Background(), []storage.Op{
		storage.DeleteOp(storage.Transactions, "never-existed"),
	})
	assert.NoError(t, err)
}

func TestApplyRejectsMalformedOps(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Apply(ctx, []storage.Op{{Kind: storage.OpPut, Collection: storage.Items}})
	assert.ErrorIs(t, err, storage.ErrInvalidOp)

	err = s.Apply(ctx, []storage.Op{{Kind: "merge", Collection: storage.Items, ID: "x"}})
	assert.ErrorIs(t, err, storage.ErrInvalidOp)

	err = s.Apply(ctx, []storage.Op{{Kind: storage.OpPut, Collection: storage.Items, ID: "x"}})
	assert.ErrorIs(t, err, storage.ErrInvalidOp)
}

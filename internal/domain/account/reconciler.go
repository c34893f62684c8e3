package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"finch/internal/infrastructure/provider"
	"finch/internal/storage"
)

// Reconciler replaces an item's local account snapshot with the
// provider's current view. Accounts are keyed by (item, provider account
// id): a provider account seen before keeps its local id, a new one gets
// a fresh id. Accounts the provider no longer reports are kept; their
// history stays readable until the item itself is deleted.
type Reconciler struct {
	repo *Repository
}

func NewReconciler(repo *Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile upserts the provider snapshot in one atomic batch guarded by
// an existence check on the item. Returns every local account of the
// item after the merge.
func (r *Reconciler) Reconcile(ctx context.Context, itemID, userID string, snapshot []provider.Account) ([]*Account, error) {
	existing, err := r.repo.ListByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	byProviderID := make(map[string]*Account, len(existing))
	for _, a := range existing {
		byProviderID[a.ProviderAccountID] = a
	}

	now := time.Now().UTC()
	ops := []storage.Op{storage.CheckOp(storage.Items, itemID)}
	created := 0

	for _, pa := range snapshot {
		local, ok := byProviderID[pa.AccountID]
		if !ok {
			// Provider account ids can collide across items in some
			// sandboxes, so the local id is always minted.
			local = &Account{
				ID:                uuid.NewString(),
				ItemID:            itemID,
				UserID:            userID,
				ProviderAccountID: pa.AccountID,
				CreatedAt:         now,
			}
			byProviderID[pa.AccountID] = local
			created++
		}
		local.Name = pa.Name
		local.Mask = pa.Mask
		local.OfficialName = pa.OfficialName
		local.Type = pa.Type
		local.Subtype = pa.Subtype
		local.ISOCurrencyCode = pa.Balances.ISOCurrencyCode
		local.UnofficialCurrencyCode = pa.Balances.UnofficialCurrencyCode
		if pa.Balances.Current != nil {
			local.CurrentBalance = *pa.Balances.Current
		}
		if pa.Balances.Available != nil {
			local.AvailableBalance = *pa.Balances.Available
		}
		local.UpdatedAt = now
		ops = append(ops, r.repo.PutOp(local))
	}

	if len(ops) > 1 {
		if err := r.repo.store.Apply(ctx, ops); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrMissingItem
			}
			return nil, fmt.Errorf("failed to commit account snapshot: %w", err)
		}
	}

	log.Printf("Reconciled accounts for item %s: %d from provider, %d new", itemID, len(snapshot), created)

	all := make([]*Account, 0, len(byProviderID))
	for _, a := range byProviderID {
		all = append(all, a)
	}
	return all, nil
}

// LookupByProviderID indexes accounts by their provider account id.
func LookupByProviderID(accounts []*Account) map[string]string {
	m := make(map[string]string, len(accounts))
	for _, a := range accounts {
		m[a.ProviderAccountID] = a.ID
	}
	return m
}

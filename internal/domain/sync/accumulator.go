package sync

import (
	"sort"

	"finch/internal/infrastructure/provider"
)

// accumulator folds the pages of one sync epoch into a net change set.
// The provider's stream can mention the same transaction several times
// within an epoch (added on one page, removed on a later one); the last
// mention wins, so a transaction added and then removed in the same
// epoch never touches storage at all.
type accumulator struct {
	upserts map[string]pendingUpsert
	removed map[string]struct{}
	// order keeps upserts in first-seen order so the commit batch is
	// deterministic across runs.
	order []string
}

type pendingUpsert struct {
	txn provider.Transaction
	// added is true when this epoch first saw the transaction in an
	// added list, false when it only appeared as modified.
	added bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		upserts: make(map[string]pendingUpsert),
		removed: make(map[string]struct{}),
	}
}

func (a *accumulator) applyPage(page *provider.SyncPage) {
	for _, txn := range page.Added {
		a.putUpsert(txn, true)
	}
	for _, txn := range page.Modified {
		a.putUpsert(txn, false)
	}
	for _, r := range page.Removed {
		if _, ok := a.upserts[r.TransactionID]; ok {
			delete(a.upserts, r.TransactionID)
			a.dropFromOrder(r.TransactionID)
		}
		a.removed[r.TransactionID] = struct{}{}
	}
}

func (a *accumulator) putUpsert(txn provider.Transaction, added bool) {
	id := txn.TransactionID
	prev, seen := a.upserts[id]
	if !seen {
		a.order = append(a.order, id)
	}
	// A remove earlier in the epoch is cancelled by a later add.
	delete(a.removed, id)
	a.upserts[id] = pendingUpsert{txn: txn, added: added || (seen && prev.added)}
}

func (a *accumulator) dropFromOrder(id string) {
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

// changes returns the net upserts in first-seen order and the removed ids.
func (a *accumulator) changes() ([]pendingUpsert, []string) {
	ups := make([]pendingUpsert, 0, len(a.order))
	for _, id := range a.order {
		ups = append(ups, a.upserts[id])
	}
	removed := make([]string, 0, len(a.removed))
	for id := range a.removed {
		removed = append(removed, id)
	}
	sort.Strings(removed)
	return ups, removed
}

func (a *accumulator) counts() (added, modified, removed int) {
	for _, u := range a.upserts {
		if u.added {
			added++
		} else {
			modified++
		}
	}
	return added, modified, len(a.removed)
}

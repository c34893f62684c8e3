package sync

import "sync"

// keyedLocks serializes work per key. Syncs for the same item queue up
// behind each other; syncs for different items never contend.
//
// Entries are never evicted, so the map grows with the number of
// distinct item ids synced over the process lifetime. One mutex per
// item is small enough that eviction is not worth the bookkeeping.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

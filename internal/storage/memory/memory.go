// Package memory implements storage.Store on process memory. Used by
// tests and by local runs that need no external database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"finch/internal/storage"
)

type Store struct {
	mu   sync.RWMutex
	data map[storage.Collection]map[string]map[string]any
}

func NewStore() *Store {
	return &Store{data: make(map[storage.Collection]map[string]map[string]any)}
}

func (s *Store) Get(_ context.Context, c storage.Collection, id string) (storage.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[c][id]
	if !ok {
		return storage.Doc{}, fmt.Errorf("%s/%s: %w", c, id, storage.ErrNotFound)
	}
	return storage.Doc{ID: id, Data: deepCopy(record)}, nil
}

func (s *Store) Query(_ context.Context, c storage.Collection, filters []storage.Filter, orders []storage.Order) ([]storage.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []storage.Doc
	for id, record := range s.data[c] {
		if matches(record, filters) {
			docs = append(docs, storage.Doc{ID: id, Data: deepCopy(record)})
		}
	}
	sortDocs(docs, orders)
	return docs, nil
}

func (s *Store) Put(_ context.Context, c storage.Collection, id string, record map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(c, id, record)
	return nil
}

func (s *Store) Delete(_ context.Context, c storage.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[c], id)
	return nil
}

// Apply verifies every check under the write lock before mutating
// anything, so a failed batch leaves the store untouched.
func (s *Store) Apply(_ context.Context, ops []storage.Op) error {
	if err := storage.ValidateOps(ops); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		if op.Kind != storage.OpCheck {
			continue
		}
		if _, ok := s.data[op.Collection][op.ID]; !ok {
			return fmt.Errorf("check %s/%s: %w", op.Collection, op.ID, storage.ErrNotFound)
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case storage.OpPut:
			s.put(op.Collection, op.ID, op.Record)
		case storage.OpDelete:
			delete(s.data[op.Collection], op.ID)
		}
	}
	return nil
}

// Len reports the number of records in a collection. Test helper.
func (s *Store) Len(c storage.Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[c])
}

func (s *Store) put(c storage.Collection, id string, record map[string]any) {
	if s.data[c] == nil {
		s.data[c] = make(map[string]map[string]any)
	}
	s.data[c][id] = deepCopy(record)
}

func deepCopy(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		switch t := v.(type) {
		case map[string]any:
			out[k] = deepCopy(t)
		case []any:
			cp := make([]any, len(t))
			copy(cp, t)
			out[k] = cp
		case []string:
			cp := make([]string, len(t))
			copy(cp, t)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

func matches(record map[string]any, filters []storage.Filter) bool {
	for _, f := range filters {
		if record[f.Field] != f.Value {
			return false
		}
	}
	return true
}

func sortDocs(docs []storage.Doc, orders []storage.Order) {
	if len(docs) < 2 {
		return
	}
	sort.Slice(docs, func(i, j int) bool {
		for _, o := range orders {
			c := compare(docs[i].Data[o.Field], docs[j].Data[o.Field])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		// Deterministic id tie-break regardless of requested orders.
		return docs[i].ID < docs[j].ID
	})
}

func compare(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case bv:
				return -1
			}
			return 1
		}
	}
	return 0
}

// Package storage defines the document store the domain packages persist
// through. Each collection holds schemaless records addressed by id, and
// Apply commits a batch of writes atomically so multi-record updates
// either land together or not at all.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Collection names the record sets the service persists.
type Collection string

const (
	Users        Collection = "users"
	Items        Collection = "items"
	Accounts     Collection = "accounts"
	Transactions Collection = "transactions"
	Assets       Collection = "assets"
	Events       Collection = "events"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidOp = errors.New("invalid batch op")
)

// Doc is one stored record.
type Doc struct {
	ID   string
	Data map[string]any
}

// Filter is an equality predicate on a record field.
type Filter struct {
	Field string
	Value any
}

// Order sorts query results by a record field.
type Order struct {
	Field string
	Desc  bool
}

// OpKind discriminates batch operations.
type OpKind string

const (
	// OpPut upserts a record.
	OpPut OpKind = "put"
	// OpDelete removes a record if present.
	OpDelete OpKind = "delete"
	// OpCheck asserts the record exists at commit time and fails the
	// whole batch with ErrNotFound if it does not.
	OpCheck OpKind = "check"
)

// Op is one operation inside an atomic batch.
type Op struct {
	Kind       OpKind
	Collection Collection
	ID         string
	Record     map[string]any
}

// Store is implemented by each persistence backend. Query with no orders
// returns records in an unspecified order; callers that need determinism
// pass explicit orders and every backend appends an id tie-break.
type Store interface {
	Get(ctx context.Context, c Collection, id string) (Doc, error)
	Query(ctx context.Context, c Collection, filters []Filter, orders []Order) ([]Doc, error)
	Put(ctx context.Context, c Collection, id string, record map[string]any) error
	Delete(ctx context.Context, c Collection, id string) error
	Apply(ctx context.Context, ops []Op) error
}

// ValidateOps rejects malformed batches before any backend work starts.
func ValidateOps(ops []Op) error {
	for i, op := range ops {
		if op.ID == "" {
			return fmt.Errorf("%w: op %d has no id", ErrInvalidOp, i)
		}
		switch op.Kind {
		case OpPut:
			if op.Record == nil {
				return fmt.Errorf("%w: put %s/%s has no record", ErrInvalidOp, op.Collection, op.ID)
			}
		case OpDelete, OpCheck:
		default:
			return fmt.Errorf("%w: op %d has kind %q", ErrInvalidOp, i, op.Kind)
		}
	}
	return nil
}

func PutOp(c Collection, id string, record map[string]any) Op {
	return Op{Kind: OpPut, Collection: c, ID: id, Record: record}
}

func DeleteOp(c Collection, id string) Op {
	return Op{Kind: OpDelete, Collection: c, ID: id}
}

func CheckOp(c Collection, id string) Op {
	return Op{Kind: OpCheck, Collection: c, ID: id}
}

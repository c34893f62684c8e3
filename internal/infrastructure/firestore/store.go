// Package firestore implements storage.Store on Cloud Firestore. Atomic
// batches run inside a Firestore transaction: check reads happen first,
// then the writes, so the transaction aborts before mutating anything
// when a guard fails.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"finch/internal/storage"
)

type Store struct {
	client *firestore.Client
}

// NewStore initializes a Firebase app and opens its Firestore database.
// credentialsFile may be empty, in which case application default
// credentials are used.
func NewStore(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, c storage.Collection, id string) (storage.Doc, error) {
	snap, err := s.client.Collection(string(c)).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return storage.Doc{}, fmt.Errorf("%s/%s: %w", c, id, storage.ErrNotFound)
		}
		return storage.Doc{}, fmt.Errorf("failed to get %s/%s: %w", c, id, err)
	}
	return storage.Doc{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) Query(ctx context.Context, c storage.Collection, filters []storage.Filter, orders []storage.Order) ([]storage.Doc, error) {
	q := s.client.Collection(string(c)).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	for _, o := range orders {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(o.Field, dir)
	}
	q = q.OrderBy(firestore.DocumentID, firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []storage.Doc
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", c, err)
		}
		docs = append(docs, storage.Doc{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *Store) Put(ctx context.Context, c storage.Collection, id string, record map[string]any) error {
	if _, err := s.client.Collection(string(c)).Doc(id).Set(ctx, record); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, c storage.Collection, id string) error {
	if _, err := s.client.Collection(string(c)).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *Store) Apply(ctx context.Context, ops []storage.Op) error {
	if err := storage.ValidateOps(ops); err != nil {
		return err
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore requires all reads before any write.
		for _, op := range ops {
			if op.Kind != storage.OpCheck {
				continue
			}
			ref := s.client.Collection(string(op.Collection)).Doc(op.ID)
			if _, err := tx.Get(ref); err != nil {
				if status.Code(err) == codes.NotFound {
					return fmt.Errorf("check %s/%s: %w", op.Collection, op.ID, storage.ErrNotFound)
				}
				return fmt.Errorf("failed to check %s/%s: %w", op.Collection, op.ID, err)
			}
		}

		for _, op := range ops {
			ref := s.client.Collection(string(op.Collection)).Doc(op.ID)
			switch op.Kind {
			case storage.OpPut:
				if err := tx.Set(ref, op.Record); err != nil {
					return fmt.Errorf("failed to put %s/%s: %w", op.Collection, op.ID, err)
				}
			case storage.OpDelete:
				if err := tx.Delete(ref); err != nil {
					return fmt.Errorf("failed to delete %s/%s: %w", op.Collection, op.ID, err)
				}
			}
		}
		return nil
	})
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"finch/internal/storage"
)

// tableFor whitelists collection names so they can be interpolated into
// SQL. Query filter fields go through jsonb operators with placeholders
// and need no such guard.
var tableFor = map[storage.Collection]string{
	storage.Users:        "users",
	storage.Items:        "items",
	storage.Accounts:     "accounts",
	storage.Transactions: "transactions",
	storage.Assets:       "assets",
	storage.Events:       "events",
}

// Store adapts the traced DB to the storage.Store interface.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the collection tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, table := range tableFor {
		query := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, data JSONB NOT NULL)`, table)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, c storage.Collection, id string) (storage.Doc, error) {
	table, err := tableName(c)
	if err != nil {
		return storage.Doc{}, err
	}

	var raw []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return storage.Doc{}, fmt.Errorf("%s/%s: %w", c, id, storage.ErrNotFound)
		}
		return storage.Doc{}, fmt.Errorf("failed to get %s/%s: %w", c, id, err)
	}

	data, err := decode(raw)
	if err != nil {
		return storage.Doc{}, err
	}
	return storage.Doc{ID: id, Data: data}, nil
}

func (s *Store) Query(ctx context.Context, c storage.Collection, filters []storage.Filter, orders []storage.Order) ([]storage.Doc, error) {
	table, err := tableName(c)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT id, data FROM %s`, table)

	args := make([]any, 0, len(filters))
	for i, f := range filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, fmt.Sprintf("%v", f.Value))
		fmt.Fprintf(&b, `data->>'%s' = $%d`, f.Field, len(args))
	}

	b.WriteString(" ORDER BY ")
	for _, o := range orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, `data->>'%s' %s, `, o.Field, dir)
	}
	b.WriteString("id ASC")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c, err)
	}
	defer rows.Close()

	var docs []storage.Doc
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c, err)
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, storage.Doc{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", c, err)
	}
	return docs, nil
}

func (s *Store) Put(ctx context.Context, c storage.Collection, id string, record map[string]any) error {
	return s.Apply(ctx, []storage.Op{storage.PutOp(c, id, record)})
}

func (s *Store) Delete(ctx context.Context, c storage.Collection, id string) error {
	return s.Apply(ctx, []storage.Op{storage.DeleteOp(c, id)})
}

// Apply runs every op inside one transaction. Check ops take a row lock so
// a concurrent cascade delete cannot slip between the check and commit.
func (s *Store) Apply(ctx context.Context, ops []storage.Op) error {
	if err := storage.ValidateOps(ops); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, op := range ops {
		table, err := tableName(op.Collection)
		if err != nil {
			return err
		}

		switch op.Kind {
		case storage.OpCheck:
			var one int
			query := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 FOR SHARE`, table)
			if err := tx.QueryRowContext(ctx, query, op.ID).Scan(&one); err != nil {
				if err == sql.ErrNoRows {
					return fmt.Errorf("check %s/%s: %w", op.Collection, op.ID, storage.ErrNotFound)
				}
				return fmt.Errorf("failed to check %s/%s: %w", op.Collection, op.ID, err)
			}
		case storage.OpPut:
			raw, err := json.Marshal(op.Record)
			if err != nil {
				return fmt.Errorf("failed to encode %s/%s: %w", op.Collection, op.ID, err)
			}
			query := fmt.Sprintf(
				`INSERT INTO %s (id, data) VALUES ($1, $2)
				 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, table)
			if _, err := tx.ExecContext(ctx, query, op.ID, raw); err != nil {
				return fmt.Errorf("failed to put %s/%s: %w", op.Collection, op.ID, err)
			}
		case storage.OpDelete:
			query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
			if _, err := tx.ExecContext(ctx, query, op.ID); err != nil {
				return fmt.Errorf("failed to delete %s/%s: %w", op.Collection, op.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func tableName(c storage.Collection) (string, error) {
	t, ok := tableFor[c]
	if !ok {
		return "", fmt.Errorf("unknown collection %q: %w", c, storage.ErrInvalidOp)
	}
	return t, nil
}

func decode(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return data, nil
}

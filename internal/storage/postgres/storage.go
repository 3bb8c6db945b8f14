package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/playeraccounts/internal/model"
	"github.com/mcoot/playeraccounts/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    uuid TEXT PRIMARY KEY,
    name_lower TEXT NOT NULL DEFAULT '',
    doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_name_lower ON accounts(name_lower);
`

const (
	findByUUID      = `SELECT doc FROM accounts WHERE uuid = $1`
	findByNameLower = `SELECT doc FROM accounts WHERE name_lower = $1 LIMIT 1`

	saveDocument = `
INSERT INTO accounts (uuid, name_lower, doc) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (uuid) DO UPDATE SET name_lower = EXCLUDED.name_lower, doc = EXCLUDED.doc`

	upsertByUUID = `
INSERT INTO accounts (uuid, name_lower, doc)
VALUES ($1, COALESCE($2::jsonb->>'name_lower', ''), jsonb_build_object('uuid', $1::text) || $2::jsonb)
ON CONFLICT (uuid) DO UPDATE SET
    doc = accounts.doc || $2::jsonb,
    name_lower = COALESCE($2::jsonb->>'name_lower', accounts.name_lower)`

	updateByNameLower = `
UPDATE accounts SET
    doc = doc || $2::jsonb,
    name_lower = COALESCE($2::jsonb->>'name_lower', name_lower)
WHERE uuid = (SELECT uuid FROM accounts WHERE name_lower = $1 LIMIT 1)`
)

// Storage is a PostgreSQL implementation of the document store keeping each
// account as a JSONB document
type Storage struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and initializes the schema
func New(ctx context.Context, databaseURL string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &Storage{pool: pool}, nil
}

// Ensure Storage implements the interface
var _ storage.DocumentStore = (*Storage)(nil)

func (s *Storage) FindOne(ctx context.Context, filter storage.Filter) (model.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := findByUUID
	if filter.Field == model.FieldNameLower {
		query = findByNameLower
	}

	var data []byte
	err := s.pool.QueryRow(ctx, query, filter.Value).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	doc, err := model.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedDocument, err)
	}
	return doc, nil
}

func (s *Storage) UpsertField(ctx context.Context, filter storage.Filter, field string, value any) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	updates, err := storage.FieldUpdates(field, value)
	if err != nil {
		return err
	}

	patch, err := json.Marshal(updates)
	if err != nil {
		return err
	}

	if filter.Field == model.FieldUUID {
		_, err = s.pool.Exec(ctx, upsertByUUID, filter.Value, string(patch))
		return err
	}

	tag, err := s.pool.Exec(ctx, updateByNameLower, filter.Value, string(patch))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDocumentNotFound
	}
	return nil
}

func (s *Storage) Save(ctx context.Context, doc model.Document) error {
	id, err := storage.DocumentID(doc)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, saveDocument, id, doc.String(model.FieldNameLower), string(data))
	return err
}

// Ping checks the pool can reach the database
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

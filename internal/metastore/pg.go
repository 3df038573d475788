package metastore

// Adapted from the original debias/core/metastore.py's Metastore:
// same table shape and same "transaction scope" semantics (a context
// manager wrapping a set of writes in one commit/rollback), ported
// from psycopg's async connection+transaction to pgx/v5's pool+Tx.

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS public.metadata (
	id BIGSERIAL PRIMARY KEY,
	target_id TEXT NOT NULL,
	target_name TEXT NOT NULL,
	absolute_url TEXT NOT NULL,
	last_scrape TIMESTAMP NOT NULL,
	filepath TEXT NOT NULL,
	url_hash TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	content_size INTEGER NOT NULL
);`

// PgStore is the production Store backed by Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

// Open connects to connString and returns a ready-to-migrate PgStore.
func Open(ctx context.Context, connString string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("metastore: connect: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

// Init creates the metadata table if it does not already exist.
func (s *PgStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableSQL)
	return err
}

// Close releases the underlying connection pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

type txKey struct{}

func (s *PgStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("metastore: begin transaction: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("metastore: rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("metastore: commit transaction: %w", err)
	}
	return nil
}

func (s *PgStore) exec(ctx context.Context, sql string, args ...any) error {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		_, err := tx.Exec(ctx, sql, args...)
		return err
	}
	_, err := s.pool.Exec(ctx, sql, args...)
	return err
}

func (s *PgStore) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

const insertMetadataSQL = `
INSERT INTO public.metadata (
	target_id, target_name, absolute_url, last_scrape,
	filepath, url_hash, content_hash, content_size
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id;`

func (s *PgStore) Save(ctx context.Context, m Metadata) (int64, error) {
	var id int64
	row := s.queryRow(ctx, insertMetadataSQL,
		m.TargetID, m.TargetName, m.AbsoluteURL, m.LastScrape,
		m.Filepath, m.URLHash, m.ContentHash, m.ContentSize,
	)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("metastore: save: %w", err)
	}
	return id, nil
}

const selectMetadataSQL = `
SELECT id, target_id, target_name, absolute_url, last_scrape,
       filepath, url_hash, content_hash, content_size
FROM public.metadata WHERE id = $1;`

func (s *PgStore) Read(ctx context.Context, id int64) (*Metadata, error) {
	row := s.queryRow(ctx, selectMetadataSQL, id)
	var m Metadata
	err := row.Scan(&m.ID, &m.TargetID, &m.TargetName, &m.AbsoluteURL, &m.LastScrape,
		&m.Filepath, &m.URLHash, &m.ContentHash, &m.ContentSize)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metastore: read: %w", err)
	}
	return &m, nil
}

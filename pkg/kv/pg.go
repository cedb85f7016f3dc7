package kv

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore keeps entries in sync.kv_entries (see cmd/dbtool migrations).
type PGStore struct {
	pool pgBeginner
}

func NewPGStore(pool pgBeginner) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var value []byte
	if err := tx.QueryRow(ctx, `
SELECT value
FROM sync.kv_entries
WHERE key = $1::text
`, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *PGStore) Put(ctx context.Context, key string, value []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO sync.kv_entries (key, value, updated_at)
VALUES ($1::text, $2::bytea, now())
ON CONFLICT (key)
DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = now()
`, key, value); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `DELETE FROM sync.kv_entries WHERE key = $1::text`, key); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

package syncruntime

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// syncLockKey is the session advisory lock every sync process competes for.
const syncLockKey int64 = 0x6572656773796e63

type lockConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
	Hijack() *pgx.Conn
}

// PGLocker holds a Postgres session advisory lock on a dedicated pool
// connection for the length of one sync operation, so syncd and the API
// server never run against the same store at once.
type PGLocker struct {
	acquire func(ctx context.Context) (lockConn, error)
	key     int64
}

func NewPGLocker(pool *pgxpool.Pool) *PGLocker {
	return &PGLocker{
		acquire: func(ctx context.Context) (lockConn, error) {
			c, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		key: syncLockKey,
	}
}

func (l *PGLocker) TryLock(ctx context.Context) (func(), bool, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1::bigint)`, l.key); err != nil {
			// The session still holds the lock; closing it is the only way to free it.
			log.Printf("sync lock unlock error: key=%d err=%v", l.key, err)
			if pc := conn.Hijack(); pc != nil {
				_ = pc.Close(ctx)
			}
			return
		}
		conn.Release()
	}, true, nil
}

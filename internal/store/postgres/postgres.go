package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"comanda/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_documents (
	bucket     TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const maxCommitAttempts = 3

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, bucket store.Bucket) ([]byte, error) {
	var document []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT document
		FROM kv_documents
		WHERE bucket = $1
	`, string(bucket)).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return document, nil
}

func (s *Store) Set(ctx context.Context, bucket store.Bucket, value []byte) error {
	return s.SetMany(ctx, map[store.Bucket][]byte{bucket: value})
}

// SetMany upserts every bucket in one serializable transaction. Conflicting
// writers are retried a bounded number of times.
func (s *Store) SetMany(ctx context.Context, entries map[store.Bucket][]byte) error {
	buckets := make([]string, 0, len(entries))
	for b := range entries {
		buckets = append(buckets, string(b))
	}
	// Fixed order keeps concurrent commits from deadlocking on row locks.
	sort.Strings(buckets)

	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err = s.setMany(ctx, buckets, entries)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		log.Printf("[store] WARN: commit conflict on %v attempt=%d: %v", buckets, attempt, err)
	}
	return err
}

func (s *Store) setMany(ctx context.Context, buckets []string, entries map[store.Bucket][]byte) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, bucket := range buckets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv_documents (bucket, document, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (bucket)
			DO UPDATE SET document = EXCLUDED.document, updated_at = now()
		`, bucket, string(entries[store.Bucket(bucket)])); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

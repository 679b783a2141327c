package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"comanda/backend/internal/store"
)

// Store keeps each bucket under "<prefix>:<bucket>".
type Store struct {
	client *goredis.Client
	prefix string
}

func New(addr string, password string, db int, prefix string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if prefix == "" {
		prefix = "comanda"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(bucket store.Bucket) string {
	return s.prefix + ":" + string(bucket)
}

func (s *Store) Get(ctx context.Context, bucket store.Bucket) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(bucket)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, bucket store.Bucket, value []byte) error {
	return s.client.Set(ctx, s.key(bucket), value, 0).Err()
}

// SetMany wraps the writes in MULTI/EXEC so they apply together.
func (s *Store) SetMany(ctx context.Context, entries map[store.Bucket][]byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for bucket, value := range entries {
			pipe.Set(ctx, s.key(bucket), value, 0)
		}
		return nil
	})
	return err
}

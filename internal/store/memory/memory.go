package memory

import (
	"context"
	"log"
	"slices"
	"sync"

	"comanda/backend/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	buckets map[store.Bucket][]byte
}

func New() *Store {
	return &Store{buckets: make(map[store.Bucket][]byte)}
}

// NewSeeded returns a store preloaded with the demo catalog.
func NewSeeded() *Store {
	s := New()
	if err := store.NewRepository(s).Seed(context.Background(), store.SeedState()); err != nil {
		log.Fatalf("[memory-store] failed to seed catalog: %v", err)
	}
	return s
}

func (s *Store) Get(_ context.Context, bucket store.Bucket) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.buckets[bucket]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *Store) Set(_ context.Context, bucket store.Bucket, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets[bucket] = slices.Clone(value)
	return nil
}

// SetMany applies every entry under one lock, so readers never observe a
// half-applied commit.
func (s *Store) SetMany(_ context.Context, entries map[store.Bucket][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for bucket, value := range entries {
		s.buckets[bucket] = slices.Clone(value)
	}
	return nil
}

// Snapshot copies every bucket. It backs export and tests.
func (s *Store) Snapshot() map[store.Bucket][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[store.Bucket][]byte, len(s.buckets))
	for bucket, value := range s.buckets {
		out[bucket] = slices.Clone(value)
	}
	return out
}

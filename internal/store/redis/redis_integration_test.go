package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"comanda/backend/internal/store"
)

func TestSetManyAndGet(t *testing.T) {
	addr := os.Getenv("COMANDA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set COMANDA_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("comanda-it-%d", time.Now().UnixNano())
	s := New(addr, "", 0, prefix)
	t.Cleanup(func() {
		for _, b := range append(store.StateBuckets, store.SessionBuckets...) {
			_ = s.client.Del(ctx, s.key(b)).Err()
		}
		_ = s.Close()
	})
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if _, err := s.Get(ctx, store.BucketOrders); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err := s.SetMany(ctx, map[store.Bucket][]byte{
		store.BucketOrders: []byte(`[]`),
		store.BucketShifts: []byte(`[{"id":"shift-it","status":"OPEN"}]`),
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	got, err := s.Get(ctx, store.BucketShifts)
	if err != nil || string(got) != `[{"id":"shift-it","status":"OPEN"}]` {
		t.Fatalf("unexpected shifts %q err=%v", got, err)
	}
}

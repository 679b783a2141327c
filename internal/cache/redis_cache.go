package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"comanda/backend/internal/reporting"
)

// summaryKeyVersion is bumped whenever reporting.ShiftSummary changes shape,
// so entries written by an older build are never decoded.
const summaryKeyVersion = "v1"

// MaxSummaryTTL caps how long a summary lives in redis. A non-positive ttl
// also gets this value; redis keys written here always expire.
const MaxSummaryTTL = 7 * 24 * time.Hour

// RedisSummaryCache shares closed-shift summaries between server instances.
type RedisSummaryCache struct {
	client *redis.Client
	prefix string
}

func NewRedisSummaryCache(addr string, password string, db int, prefix string) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSummaryCache{client: client, prefix: prefix}
}

func (c *RedisSummaryCache) key(shiftID string) string {
	return summaryKey(c.prefix, shiftID)
}

func summaryKey(prefix, shiftID string) string {
	if prefix == "" {
		prefix = "comanda"
	}
	return prefix + ":shift-summary:" + summaryKeyVersion + ":" + shiftID
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > MaxSummaryTTL {
		return MaxSummaryTTL
	}
	return ttl
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// Get reports a miss for absent keys. An entry that no longer decodes is
// dropped and also reported as a miss, so the caller rebuilds it.
func (c *RedisSummaryCache) Get(ctx context.Context, shiftID string) (*reporting.ShiftSummary, bool, error) {
	key := c.key(shiftID)
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary reporting.ShiftSummary
	if err := json.Unmarshal(val, &summary); err != nil {
		log.Printf("[cache] WARN dropping undecodable summary %s: %v", key, err)
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, nil
	}
	return &summary, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, shiftID string, value *reporting.ShiftSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(shiftID), payload, clampTTL(ttl)).Err()
}

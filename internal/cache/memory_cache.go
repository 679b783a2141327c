package cache

import (
	"context"
	"sync"
	"time"

	"comanda/backend/internal/reporting"
)

type memoryEntry struct {
	summary   reporting.ShiftSummary
	expiresAt time.Time
}

// MemorySummaryCache is the in-process cache used when redis is not
// configured.
type MemorySummaryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySummaryCache() *MemorySummaryCache {
	return &MemorySummaryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemorySummaryCache) Get(_ context.Context, shiftID string) (*reporting.ShiftSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[shiftID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, shiftID)
		return nil, false, nil
	}
	summary := entry.summary
	return &summary, true, nil
}

func (c *MemorySummaryCache) Set(_ context.Context, shiftID string, value *reporting.ShiftSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{summary: *value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[shiftID] = entry
	return nil
}

package cache

import (
	"context"
	"time"

	"comanda/backend/internal/reporting"
)

// SummaryCache holds end-of-day summaries of closed shifts. A closed shift
// never changes, so entries only expire to bound memory.
type SummaryCache interface {
	Get(ctx context.Context, shiftID string) (*reporting.ShiftSummary, bool, error)
	Set(ctx context.Context, shiftID string, value *reporting.ShiftSummary, ttl time.Duration) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*reporting.ShiftSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *reporting.ShiftSummary, _ time.Duration) error {
	return nil
}

package xid

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Sequence hands out order numbers derived from the clock. Values are
// strictly increasing within one process even when two orders land in the
// same millisecond.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

func (s *Sequence) Next(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := now.UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe raises the floor so ids already persisted are never reissued.
func (s *Sequence) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}

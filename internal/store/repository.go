package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"comanda/backend/internal/domain"
)

// State is the decoded content of every state bucket. Commands mutate it in
// place and mark what they touched; Commit writes only marked buckets.
type State struct {
	Orders       []domain.Order
	Inventory    []domain.InventoryItem
	MenuItems    []domain.MenuItem
	Categories   []domain.Category
	Waiters      []domain.Waiter
	Transactions []domain.Transaction
	Shifts       []domain.ShiftReport
	HeldOrders   []domain.HeldOrder

	dirty map[Bucket]bool
}

func (s *State) Mark(buckets ...Bucket) {
	if s.dirty == nil {
		s.dirty = make(map[Bucket]bool)
	}
	for _, b := range buckets {
		s.dirty[b] = true
	}
}

func (s *State) Dirty() []Bucket {
	out := make([]Bucket, 0, len(s.dirty))
	for _, b := range StateBuckets {
		if s.dirty[b] {
			out = append(out, b)
		}
	}
	return out
}

func (s *State) target(b Bucket) any {
	switch b {
	case BucketOrders:
		return &s.Orders
	case BucketInventory:
		return &s.Inventory
	case BucketMenuItems:
		return &s.MenuItems
	case BucketCategories:
		return &s.Categories
	case BucketWaiters:
		return &s.Waiters
	case BucketTransactions:
		return &s.Transactions
	case BucketShifts:
		return &s.Shifts
	case BucketHeldOrders:
		return &s.HeldOrders
	default:
		return nil
	}
}

type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// Load decodes every state bucket. Missing buckets decode as empty lists.
func (r *Repository) Load(ctx context.Context) (*State, error) {
	state := &State{}
	for _, b := range StateBuckets {
		if err := r.get(ctx, b, state.target(b)); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// Commit writes the marked buckets in one atomic SetMany.
func (r *Repository) Commit(ctx context.Context, state *State) error {
	dirty := state.Dirty()
	if len(dirty) == 0 {
		return nil
	}
	entries := make(map[Bucket][]byte, len(dirty))
	for _, b := range dirty {
		payload, err := json.Marshal(state.target(b))
		if err != nil {
			return fmt.Errorf("encode %s: %w", b, err)
		}
		entries[b] = payload
	}
	if err := r.kv.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("commit %v: %w", dirty, err)
	}
	state.dirty = nil
	return nil
}

func (r *Repository) LoadSession(ctx context.Context) (domain.Session, error) {
	var session domain.Session
	if err := r.get(ctx, BucketCurrentWaiterID, &session.WaiterID); err != nil {
		return domain.Session{}, err
	}
	if err := r.get(ctx, BucketCurrentTable, &session.Table); err != nil {
		return domain.Session{}, err
	}
	if err := r.get(ctx, BucketCurrentUserRole, &session.Role); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *Repository) SaveSession(ctx context.Context, session domain.Session) error {
	entries := make(map[Bucket][]byte, 3)
	for b, v := range map[Bucket]any{
		BucketCurrentWaiterID: nullable(session.WaiterID),
		BucketCurrentTable:    session.Table,
		BucketCurrentUserRole: nullable(string(session.Role)),
	} {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b, err)
		}
		entries[b] = payload
	}
	return r.kv.SetMany(ctx, entries)
}

// Seed writes initial catalog data for buckets that are still empty.
func (r *Repository) Seed(ctx context.Context, seed *State) error {
	entries := make(map[Bucket][]byte)
	for _, b := range StateBuckets {
		_, err := r.kv.Get(ctx, b)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		payload, err := json.Marshal(seed.target(b))
		if err != nil {
			return fmt.Errorf("encode %s: %w", b, err)
		}
		entries[b] = payload
	}
	if len(entries) == 0 {
		return nil
	}
	return r.kv.SetMany(ctx, entries)
}

func (r *Repository) get(ctx context.Context, b Bucket, dst any) error {
	raw, err := r.kv.Get(ctx, b)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", b, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, b, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

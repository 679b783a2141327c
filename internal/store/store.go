package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDocument = errors.New("invalid document")
)

// Bucket is a top-level key in the persisted state. Each bucket holds one
// JSON document.
type Bucket string

const (
	BucketOrders          Bucket = "orders"
	BucketInventory       Bucket = "inventory"
	BucketMenuItems       Bucket = "menuItems"
	BucketCategories      Bucket = "categories"
	BucketWaiters         Bucket = "waiters"
	BucketTransactions    Bucket = "transactions"
	BucketShifts          Bucket = "shifts"
	BucketHeldOrders      Bucket = "heldOrders"
	BucketCurrentWaiterID Bucket = "currentWaiterId"
	BucketCurrentTable    Bucket = "currentTable"
	BucketCurrentUserRole Bucket = "currentUserRole"
)

// StateBuckets are the buckets loaded for every command.
var StateBuckets = []Bucket{
	BucketOrders,
	BucketInventory,
	BucketMenuItems,
	BucketCategories,
	BucketWaiters,
	BucketTransactions,
	BucketShifts,
	BucketHeldOrders,
}

var SessionBuckets = []Bucket{
	BucketCurrentWaiterID,
	BucketCurrentTable,
	BucketCurrentUserRole,
}

// KV is the persistence substrate: a flat mapping from bucket to document.
// SetMany must apply all entries or none.
type KV interface {
	Get(ctx context.Context, bucket Bucket) ([]byte, error)
	Set(ctx context.Context, bucket Bucket, value []byte) error
	SetMany(ctx context.Context, entries map[Bucket][]byte) error
}

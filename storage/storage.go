package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/webpiratt/autoswap/internal/types"
)

// OrderStore owns the persisted order lists, one file per category. Absent
// files read as empty lists; reads and writes are not protected against
// concurrent runs of the same category (last writer wins).
type OrderStore interface {
	LoadPendingSwaps(ctx context.Context) ([]types.ScheduledSwapOrder, error)
	SavePendingSwaps(ctx context.Context, orders []types.ScheduledSwapOrder) error
	RemovePendingSwap(ctx context.Context, id uuid.UUID) error
	LoadExecutedSwaps(ctx context.Context) ([]types.ExecutedOrderRecord, error)
	AppendExecutedSwaps(ctx context.Context, records ...types.ExecutedOrderRecord) error

	LoadPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error)
	SavePendingLimitOrders(ctx context.Context, orders []types.LimitOrder) error
	RemovePendingLimitOrder(ctx context.Context, id uuid.UUID) error
	LoadExecutedLimitOrders(ctx context.Context) ([]types.ExecutedOrderRecord, error)
	AppendExecutedLimitOrders(ctx context.Context, records ...types.ExecutedOrderRecord) error

	LoadDCAOrders(ctx context.Context) ([]types.DCAOrder, error)
	SaveDCAOrders(ctx context.Context, orders []types.DCAOrder) error
	RemoveDCAOrder(ctx context.Context, id uuid.UUID) error
	AppendDCAExecution(ctx context.Context, id uuid.UUID, exec types.DCAExecution) error
}

// Cache is a small shared key/value cache with expiry, used for the
// supported-token list. Implementations may be process-local or remote.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiry time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IOError wraps a persistence fault other than "file absent". It aborts the
// current run for the affected category.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CorruptStoreError means the category file exists but does not parse as the
// expected record list. The file is the source of truth, so this is left for
// operator remediation.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt store file %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

// NotFoundError is returned by removals and targeted updates when no record
// with the given ID exists.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.ID)
}

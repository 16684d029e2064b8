// Package filestore persists each order category as one human-readable JSON
// file. A missing file is first-run behavior and reads as an empty list.
// Writes are plain truncate-and-rewrite; overlapping runs of the same
// category are not locked against each other, so the last writer wins.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

const (
	pendingSwapsFile        = "scheduled_swaps.json"
	executedSwapsFile       = "executed_swaps.json"
	pendingLimitOrdersFile  = "limit_orders.json"
	executedLimitOrdersFile = "executed_limit_orders.json"
	dcaOrdersFile           = "dca_orders.json"
)

type Store struct {
	dir string
}

var _ storage.OrderStore = (*Store)(nil)

// New creates a file-backed order store rooted at dir, creating the
// directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &storage.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir}, nil
}

func readList[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, &storage.IOError{Op: "read", Path: path, Err: err}
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &storage.CorruptStoreError{Path: path, Err: err}
	}
	return list, nil
}

func writeList[T any](path string, list []T) error {
	if list == nil {
		list = []T{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return &storage.IOError{Op: "marshal", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &storage.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) LoadPendingSwaps(ctx context.Context) ([]types.ScheduledSwapOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readList[types.ScheduledSwapOrder](s.path(pendingSwapsFile))
}

func (s *Store) SavePendingSwaps(ctx context.Context, orders []types.ScheduledSwapOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeList(s.path(pendingSwapsFile), orders)
}

func (s *Store) RemovePendingSwap(ctx context.Context, id uuid.UUID) error {
	orders, err := s.LoadPendingSwaps(ctx)
	if err != nil {
		return err
	}
	kept, removed := removeByID(orders, id, func(o types.ScheduledSwapOrder) uuid.UUID { return o.ID })
	if !removed {
		return &storage.NotFoundError{ID: id}
	}
	return writeList(s.path(pendingSwapsFile), kept)
}

func (s *Store) LoadExecutedSwaps(ctx context.Context) ([]types.ExecutedOrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readList[types.ExecutedOrderRecord](s.path(executedSwapsFile))
}

func (s *Store) AppendExecutedSwaps(ctx context.Context, records ...types.ExecutedOrderRecord) error {
	return s.appendExecuted(ctx, executedSwapsFile, records)
}

func (s *Store) LoadPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readList[types.LimitOrder](s.path(pendingLimitOrdersFile))
}

func (s *Store) SavePendingLimitOrders(ctx context.Context, orders []types.LimitOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeList(s.path(pendingLimitOrdersFile), orders)
}

func (s *Store) RemovePendingLimitOrder(ctx context.Context, id uuid.UUID) error {
	orders, err := s.LoadPendingLimitOrders(ctx)
	if err != nil {
		return err
	}
	kept, removed := removeByID(orders, id, func(o types.LimitOrder) uuid.UUID { return o.ID })
	if !removed {
		return &storage.NotFoundError{ID: id}
	}
	return writeList(s.path(pendingLimitOrdersFile), kept)
}

func (s *Store) LoadExecutedLimitOrders(ctx context.Context) ([]types.ExecutedOrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readList[types.ExecutedOrderRecord](s.path(executedLimitOrdersFile))
}

func (s *Store) AppendExecutedLimitOrders(ctx context.Context, records ...types.ExecutedOrderRecord) error {
	return s.appendExecuted(ctx, executedLimitOrdersFile, records)
}

func (s *Store) LoadDCAOrders(ctx context.Context) ([]types.DCAOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readList[types.DCAOrder](s.path(dcaOrdersFile))
}

func (s *Store) SaveDCAOrders(ctx context.Context, orders []types.DCAOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeList(s.path(dcaOrdersFile), orders)
}

func (s *Store) RemoveDCAOrder(ctx context.Context, id uuid.UUID) error {
	orders, err := s.LoadDCAOrders(ctx)
	if err != nil {
		return err
	}
	kept, removed := removeByID(orders, id, func(o types.DCAOrder) uuid.UUID { return o.ID })
	if !removed {
		return &storage.NotFoundError{ID: id}
	}
	return writeList(s.path(dcaOrdersFile), kept)
}

// AppendDCAExecution adds one history entry to the identified order and
// rewrites the category file. Duplicate calendar dates are rejected so the
// once-per-period invariant holds even if a run races a retry.
func (s *Store) AppendDCAExecution(ctx context.Context, id uuid.UUID, exec types.DCAExecution) error {
	orders, err := s.LoadDCAOrders(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		if orders[i].ExecutedOn(exec.Date) {
			return fmt.Errorf("dca order %s already executed on %s", id, exec.Date)
		}
		orders[i].Executed = append(orders[i].Executed, exec)
		return writeList(s.path(dcaOrdersFile), orders)
	}
	return &storage.NotFoundError{ID: id}
}

func (s *Store) appendExecuted(ctx context.Context, file string, records []types.ExecutedOrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	existing, err := readList[types.ExecutedOrderRecord](s.path(file))
	if err != nil {
		return err
	}
	return writeList(s.path(file), append(existing, records...))
}

func removeByID[T any](list []T, id uuid.UUID, idOf func(T) uuid.UUID) ([]T, bool) {
	kept := make([]T, 0, len(list))
	removed := false
	for _, item := range list {
		if !removed && idOf(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}

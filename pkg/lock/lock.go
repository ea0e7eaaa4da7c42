// Package lock provides the advisory per-step execution lock. The lock
// keeps two runners from executing the same step concurrently; it is not
// a correctness guarantee, only a guard against duplicate AI spend.
package lock

import (
	"context"
	"errors"
)

// ErrLocked is returned when another holder currently owns the lock.
var ErrLocked = errors.New("step is locked by another execution")

// Locker acquires and releases named advisory locks.
type Locker interface {
	// Acquire takes the lock for the given key or returns ErrLocked.
	// The returned release function is safe to call once.
	Acquire(ctx context.Context, key string) (release func(ctx context.Context) error, err error)
}

// Noop is a Locker that always grants the lock. Used with the file
// persistence backend where a single process owns the store.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Acquire(_ context.Context, _ string) (func(ctx context.Context) error, error) {
	return func(_ context.Context) error { return nil }, nil
}

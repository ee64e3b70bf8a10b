package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/opentabletop/gunslinger/internal/domain"
)

const DefaultLockTimeout = 30 * time.Second

// ExclusionLock is a mutex with a bounded wait. Acquisition failures surface
// domain.ErrLockContention instead of blocking forever; the caller must let
// the operator retry rather than retrying internally.
//
// The core uses two locks, acquired in a fixed global order to prevent
// deadlock: the status lock first, then the result lock.
type ExclusionLock struct {
	name    string
	ch      chan struct{}
	timeout time.Duration
}

func NewExclusionLock(name string, timeout time.Duration) *ExclusionLock {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	return &ExclusionLock{
		name:    name,
		ch:      ch,
		timeout: timeout,
	}
}

// Acquire blocks until the lock is held, the timeout elapses or ctx is done.
// On success it returns a release function which must be called exactly once.
func (l *ExclusionLock) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case <-l.ch:
		return func() { l.ch <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s lock: %v", domain.ErrLockContention, l.name, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s lock not acquired within %s", domain.ErrLockContention, l.name, l.timeout)
	}
}

// TryAcquire acquires the lock only if it is immediately available.
func (l *ExclusionLock) TryAcquire() (func(), bool) {
	select {
	case <-l.ch:
		return func() { l.ch <- struct{}{} }, true
	default:
		return nil, false
	}
}

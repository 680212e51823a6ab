package ratelimiting

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// ErrDeadlineTooClose is returned when waiting for a free slot and running the
// operation could not finish before the context deadline
var ErrDeadlineTooClose = errors.New("deadline too close to wait for rate limit")

// WindowLimiter allows at most limit operations to finish within any window,
// counted from when each operation finished
type WindowLimiter struct {
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	slots chan struct{}

	mutex sync.Mutex
	// Sorted ascending, always holds one entry per free slot
	finished []time.Time
}

func NewWindowLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *WindowLimiter {
	if limit < 1 {
		limit = 1
	}

	slots := make(chan struct{}, limit)
	finished := make([]time.Time, limit)
	longAgo := nowFunc().Add(-window)
	for i := range limit {
		slots <- struct{}{}
		finished[i] = longAgo
	}

	return &WindowLimiter{
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,
		slots:     slots,
		finished:  finished,
	}
}

// Do waits for a free slot and runs operation.
//
// If ctx has a deadline that would pass before the wait plus maxOperationTime,
// Do returns ErrDeadlineTooClose without waiting.
func (l *WindowLimiter) Do(ctx context.Context, maxOperationTime time.Duration, operation func(ctx context.Context) error) error {
	select {
	case <-l.slots:
		defer func() {
			l.slots <- struct{}{}
		}()
	case <-ctx.Done():
		return ctx.Err()
	}

	oldest, wait, err := l.takeOldest(ctx, maxOperationTime)
	if err != nil {
		return err
	}

	// Put back the entry we took if the operation never runs
	finishedAt := oldest
	defer func() {
		l.putFinished(finishedAt)
	}()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.afterFunc(wait):
		}
	}

	err = operation(ctx)
	finishedAt = l.nowFunc()
	return err
}

func (l *WindowLimiter) takeOldest(ctx context.Context, maxOperationTime time.Duration) (time.Time, time.Duration, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.nowFunc()
	oldest := l.finished[0]
	wait := l.window - now.Sub(oldest)

	if deadline, ok := ctx.Deadline(); ok && max(wait, 0)+maxOperationTime > deadline.Sub(now) {
		return time.Time{}, 0, ErrDeadlineTooClose
	}

	l.finished = l.finished[1:]
	return oldest, wait, nil
}

func (l *WindowLimiter) putFinished(finishedAt time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	i, _ := slices.BinarySearchFunc(l.finished, finishedAt, func(a, b time.Time) int {
		return a.Compare(b)
	})
	l.finished = slices.Insert(l.finished, i, finishedAt)
}

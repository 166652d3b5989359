// Package clock abstracts wall-clock and monotonic time so that every
// timestamp in the kernel flows through one injectable source.
package clock

import (
	"sync"
	"time"
)

// Clock supplies wall-clock timestamps and a process-local monotonic counter.
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
	// MonotonicTicks returns nanoseconds elapsed on a monotonic source.
	// Ticks are only comparable within one process.
	MonotonicTicks() int64
}

var processEpoch = time.Now()

// System is the real clock backed by the Go runtime.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) MonotonicTicks() int64 { return int64(time.Since(processEpoch)) }

// Fake is a manually advanced clock for tests. The zero value is not usable;
// create it with NewFake.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	ticks int64
}

// NewFake creates a Fake clock pinned to the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) MonotonicTicks() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

// Advance moves both the wall clock and the monotonic counter forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.ticks += int64(d)
}

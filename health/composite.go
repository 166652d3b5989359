package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/studio-grid/kernel/clock"
	"github.com/studio-grid/kernel/observability"
)

// DefaultCheckTimeout is the per-check timeout applied when none is
// configured. It prevents one slow subsystem from blocking health probes
// indefinitely.
const DefaultCheckTimeout = 5 * time.Second

// Check reports the health of one monitored subsystem. A returned error is a
// check fault: the composite downgrades it to an Unhealthy result and never
// propagates it to the probe caller. Implementations must honor ctx
// cancellation.
type Check interface {
	Name() string
	Check(ctx context.Context) (Status, error)
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) (Status, error)
}

func (c CheckFunc) Name() string { return c.CheckName }

func (c CheckFunc) Check(ctx context.Context) (Status, error) {
	return c.Fn(ctx)
}

// Aggregate is the reduced result of running every registered check.
type Aggregate struct {
	Status  Status   `json:"status"`
	Results []Result `json:"checks"`
}

// Composite runs registered checks concurrently and reduces their results to
// one worst-of-N status. Safe for concurrent use once construction and
// registration are complete.
type Composite struct {
	mu       sync.RWMutex
	checks   []Check
	timeout  time.Duration
	clk      clock.Clock
	observer observability.Observer
}

// CompositeOption configures a Composite at construction time.
type CompositeOption func(*Composite)

// WithCheckTimeout overrides the per-check timeout.
func WithCheckTimeout(d time.Duration) CompositeOption {
	return func(c *Composite) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(clk clock.Clock) CompositeOption {
	return func(c *Composite) { c.clk = clk }
}

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) CompositeOption {
	return func(c *Composite) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewComposite creates a Composite with the given checks. More checks can be
// added with Register before the composite is first queried.
func NewComposite(checks []Check, opts ...CompositeOption) *Composite {
	c := &Composite{
		checks:   append([]Check(nil), checks...),
		timeout:  DefaultCheckTimeout,
		clk:      clock.System{},
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a check to the composite.
func (c *Composite) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

// Check runs every registered check concurrently, each with an independent
// timeout, and reduces the results worst-of-N: Unhealthy if any result is
// Unhealthy, else Degraded if any is Degraded, else Healthy.
//
// A check that returns an error, times out, or panics contributes an
// Unhealthy result with the reason recorded; faults are never raised to the
// caller. An empty check set aggregates to Healthy by convention.
func (c *Composite) Check(ctx context.Context) Aggregate {
	c.mu.RLock()
	checks := c.checks
	c.mu.RUnlock()

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventAggregateStart,
		Level:     observability.LevelVerbose,
		Timestamp: c.clk.Now(),
		Source:    "health.Composite",
		Data:      map[string]any{"checks": len(checks)},
	})

	results := make([]Result, len(checks))
	var wg sync.WaitGroup

	for i, check := range checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			results[i] = c.runCheck(ctx, check)
		}(i, check)
	}
	wg.Wait()

	agg := Aggregate{Results: results}
	for _, r := range results {
		if r.Status > agg.Status {
			agg.Status = r.Status
		}
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventAggregateComplete,
		Level:     observability.LevelVerbose,
		Timestamp: c.clk.Now(),
		Source:    "health.Composite",
		Data: map[string]any{
			"checks": len(checks),
			"status": agg.Status.String(),
		},
	})

	return agg
}

type checkOutcome struct {
	status Status
	err    error
}

// runCheck executes one check under its own timeout. The check runs in a
// separate goroutine so that an implementation ignoring ctx still yields a
// timed-out Unhealthy result instead of stalling the aggregate.
func (c *Composite) runCheck(ctx context.Context, check Check) Result {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan checkOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- checkOutcome{err: fmt.Errorf("check panicked: %v", r)}
			}
		}()
		status, err := check.Check(checkCtx)
		done <- checkOutcome{status: status, err: err}
	}()

	result := Result{Source: check.Name()}

	select {
	case out := <-done:
		if out.err != nil {
			result.Status = Unhealthy
			result.Detail = out.err.Error()
		} else {
			result.Status = out.status
		}
	case <-checkCtx.Done():
		result.Status = Unhealthy
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			result.Detail = fmt.Sprintf("check timed out after %s", c.timeout)
		} else {
			result.Detail = "check cancelled"
		}
	}
	result.ObservedAt = c.clk.Now()

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventCheckComplete,
		Level:     observability.LevelVerbose,
		Timestamp: result.ObservedAt,
		Source:    "health.Composite",
		Data: map[string]any{
			"check":  check.Name(),
			"status": result.Status.String(),
			"detail": result.Detail,
		},
	})

	return result
}

package gridctx

import (
	"context"
	"errors"
	"time"

	"github.com/studio-grid/kernel/clock"
)

// Outcome classifies how an operation ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Operation records timing and outcome for one logical operation nested
// under a GridContext. An Operation is exclusively owned by the call path
// that created it and must not be shared for writing.
type Operation struct {
	// OperationID is the causation leaf minted for this operation.
	OperationID ID
	// Grid is the derived GridContext the operation runs under.
	Grid GridContext
	// StartedAt is the wall-clock start time.
	StartedAt time.Time

	clk        clock.Clock
	startTicks int64
	endedAt    time.Time
	outcome    Outcome
	done       bool
}

// BeginOperation opens a new operation under the ambient GridContext of ctx,
// deriving a child context with a fresh causation leaf and returning a
// context carrying that child for the duration of the operation.
//
// When no GridContext is ambient, a root is minted first, so the causation
// chain of an open operation is never empty. Returns ErrChainTooDeep when
// derivation would exceed the chain depth limit; the ambient context is left
// unmodified in that case.
func BeginOperation(ctx context.Context, clk clock.Clock, gen IDGenerator) (*Operation, context.Context, error) {
	parent, ok := Current(ctx)
	if !ok || parent.IsZero() {
		parent = New(gen)
	}

	child, err := parent.DeriveChild(gen)
	if err != nil {
		return nil, ctx, err
	}

	op := &Operation{
		OperationID: child.LeafID(),
		Grid:        child,
		StartedAt:   clk.Now(),
		clk:         clk,
		startTicks:  clk.MonotonicTicks(),
		outcome:     OutcomePending,
	}
	return op, Activate(ctx, child), nil
}

// Complete records the operation's end time and outcome. Only the first call
// has effect; an Operation is mutated exactly once.
func (op *Operation) Complete(outcome Outcome) {
	if op.done {
		return
	}
	op.done = true
	op.endedAt = op.clk.Now()
	op.outcome = outcome
}

// CompleteWith maps err to an outcome: nil to Succeeded, context
// cancellation or deadline to Cancelled, anything else to Failed.
func (op *Operation) CompleteWith(err error) {
	switch {
	case err == nil:
		op.Complete(OutcomeSucceeded)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		op.Complete(OutcomeCancelled)
	default:
		op.Complete(OutcomeFailed)
	}
}

// Outcome returns the recorded outcome, OutcomePending while the operation
// is still open.
func (op *Operation) Outcome() Outcome {
	return op.outcome
}

// EndedAt returns the recorded end time, zero while the operation is open.
func (op *Operation) EndedAt() time.Time {
	return op.endedAt
}

// Duration returns the monotonic elapsed time of the operation: up to now
// while open, frozen at completion once closed.
func (op *Operation) Duration() time.Duration {
	if op.done {
		return op.endedAt.Sub(op.StartedAt)
	}
	return time.Duration(op.clk.MonotonicTicks() - op.startTicks)
}

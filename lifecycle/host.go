package lifecycle

import (
	"context"

	"github.com/studio-grid/kernel/clock"
	"github.com/studio-grid/kernel/health"
)

// Host is the long-lived wrapper external probes talk to. It pairs a Manager
// with the node's health checks and answers liveness and readiness queries
// with structured statuses - Host methods never return errors.
type Host struct {
	manager   *Manager
	composite *health.Composite
	clk       clock.Clock
}

// NewHost wraps manager and composite. The composite may already hold
// checks; more can be added via RegisterCheck before probing begins.
func NewHost(manager *Manager, composite *health.Composite, clk clock.Clock) *Host {
	if clk == nil {
		clk = clock.System{}
	}
	return &Host{manager: manager, composite: composite, clk: clk}
}

// Manager returns the wrapped lifecycle manager.
func (h *Host) Manager() *Manager {
	return h.manager
}

// RegisterCheck adds a health check to the node's composite.
func (h *Host) RegisterCheck(check health.Check) {
	h.composite.Register(check)
}

// Phase returns the current lifecycle phase.
func (h *Host) Phase() Phase {
	return h.manager.Phase()
}

// Liveness reports Healthy iff the node is Running, Unhealthy otherwise.
// The current phase is recorded as the result detail.
func (h *Host) Liveness() health.Result {
	phase := h.manager.Phase()
	status := health.Unhealthy
	if phase == Running {
		status = health.Healthy
	}
	return health.Result{
		Source:     "lifecycle",
		Status:     status,
		Detail:     "phase: " + phase.String(),
		ObservedAt: h.clk.Now(),
	}
}

// Readiness delegates to the composite health check, but forces Unhealthy
// whenever the node is not Running, regardless of individual check results -
// a node that is starting or stopping must not receive new work.
func (h *Host) Readiness(ctx context.Context) health.Aggregate {
	phase := h.manager.Phase()
	if phase != Running {
		return health.Aggregate{
			Status: health.Unhealthy,
			Results: []health.Result{{
				Source:     "lifecycle",
				Status:     health.Unhealthy,
				Detail:     "node not running, phase: " + phase.String(),
				ObservedAt: h.clk.Now(),
			}},
		}
	}
	return h.composite.Check(ctx)
}

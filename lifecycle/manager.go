package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studio-grid/kernel/clock"
	"github.com/studio-grid/kernel/observability"
)

// Manager sequences startup and shutdown hooks through the lifecycle state
// machine:
//
//	NotStarted → Starting → Running → Stopping → Stopped
//
// plus the terminal Faulted state reached when a startup hook fails or a
// sweep is cancelled. Startup hooks run strictly sequentially in ascending
// Order; shutdown hooks run in descending Order, best-effort. A failed
// startup hook triggers a synchronous rollback: the shutdown counterparts of
// the already-succeeded startup hooks run in reverse, and failures during
// rollback are recorded without stopping the sweep.
//
// Start and Stop are mutually exclusive; Phase may be read concurrently at
// any time. Redundant lifecycle signals (Start when already started, Stop
// when already stopped) are no-ops reporting the current phase, so a host
// can deliver duplicate signals harmlessly.
type Manager struct {
	mu    sync.Mutex
	phase atomic.Int32

	hooks  []Hook
	frozen bool

	// succeededStartup tracks which startup hooks completed and still owe a
	// shutdown counterpart; rollback and Stop consume entries via ranShutdown.
	succeededStartup map[string]bool
	ranShutdown      map[string]bool

	observer observability.Observer
	clk      clock.Clock
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(clk clock.Clock) ManagerOption {
	return func(m *Manager) { m.clk = clk }
}

// NewManager creates a Manager in the NotStarted phase with no hooks.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		succeededStartup: make(map[string]bool),
		ranShutdown:      make(map[string]bool),
		observer:         observability.NoOpObserver{},
		clk:              clock.System{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a hook. Registration is only legal before the first Start;
// afterwards the hook set is immutable.
func (m *Manager) Register(h Hook) error {
	if h.Name == "" {
		return fmt.Errorf("hook name cannot be empty")
	}
	if h.Action == nil {
		return fmt.Errorf("hook %q has no action", h.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return fmt.Errorf("cannot register hook %q: lifecycle already started", h.Name)
	}
	m.hooks = append(m.hooks, h)
	return nil
}

// Phase returns the current lifecycle phase. Safe to call concurrently with
// Start and Stop.
func (m *Manager) Phase() Phase {
	return Phase(m.phase.Load())
}

func (m *Manager) setPhase(ctx context.Context, p Phase, event observability.EventType, data map[string]any) {
	m.phase.Store(int32(p))

	if data == nil {
		data = map[string]any{}
	}
	data["phase"] = p.String()

	level := observability.LevelInfo
	if p == Faulted {
		level = observability.LevelError
	}
	m.observer.OnEvent(ctx, observability.Event{
		Type:      event,
		Level:     level,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data:      data,
	})
}

// Start executes all startup hooks in ascending Order (ties broken by
// registration order), strictly sequentially. On success the manager ends in
// Running. If a hook fails or cancellation is observed at a hook boundary,
// the manager rolls back the already-succeeded hooks in descending order and
// ends in Faulted; Start is not retried automatically.
//
// Calling Start from any phase other than NotStarted is a no-op reporting
// the current phase.
func (m *Manager) Start(ctx context.Context) (Phase, []HookFailure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.Phase(); p != NotStarted {
		m.noop(ctx, "start", p)
		return p, nil
	}
	m.frozen = true

	startup := m.sortedStartup()
	m.setPhase(ctx, Starting, EventStartBegin, map[string]any{"hooks": len(startup)})

	var failures []HookFailure
	var succeeded []Hook

	for _, h := range startup {
		if err := ctx.Err(); err != nil {
			failures = append(failures, HookFailure{
				Hook:  h.Name,
				Phase: StartupPhase,
				Err:   fmt.Errorf("cancelled before hook started: %w", err),
			})
			failures = append(failures, m.rollback(ctx, succeeded)...)
			m.setPhase(ctx, Faulted, EventFaulted, map[string]any{"failures": len(failures)})
			return Faulted, failures
		}

		if err := m.runHook(ctx, h); err != nil {
			failures = append(failures, HookFailure{Hook: h.Name, Phase: StartupPhase, Err: err})
			failures = append(failures, m.rollback(ctx, succeeded)...)
			m.setPhase(ctx, Faulted, EventFaulted, map[string]any{"failures": len(failures)})
			return Faulted, failures
		}

		succeeded = append(succeeded, h)
		m.succeededStartup[h.Name] = true
	}

	m.setPhase(ctx, Running, EventRunning, map[string]any{"hooks": len(startup)})
	return Running, nil
}

// Stop executes shutdown hooks in descending Order, sequentially and
// best-effort: a failing hook is recorded and the sweep continues. Legal
// from Running and Faulted; from Faulted, hooks already consumed by startup
// rollback are not run again, and shutdown hooks whose startup counterpart
// never succeeded are skipped. Ends in Stopped, or Faulted when
// cancellation interrupts the sweep.
//
// Calling Stop from NotStarted, Starting, Stopping, or Stopped is a no-op
// reporting the current phase.
func (m *Manager) Stop(ctx context.Context) (Phase, []HookFailure) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.Phase()
	if p != Running && p != Faulted {
		m.noop(ctx, "stop", p)
		return p, nil
	}

	shutdown := m.sortedShutdown()
	m.setPhase(ctx, Stopping, EventStopBegin, map[string]any{"hooks": len(shutdown)})

	var failures []HookFailure

	for _, h := range shutdown {
		if m.ranShutdown[h.Name] {
			continue
		}
		if m.hasStartupHook(h.Name) && !m.succeededStartup[h.Name] {
			continue
		}

		if err := ctx.Err(); err != nil {
			failures = append(failures, HookFailure{
				Hook:  h.Name,
				Phase: ShutdownPhase,
				Err:   fmt.Errorf("cancelled before hook started: %w", err),
			})
			m.setPhase(ctx, Faulted, EventFaulted, map[string]any{"failures": len(failures)})
			return Faulted, failures
		}

		m.ranShutdown[h.Name] = true
		if err := m.runHook(ctx, h); err != nil {
			failures = append(failures, HookFailure{Hook: h.Name, Phase: ShutdownPhase, Err: err})
		}
	}

	m.setPhase(ctx, Stopped, EventStopped, map[string]any{"failures": len(failures)})
	return Stopped, failures
}

// rollback runs the shutdown counterparts of the succeeded startup hooks in
// reverse completion order, best-effort. Rollback replays the recorded
// success log rather than relying on unwinding, so it behaves identically
// whether triggered by a hook error or by cancellation. The sweep runs on a
// cancellation-free context: once rollback begins it always completes.
func (m *Manager) rollback(ctx context.Context, succeeded []Hook) []HookFailure {
	if len(succeeded) == 0 {
		return nil
	}

	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventRollbackStart,
		Level:     observability.LevelWarning,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data:      map[string]any{"hooks": len(succeeded)},
	})

	sweepCtx := context.WithoutCancel(ctx)
	var failures []HookFailure

	for i := len(succeeded) - 1; i >= 0; i-- {
		name := succeeded[i].Name
		counterpart, ok := m.shutdownHook(name)
		if !ok {
			continue
		}

		m.ranShutdown[name] = true
		if err := m.runHook(sweepCtx, counterpart); err != nil {
			failures = append(failures, HookFailure{Hook: name, Phase: ShutdownPhase, Err: err})
		}
	}

	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventRollbackDone,
		Level:     observability.LevelWarning,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data:      map[string]any{"failures": len(failures)},
	})

	return failures
}

func (m *Manager) runHook(ctx context.Context, h Hook) error {
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventHookStart,
		Level:     observability.LevelVerbose,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data: map[string]any{
			"hook":  h.Name,
			"kind":  h.Phase.String(),
			"order": h.Order,
		},
	})

	start := m.clk.MonotonicTicks()
	err := h.Action(ctx)
	elapsed := time.Duration(m.clk.MonotonicTicks() - start)

	level := observability.LevelVerbose
	if err != nil {
		level = observability.LevelError
	}
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventHookComplete,
		Level:     level,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data: map[string]any{
			"hook":     h.Name,
			"kind":     h.Phase.String(),
			"duration": elapsed.String(),
			"error":    err != nil,
		},
	})

	return err
}

func (m *Manager) noop(ctx context.Context, op string, p Phase) {
	m.observer.OnEvent(ctx, observability.Event{
		Type:      EventNoOp,
		Level:     observability.LevelWarning,
		Timestamp: m.clk.Now(),
		Source:    "lifecycle.Manager",
		Data:      map[string]any{"operation": op, "phase": p.String()},
	})
}

// sortedStartup returns startup hooks in ascending Order; sort.SliceStable
// preserves registration order among equal Order values.
func (m *Manager) sortedStartup() []Hook {
	return m.sortedHooks(StartupPhase, false)
}

// sortedShutdown returns shutdown hooks in descending Order, the exact
// reverse of the startup sequence for counterpart hooks.
func (m *Manager) sortedShutdown() []Hook {
	return m.sortedHooks(ShutdownPhase, true)
}

func (m *Manager) sortedHooks(phase HookPhase, reverse bool) []Hook {
	hooks := make([]Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		if h.Phase == phase {
			hooks = append(hooks, h)
		}
	}
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Order < hooks[j].Order
	})
	if reverse {
		for i, j := 0, len(hooks)-1; i < j; i, j = i+1, j-1 {
			hooks[i], hooks[j] = hooks[j], hooks[i]
		}
	}
	return hooks
}

func (m *Manager) shutdownHook(name string) (Hook, bool) {
	for _, h := range m.hooks {
		if h.Phase == ShutdownPhase && h.Name == name {
			return h, true
		}
	}
	return Hook{}, false
}

func (m *Manager) hasStartupHook(name string) bool {
	for _, h := range m.hooks {
		if h.Phase == StartupPhase && h.Name == name {
			return true
		}
	}
	return false
}

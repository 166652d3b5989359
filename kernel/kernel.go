// Package kernel composes the grid service foundation for one node: process
// identity, context propagation defaults, lifecycle orchestration, health
// aggregation, and the external probe surface.
//
// The kernel initializes from configuration via New, creating all subsystems
// internally. Functional options allow overrides of any subsystem and are
// the registration point for hooks and health checks.
//
//	k, err := kernel.New(cfg,
//	    kernel.WithHook(storageHooks...),
//	    kernel.WithHealthCheck(storageCheck),
//	)
//	phase, failures := k.Start(ctx)
package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/studio-grid/kernel/clock"
	"github.com/studio-grid/kernel/gridctx"
	"github.com/studio-grid/kernel/health"
	"github.com/studio-grid/kernel/lifecycle"
	"github.com/studio-grid/kernel/observability"
	"github.com/studio-grid/kernel/probes"
	"github.com/studio-grid/kernel/secrets"
)

// probeHookOrder places the probe server before user hooks on startup so the
// orchestrator can query readiness throughout the startup sweep, and after
// them on shutdown (descending order runs it last).
const probeHookOrder = -100

// Option configures a Kernel during New, after config-driven defaults.
type Option func(*builder)

type builder struct {
	observer observability.Observer
	clk      clock.Clock
	ids      gridctx.IDGenerator
	secrets  secrets.Source
	hooks    []lifecycle.Hook
	checks   []health.Check
}

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(b *builder) { b.observer = o }
}

// WithClock overrides the system clock.
func WithClock(clk clock.Clock) Option {
	return func(b *builder) { b.clk = clk }
}

// WithIDGenerator overrides the UUID id generator.
func WithIDGenerator(gen gridctx.IDGenerator) Option {
	return func(b *builder) { b.ids = gen }
}

// WithSecretsSource overrides the default environment-backed secret source.
func WithSecretsSource(s secrets.Source) Option {
	return func(b *builder) { b.secrets = s }
}

// WithHook registers lifecycle hooks. All hooks must be registered before
// Start is called.
func WithHook(hooks ...lifecycle.Hook) Option {
	return func(b *builder) { b.hooks = append(b.hooks, hooks...) }
}

// WithHealthCheck registers health checks with the node's composite.
func WithHealthCheck(checks ...health.Check) Option {
	return func(b *builder) { b.checks = append(b.checks, checks...) }
}

// Kernel is the assembled service foundation for one node process.
type Kernel struct {
	node     gridctx.NodeContext
	manager  *lifecycle.Manager
	host     *lifecycle.Host
	probes   *probes.Server
	observer observability.Observer
	clk      clock.Clock
	ids      gridctx.IDGenerator
	secrets  secrets.Source
	mapper   gridctx.HTTPMapper
}

// New creates a Kernel from configuration. Subsystems are initialized from
// their config sections; functional options applied after initialization can
// override any subsystem and register hooks and checks.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	b := &builder{
		observer: observability.NoOpObserver{},
		clk:      clock.System{},
		ids:      gridctx.UUIDGenerator{},
		secrets:  secrets.NewComposite(secrets.Env{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	node := gridctx.NewNodeContext(b.ids, b.clk, cfg.Node.Name)

	composite := health.NewComposite(b.checks,
		health.WithCheckTimeout(time.Duration(cfg.Health.CheckTimeoutSeconds)*time.Second),
		health.WithClock(b.clk),
		health.WithObserver(b.observer),
	)

	manager := lifecycle.NewManager(
		lifecycle.WithObserver(b.observer),
		lifecycle.WithClock(b.clk),
	)
	host := lifecycle.NewHost(manager, composite, b.clk)

	mapper := gridctx.HTTPMapper{
		Generator: b.ids,
		Options:   []gridctx.Option{gridctx.WithMaxChainDepth(cfg.Grid.MaxChainDepth)},
	}

	k := &Kernel{
		node:     node,
		manager:  manager,
		host:     host,
		observer: b.observer,
		clk:      b.clk,
		ids:      b.ids,
		secrets:  b.secrets,
		mapper:   mapper,
	}

	if !cfg.Probes.Disabled {
		k.probes = probes.NewServer(cfg.Probes.Addr, host, node, mapper, b.clk, b.observer)
		b.hooks = append(b.hooks,
			lifecycle.Hook{
				Name:   "probes",
				Phase:  lifecycle.StartupPhase,
				Order:  probeHookOrder,
				Action: k.probes.Start,
			},
			lifecycle.Hook{
				Name:   "probes",
				Phase:  lifecycle.ShutdownPhase,
				Order:  probeHookOrder,
				Action: k.probes.Shutdown,
			},
		)
	}

	for _, h := range b.hooks {
		if err := manager.Register(h); err != nil {
			return nil, fmt.Errorf("failed to register hook %q: %w", h.Name, err)
		}
	}

	return k, nil
}

// Start runs the startup sweep. It returns the resulting phase and, on
// failure, the ordered list of hook failures encountered.
func (k *Kernel) Start(ctx context.Context) (lifecycle.Phase, []lifecycle.HookFailure) {
	return k.manager.Start(ctx)
}

// Stop runs the shutdown sweep.
func (k *Kernel) Stop(ctx context.Context) (lifecycle.Phase, []lifecycle.HookFailure) {
	return k.manager.Stop(ctx)
}

// Node returns the process identity.
func (k *Kernel) Node() gridctx.NodeContext {
	return k.node
}

// Host returns the lifecycle host probes talk to.
func (k *Kernel) Host() *lifecycle.Host {
	return k.host
}

// Manager returns the lifecycle manager.
func (k *Kernel) Manager() *lifecycle.Manager {
	return k.manager
}

// Secrets returns the bootstrap secret source.
func (k *Kernel) Secrets() secrets.Source {
	return k.secrets
}

// Mapper returns the HTTP boundary mapper configured with the node's chain
// depth limit, for use by the node's own request-serving surfaces.
func (k *Kernel) Mapper() gridctx.HTTPMapper {
	return k.mapper
}

// BeginOperation opens an operation under the ambient GridContext of ctx
// using the kernel's clock and id generator.
func (k *Kernel) BeginOperation(ctx context.Context) (*gridctx.Operation, context.Context, error) {
	return gridctx.BeginOperation(ctx, k.clk, k.ids)
}

// Package gridctx implements the three-tier context model that threads
// correlation and causation data through a node's concurrent execution paths.
//
// The tiers are:
//   - GridContext: immutable per-flow snapshot (correlation id, causation
//     chain, grid-wide metadata), created at a boundary by a mapper
//   - NodeContext: immutable per-process identity, created once at startup
//   - Operation: per-operation record of timing and outcome, nested under
//     a GridContext
//
// All grid context values are immutable - derivation and metadata updates
// return new instances, so concurrently executing flows can never corrupt
// each other's lineage.
package gridctx

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// DefaultMaxChainDepth bounds causation chains when no explicit limit is
// configured. Chains grow by one per derived child, so this also bounds
// operation nesting depth.
const DefaultMaxChainDepth = 64

// ErrChainTooDeep is returned by DeriveChild when appending another causation
// link would exceed the configured maximum chain depth. The parent context is
// never modified by a failed derivation.
var ErrChainTooDeep = errors.New("causation chain too deep")

// GridContext is the immutable grid-wide snapshot for one logical flow.
//
// CorrelationID is shared by every operation belonging to one originating
// external request. CausationChain records the ancestry of nested operations
// root-first; its last element is the id of the current operation. Repeated
// visits to the same logical operation append a new id each time, so cycles
// are representable without cycle detection - growth is bounded only by the
// chain depth limit.
type GridContext struct {
	CorrelationID  ID
	CausationChain []ID
	Metadata       map[string]string

	maxDepth int
}

// Option configures a root GridContext at creation time.
type Option func(*GridContext)

// WithMaxChainDepth overrides the causation chain depth limit for a root
// context and all its descendants. Values below 1 fall back to the default.
func WithMaxChainDepth(depth int) Option {
	return func(g *GridContext) {
		if depth >= 1 {
			g.maxDepth = depth
		}
	}
}

// New mints a root GridContext: a fresh correlation id and a single-element
// causation chain holding the root operation id.
func New(gen IDGenerator, opts ...Option) GridContext {
	g := GridContext{
		CorrelationID:  gen.NewID(),
		CausationChain: []ID{gen.NewID()},
		Metadata:       map[string]string{},
		maxDepth:       DefaultMaxChainDepth,
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// Adopt builds a GridContext from identifiers extracted at a boundary.
// The inbound causation id, when present, becomes the parent link of the
// freshly minted leaf, preserving cross-process lineage.
func Adopt(gen IDGenerator, correlationID, causationID ID, opts ...Option) GridContext {
	chain := make([]ID, 0, 2)
	if causationID != "" {
		chain = append(chain, causationID)
	}
	chain = append(chain, gen.NewID())

	g := GridContext{
		CorrelationID:  correlationID,
		CausationChain: chain,
		Metadata:       map[string]string{},
		maxDepth:       DefaultMaxChainDepth,
	}
	if g.CorrelationID == "" {
		g.CorrelationID = gen.NewID()
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// LeafID returns the id of the most recent causation link, or the empty ID
// for a zero-value context.
func (g GridContext) LeafID() ID {
	if len(g.CausationChain) == 0 {
		return ""
	}
	return g.CausationChain[len(g.CausationChain)-1]
}

// Depth returns the current causation chain length.
func (g GridContext) Depth() int {
	return len(g.CausationChain)
}

// IsZero reports whether the context was never initialized by a mapper or
// constructor.
func (g GridContext) IsZero() bool {
	return g.CorrelationID == "" && len(g.CausationChain) == 0
}

// DeriveChild returns a new GridContext for a nested operation: the parent's
// chain with a freshly minted leaf appended, the correlation id preserved
// unchanged from the root, and the metadata copied.
//
// Derivation never mutates the parent. When the child chain would exceed the
// configured depth limit, DeriveChild returns ErrChainTooDeep and the parent
// remains valid and unmodified.
func (g GridContext) DeriveChild(gen IDGenerator) (GridContext, error) {
	limit := g.maxDepth
	if limit < 1 {
		limit = DefaultMaxChainDepth
	}
	if len(g.CausationChain)+1 > limit {
		return GridContext{}, fmt.Errorf("%w: depth %d exceeds limit %d",
			ErrChainTooDeep, len(g.CausationChain)+1, limit)
	}

	chain := make([]ID, 0, len(g.CausationChain)+1)
	chain = append(chain, g.CausationChain...)
	chain = append(chain, gen.NewID())

	return GridContext{
		CorrelationID:  g.CorrelationID,
		CausationChain: chain,
		Metadata:       maps.Clone(g.Metadata),
		maxDepth:       g.maxDepth,
	}, nil
}

// WithMetadata returns a copy of the context with the key-value pair added or
// updated. The receiver is not modified.
func (g GridContext) WithMetadata(key, value string) GridContext {
	meta := maps.Clone(g.Metadata)
	if meta == nil {
		meta = map[string]string{}
	}
	meta[key] = value

	return GridContext{
		CorrelationID:  g.CorrelationID,
		CausationChain: slices.Clone(g.CausationChain),
		Metadata:       meta,
		maxDepth:       g.maxDepth,
	}
}

func (g GridContext) String() string {
	return fmt.Sprintf("GridContext{Correlation: %s, Depth: %d}",
		g.CorrelationID, len(g.CausationChain))
}

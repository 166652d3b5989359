package gridctx_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-grid/kernel/gridctx"
)

// seqGen mints deterministic ids for assertions.
type seqGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqGen) NewID() gridctx.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return gridctx.ID(fmt.Sprintf("id-%03d", g.n))
}

func TestNewMintsRoot(t *testing.T) {
	gen := &seqGen{}
	gc := gridctx.New(gen)

	assert.Equal(t, gridctx.ID("id-001"), gc.CorrelationID)
	require.Len(t, gc.CausationChain, 1)
	assert.Equal(t, gridctx.ID("id-002"), gc.LeafID())
	assert.False(t, gc.IsZero())
}

func TestDeriveChildChainIsAncestorConcatenation(t *testing.T) {
	gen := &seqGen{}
	root := gridctx.New(gen)

	current := root
	want := []gridctx.ID{root.LeafID()}
	for i := 0; i < 5; i++ {
		child, err := current.DeriveChild(gen)
		require.NoError(t, err)
		want = append(want, child.LeafID())

		assert.Equal(t, want, child.CausationChain,
			"chain must be the ordered concatenation of ancestor leaf ids")
		assert.Equal(t, root.CorrelationID, child.CorrelationID,
			"correlation id must be invariant across all descendants")
		current = child
	}
}

func TestDeriveChildDoesNotMutateParent(t *testing.T) {
	gen := &seqGen{}
	parent := gridctx.New(gen)
	parentChain := append([]gridctx.ID(nil), parent.CausationChain...)

	child, err := parent.DeriveChild(gen)
	require.NoError(t, err)

	assert.Equal(t, parentChain, parent.CausationChain)
	assert.NotEqual(t, parent.LeafID(), child.LeafID())

	// Mutating the child's metadata must not reach the parent either.
	child = child.WithMetadata("stage", "render")
	_, ok := parent.Metadata["stage"]
	assert.False(t, ok)
}

func TestDeriveChildDepthCutoff(t *testing.T) {
	gen := &seqGen{}
	gc := gridctx.New(gen, gridctx.WithMaxChainDepth(3))

	var err error
	for i := 0; i < 2; i++ {
		gc, err = gc.DeriveChild(gen)
		require.NoError(t, err)
	}
	require.Equal(t, 3, gc.Depth())

	before := append([]gridctx.ID(nil), gc.CausationChain...)
	_, err = gc.DeriveChild(gen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gridctx.ErrChainTooDeep))
	assert.Equal(t, before, gc.CausationChain, "failed derivation must leave the parent unmodified")

	// The limit is inherited by descendants.
	shallow := gridctx.New(gen, gridctx.WithMaxChainDepth(3))
	child, err := shallow.DeriveChild(gen)
	require.NoError(t, err)
	grandchild, err := child.DeriveChild(gen)
	require.NoError(t, err)
	_, err = grandchild.DeriveChild(gen)
	assert.True(t, errors.Is(err, gridctx.ErrChainTooDeep))
}

func TestAdopt(t *testing.T) {
	tests := []struct {
		name          string
		correlationID gridctx.ID
		causationID   gridctx.ID
		wantAdopted   bool
		wantDepth     int
	}{
		{"both present", "corr-1", "cause-1", true, 2},
		{"correlation only", "corr-1", "", true, 1},
		{"neither", "", "", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &seqGen{}
			gc := gridctx.Adopt(gen, tt.correlationID, tt.causationID)

			if tt.wantAdopted {
				assert.Equal(t, tt.correlationID, gc.CorrelationID)
			} else {
				assert.NotEmpty(t, gc.CorrelationID)
			}
			assert.Equal(t, tt.wantDepth, gc.Depth())
			if tt.causationID != "" {
				assert.Equal(t, tt.causationID, gc.CausationChain[0],
					"inbound causation id must be the parent link")
			}
			assert.NotEqual(t, tt.causationID, gc.LeafID())
		})
	}
}

func TestWithMetadataImmutable(t *testing.T) {
	gen := &seqGen{}
	base := gridctx.New(gen).WithMetadata("tenant", "studio-a")

	updated := base.WithMetadata("tenant", "studio-b")

	assert.Equal(t, "studio-a", base.Metadata["tenant"])
	assert.Equal(t, "studio-b", updated.Metadata["tenant"])
	assert.Equal(t, base.CausationChain, updated.CausationChain)
}

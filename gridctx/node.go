package gridctx

import (
	"time"

	"github.com/studio-grid/kernel/clock"
)

// NodeContext is the immutable process-lifetime identity of one running
// node. It is created exactly once at startup and shared read-only across
// all flows.
type NodeContext struct {
	// Name is the configured logical node name (e.g. "render-worker").
	Name string
	// NodeID identifies the logical node across restarts of one deployment.
	NodeID ID
	// InstanceID identifies this particular process; it changes on restart.
	InstanceID ID
	// StartedAt is the process start time.
	StartedAt time.Time
}

// NewNodeContext mints the process identity. Call once during bootstrap.
func NewNodeContext(gen IDGenerator, clk clock.Clock, name string) NodeContext {
	return NodeContext{
		Name:       name,
		NodeID:     gen.NewID(),
		InstanceID: gen.NewID(),
		StartedAt:  clk.Now(),
	}
}

// Uptime returns how long the node has been running according to clk.
func (n NodeContext) Uptime(clk clock.Clock) time.Duration {
	return clk.Now().Sub(n.StartedAt)
}

package kernel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/studio-grid/kernel/gridctx"
	"github.com/studio-grid/kernel/health"
)

const (
	defaultProbeAddr = ":8630"
	defaultNodeName  = "node"
)

// NodeConfig identifies the node.
type NodeConfig struct {
	Name string `json:"name"`
}

// GridConfig bounds the context model.
type GridConfig struct {
	MaxChainDepth int `json:"max_chain_depth,omitempty"`
}

// HealthConfig tunes health aggregation.
type HealthConfig struct {
	CheckTimeoutSeconds int `json:"check_timeout_seconds,omitempty"`
}

// ProbesConfig configures the external probe surface.
type ProbesConfig struct {
	Addr     string `json:"addr,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Config holds initialization parameters for all kernel subsystems.
type Config struct {
	Node   NodeConfig   `json:"node"`
	Grid   GridConfig   `json:"grid"`
	Health HealthConfig `json:"health"`
	Probes ProbesConfig `json:"probes"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Node:   NodeConfig{Name: defaultNodeName},
		Grid:   GridConfig{MaxChainDepth: gridctx.DefaultMaxChainDepth},
		Health: HealthConfig{CheckTimeoutSeconds: int(health.DefaultCheckTimeout.Seconds())},
		Probes: ProbesConfig{Addr: defaultProbeAddr},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Node.Name != "" {
		c.Node.Name = source.Node.Name
	}
	if source.Grid.MaxChainDepth > 0 {
		c.Grid.MaxChainDepth = source.Grid.MaxChainDepth
	}
	if source.Health.CheckTimeoutSeconds > 0 {
		c.Health.CheckTimeoutSeconds = source.Health.CheckTimeoutSeconds
	}
	if source.Probes.Addr != "" {
		c.Probes.Addr = source.Probes.Addr
	}
	if source.Probes.Disabled {
		c.Probes.Disabled = true
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

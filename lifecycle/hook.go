// Package lifecycle orchestrates ordered startup and shutdown of a node's
// subsystems and exposes the node's current phase and aggregated health to
// external probes.
package lifecycle

import (
	"context"
	"fmt"
)

// Phase is the process-wide lifecycle state.
type Phase int

const (
	NotStarted Phase = iota
	Starting
	Running
	Stopping
	Stopped
	Faulted
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// HookPhase selects which sweep a hook participates in.
type HookPhase int

const (
	StartupPhase HookPhase = iota
	ShutdownPhase
)

func (p HookPhase) String() string {
	if p == ShutdownPhase {
		return "shutdown"
	}
	return "startup"
}

// Hook is one registered lifecycle action. Startup hooks run in ascending
// Order, shutdown hooks in descending Order; ties are broken by registration
// order. A startup hook's shutdown counterpart is the shutdown hook sharing
// its Name.
type Hook struct {
	Name   string
	Phase  HookPhase
	Order  int
	Action func(ctx context.Context) error
}

// HookFailure records one failed hook execution with its cause.
type HookFailure struct {
	Hook  string
	Phase HookPhase
	Err   error
}

func (f HookFailure) Error() string {
	return fmt.Sprintf("%s hook %q failed: %v", f.Phase, f.Hook, f.Err)
}

func (f HookFailure) Unwrap() error {
	return f.Err
}

package lifecycle

import "github.com/studio-grid/kernel/observability"

const (
	EventStartBegin    observability.EventType = "lifecycle.start"
	EventRunning       observability.EventType = "lifecycle.running"
	EventStopBegin     observability.EventType = "lifecycle.stop"
	EventStopped       observability.EventType = "lifecycle.stopped"
	EventFaulted       observability.EventType = "lifecycle.faulted"
	EventNoOp          observability.EventType = "lifecycle.noop"
	EventHookStart     observability.EventType = "hook.start"
	EventHookComplete  observability.EventType = "hook.complete"
	EventRollbackStart observability.EventType = "rollback.start"
	EventRollbackDone  observability.EventType = "rollback.complete"
)

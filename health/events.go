package health

import "github.com/studio-grid/kernel/observability"

const (
	EventAggregateStart    observability.EventType = "health.aggregate.start"
	EventAggregateComplete observability.EventType = "health.aggregate.complete"
	EventCheckComplete     observability.EventType = "health.check.complete"
)

// Package health aggregates independently owned health checks into a single
// node status using worst-of-N semantics.
package health

import "time"

// Status is the health of one subsystem or of the node as a whole.
// The zero value is Healthy; higher values are strictly worse.
type Status int

const (
	Healthy Status = iota
	Degraded
	Unhealthy
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the observed health of one check at one instant.
type Result struct {
	Source     string    `json:"source"`
	Status     Status    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// MarshalJSON emits the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

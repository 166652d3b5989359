package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PromObserver counts events in a Prometheus counter vector labeled by event
// type and severity. Pair it with SlogObserver via MultiObserver to get both
// logs and metrics from one event stream.
type PromObserver struct {
	events *prometheus.CounterVec
}

// NewPromObserver creates a PromObserver and registers its collector with
// reg. Pass prometheus.DefaultRegisterer to expose the counters on the
// default /metrics handler.
func NewPromObserver(reg prometheus.Registerer) (*PromObserver, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridkernel",
		Name:      "events_total",
		Help:      "Kernel observability events by type and severity.",
	}, []string{"type", "severity"})

	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &PromObserver{events: events}, nil
}

func (o *PromObserver) OnEvent(ctx context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

package observability

import (
	"context"
	"log/slog"

	"github.com/studio-grid/kernel/gridctx"
)

// SlogObserver emits events to a slog.Logger. Event levels are mapped via
// SlogLevel, the event type becomes the log message, and Data keys are
// flattened as top-level slog attributes. When the emitting context carries
// an ambient GridContext, its correlation id and causation depth are attached
// so log lines from one flow can be joined across subsystems.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+3)
	attrs = append(attrs, slog.String("source", event.Source))

	if gc, ok := gridctx.Current(ctx); ok && !gc.IsZero() {
		attrs = append(attrs,
			slog.String("correlation_id", string(gc.CorrelationID)),
			slog.Int("causation_depth", gc.Depth()),
		)
	}

	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}

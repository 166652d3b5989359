package gridctx

import "context"

type carrierKey struct{}

// Activate returns a context that carries gc as the ambient GridContext for
// the calling logical flow and every flow forked from the returned context.
//
// Ambient context is snapshot-isolated across concurrency boundaries: a
// goroutine launched with the returned context observes gc as an independent
// immutable snapshot, and a later Activate in one flow is never visible to
// siblings or to the parent flow.
func Activate(ctx context.Context, gc GridContext) context.Context {
	return context.WithValue(ctx, carrierKey{}, gc)
}

// Current returns the ambient GridContext and whether one was activated.
func Current(ctx context.Context) (GridContext, bool) {
	gc, ok := ctx.Value(carrierKey{}).(GridContext)
	return gc, ok
}

// MustCurrent returns the ambient GridContext, or a zero-value root context
// when none was activated. Callers that need a usable lineage should check
// Current and mint a root via New instead.
func MustCurrent(ctx context.Context) GridContext {
	gc, _ := Current(ctx)
	return gc
}

// WithScope runs body with gc as the ambient context. The activation is
// scoped to the body: on every exit path - normal return, error, or panic -
// the caller's own context is untouched, because the activation lives only
// in the derived context passed to body.
func WithScope(ctx context.Context, gc GridContext, body func(ctx context.Context) error) error {
	return body(Activate(ctx, gc))
}

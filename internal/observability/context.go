package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// DetachTraceContext creates a new background context that still carries the
// span context from ctx. This lets a goroutine open child spans linked to
// the originating trace without inheriting ctx's cancellation — used when an
// HTTP handler hands work off to the scheduler's background worker pool.
func DetachTraceContext(ctx context.Context) context.Context {
	return DetachTraceContextFrom(ctx, context.Background())
}

// DetachTraceContextFrom is like DetachTraceContext but lets the caller
// supply the base context (e.g. a long-lived process context that is
// cancelled on shutdown) instead of context.Background().
func DetachTraceContextFrom(ctx, base context.Context) context.Context {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return base
	}
	return trace.ContextWithRemoteSpanContext(base, sc)
}

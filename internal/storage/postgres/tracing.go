package postgres

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startSpan opens a span per storage call, grounded on the teacher's
// per-repository-call otel span convention
// (account.postgresql.go/common/app.go's ContextWithTracer). r.conn.Tracer
// is nil in tests and in callers that never wired one; noop.Tracer (the
// otel default when no provider is registered) makes that safe without
// an extra nil check at every call site.
func (r *Repository) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.conn.tracer().Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// SpanAttributes are the tags docchat puts on pipeline spans. Zero values are
// left off.
type SpanAttributes struct {
	Operation   string
	DocumentKey string
	Strategy    string
	TopK        int
}

func (a SpanAttributes) apply(span *sentry.Span) {
	if a.Operation != "" {
		span.SetData("operation", a.Operation)
	}
	if a.DocumentKey != "" {
		span.SetTag("document_key", a.DocumentKey)
	}
	if a.Strategy != "" {
		span.SetTag("strategy", a.Strategy)
	}
	if a.TopK > 0 {
		span.SetData("top_k", a.TopK)
	}
}

// Span is a nil-safe handle over a Sentry span.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s == nil || s.inner == nil {
		return
	}
	s.inner.Finish()
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s == nil || s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	CaptureError(s.inner.Context(), err)
}

// StartSpan opens a child of the span already in ctx, or a new transaction when
// ctx carries none (CLI-triggered processing, for one).
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// StartTransaction opens a root span, used by the ingestion worker for each job.
func StartTransaction(ctx context.Context, name, op string) (context.Context, *Span) {
	opts := []sentry.SpanOption{sentry.WithTransactionName(name)}
	if op != "" {
		opts = append(opts, sentry.WithOpName(op))
	}
	span := sentry.StartSpan(ctx, op, opts...)
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the hub bound to ctx, falling back to the global hub.
func CaptureError(ctx context.Context, err error) {
	hubFor(ctx).CaptureException(err)
}

// CaptureMessage reports message on the hub bound to ctx.
func CaptureMessage(ctx context.Context, message string) {
	hubFor(ctx).CaptureMessage(message)
}

// AddBreadcrumb records a step (a retrieval fallback, say) that later events will carry.
func AddBreadcrumb(ctx context.Context, category, message string) {
	hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

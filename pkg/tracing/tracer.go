package tracing

import "net/http"

// Propagation header fields. The names are part of the wire contract
// toward the backend and must match exactly.
const (
	TraceIDHeader  = "x-datadog-trace-id"
	ParentIDHeader = "x-datadog-parent-id"
	OriginHeader   = "x-datadog-origin"

	// OriginRUM marks resource-tracking as the origin of an injected
	// trace. Written by the engine only when both tracing and resource
	// tracking are enabled.
	OriginRUM = "rum"
)

// SpanContext is an opaque serializable distributed-tracing identifier.
// A zero TraceID means "no context".
type SpanContext struct {
	TraceID uint64
	SpanID  uint64
}

// IsValid reports whether the context carries usable identifiers.
func (sc SpanContext) IsValid() bool {
	return sc.TraceID != 0 && sc.SpanID != 0
}

// Tracer is the capability the interception engine uses to create and
// propagate span contexts. Implementations must be safe for concurrent
// use; the engine calls NewSpanContext from arbitrary caller threads.
type Tracer interface {
	// NewSpanContext mints a fresh context for an outgoing request.
	NewSpanContext() SpanContext

	// Inject serializes sc into the propagation header fields of h.
	Inject(sc SpanContext, h http.Header)

	// Extract parses propagation headers from h. The second return is
	// false when no usable context is present.
	Extract(h http.Header) (SpanContext, bool)
}

// NopTracer is the tracer installed when tracing is not configured.
// Injection does nothing and extraction never succeeds; the engine
// treats its presence as "tracing disabled" and skips request
// modification entirely.
type NopTracer struct{}

func (NopTracer) NewSpanContext() SpanContext { return SpanContext{} }

func (NopTracer) Inject(SpanContext, http.Header) {}

func (NopTracer) Extract(http.Header) (SpanContext, bool) { return SpanContext{}, false }

// IsActive reports whether t is a real tracer. Absence of a tracer is
// never an error, it just disables injection and extraction. The nop
// tracer counts as absent whether passed by value or by pointer.
func IsActive(t Tracer) bool {
	switch t.(type) {
	case nil, NopTracer, *NopTracer:
		return false
	}
	return true
}

var (
	_ Tracer = NopTracer{}
	_ Tracer = HeaderTracer{}
)

package tracing

import (
	"encoding/binary"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// HeaderTracer propagates span contexts through the x-datadog-*
// headers, with identifiers encoded as unsigned decimal strings.
type HeaderTracer struct{}

func (HeaderTracer) NewSpanContext() SpanContext {
	return SpanContext{
		TraceID: newID(),
		SpanID:  newID(),
	}
}

func (HeaderTracer) Inject(sc SpanContext, h http.Header) {
	if !sc.IsValid() {
		return
	}
	h.Set(TraceIDHeader, strconv.FormatUint(sc.TraceID, 10))
	h.Set(ParentIDHeader, strconv.FormatUint(sc.SpanID, 10))
}

func (HeaderTracer) Extract(h http.Header) (SpanContext, bool) {
	traceID, err := strconv.ParseUint(h.Get(TraceIDHeader), 10, 64)
	if err != nil {
		return SpanContext{}, false
	}
	spanID, err := strconv.ParseUint(h.Get(ParentIDHeader), 10, 64)
	if err != nil {
		return SpanContext{}, false
	}
	sc := SpanContext{TraceID: traceID, SpanID: spanID}
	return sc, sc.IsValid()
}

// newID derives a 63-bit identifier from a random UUID. Backends that
// decode the decimal value as a signed integer must never see the sign
// bit set, and zero is reserved for "no id".
func newID() uint64 {
	id := uuid.New()
	v := binary.BigEndian.Uint64(id[:8]) &^ (1 << 63)
	if v == 0 {
		v = 1
	}
	return v
}

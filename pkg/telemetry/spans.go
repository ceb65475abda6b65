package telemetry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/go-go-golems/wiretap/pkg/intercept"
)

// SpanRecord is the trace span derived from a completed first-party
// interception.
type SpanRecord struct {
	TraceID    uint64
	SpanID     uint64
	Method     string
	URL        string
	Start      time.Time
	Duration   time.Duration
	StatusCode int
	IsError    bool
}

// SpanSink receives finished spans. Implementations must be fast; they
// run on the interception engine's lane.
type SpanSink interface {
	WriteSpan(span SpanRecord)
}

// ZerologSpanSink writes spans as structured log events, the simplest
// useful exporter.
type ZerologSpanSink struct {
	Logger zerolog.Logger
}

func (s ZerologSpanSink) WriteSpan(span SpanRecord) {
	s.Logger.Info().
		Uint64("trace_id", span.TraceID).
		Uint64("span_id", span.SpanID).
		Str("method", span.Method).
		Str("url", span.URL).
		Dur("duration", span.Duration).
		Int("status_code", span.StatusCode).
		Bool("error", span.IsError).
		Msg("span finished")
}

// SpanHandler finishes a trace span for every completed first-party
// interception that carries a span context. Third-party completions and
// completions without trace context are skipped.
type SpanHandler struct {
	sink SpanSink
}

func NewSpanHandler(sink SpanSink) *SpanHandler {
	return &SpanHandler{sink: sink}
}

func (h *SpanHandler) OnInterceptionStart(intercept.Interception) {}

func (h *SpanHandler) OnInterceptionComplete(in intercept.Interception) {
	if !in.FirstParty || in.SpanContext == nil {
		return
	}
	span := SpanRecord{
		TraceID: in.SpanContext.TraceID,
		SpanID:  in.SpanContext.SpanID,
		Method:  in.Request.Method,
	}
	if in.Request.URL != nil {
		span.URL = in.Request.URL.String()
	}
	if in.Metrics != nil {
		span.Start = in.Metrics.FetchStart
		span.Duration = in.Metrics.Duration()
	}
	if in.Completion != nil {
		span.StatusCode = in.Completion.StatusCode
		span.IsError = in.Completion.Error != nil || in.Completion.StatusCode >= 500
	}
	h.sink.WriteSpan(span)
}

var _ intercept.Handler = &SpanHandler{}

package telemetry

import (
	"strconv"

	"github.com/go-go-golems/wiretap/pkg/intercept"
)

// ResourceTopic carries one ResourceEvent per completed interception.
const ResourceTopic = "telemetry.resources"

// ResourceEvent is the RUM resource record derived from a completed
// interception. Trace ids are present only when a span context was
// attached to the request.
type ResourceEvent struct {
	TaskID           string `json:"task_id"`
	Method           string `json:"method"`
	URL              string `json:"url"`
	FirstParty       bool   `json:"first_party"`
	StatusCode       int    `json:"status_code,omitempty"`
	Error            string `json:"error,omitempty"`
	DurationMs       int64  `json:"duration_ms"`
	RequestBodySize  int64  `json:"request_body_size,omitempty"`
	ResponseBodySize int64  `json:"response_body_size,omitempty"`
	TraceID          string `json:"trace_id,omitempty"`
	SpanID           string `json:"span_id,omitempty"`
}

// ResourceHandler emits a ResourceEvent for every completed
// interception. Starts are not reported; a resource only exists once
// its timing and outcome are known.
type ResourceHandler struct {
	publisher *PublisherManager
}

func NewResourceHandler(publisher *PublisherManager) *ResourceHandler {
	return &ResourceHandler{publisher: publisher}
}

func (h *ResourceHandler) OnInterceptionStart(intercept.Interception) {}

func (h *ResourceHandler) OnInterceptionComplete(in intercept.Interception) {
	ev := ResourceEvent{
		TaskID:     string(in.ID),
		Method:     in.Request.Method,
		FirstParty: in.FirstParty,
	}
	if in.Request.URL != nil {
		ev.URL = in.Request.URL.String()
	}
	if in.Metrics != nil {
		ev.DurationMs = in.Metrics.Duration().Milliseconds()
		ev.RequestBodySize = in.Metrics.RequestBodySize
		ev.ResponseBodySize = in.Metrics.ResponseBodySize
	}
	if in.Completion != nil {
		ev.StatusCode = in.Completion.StatusCode
		if in.Completion.Error != nil {
			ev.Error = in.Completion.Error.Error()
		}
	}
	if in.SpanContext != nil {
		ev.TraceID = strconv.FormatUint(in.SpanContext.TraceID, 10)
		ev.SpanID = strconv.FormatUint(in.SpanContext.SpanID, 10)
	}
	h.publisher.PublishBlind(ResourceTopic, ev)
}

var _ intercept.Handler = &ResourceHandler{}

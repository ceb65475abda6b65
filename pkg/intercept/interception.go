package intercept

import (
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/wiretap/pkg/tracing"
)

// TaskID identifies one network task for the lifetime of its
// interception. It must be stable and unique per task; transports that
// cannot guarantee stable task identity generate a correlation token at
// creation time and thread it through all lifecycle calls.
type TaskID string

// RequestInfo is an immutable capture of the outgoing request, taken at
// TaskCreated time. The header map is a clone; callers may keep mutating
// the live request afterwards.
type RequestInfo struct {
	Method string
	URL    *url.URL
	Header http.Header
}

func captureRequest(req *http.Request) RequestInfo {
	info := RequestInfo{
		Method: req.Method,
		Header: req.Header.Clone(),
	}
	if req.URL != nil {
		u := *req.URL
		info.URL = &u
	}
	return info
}

// Metrics carries the timing and transfer-size information collected
// for a task. FirstByte is zero when the transport never saw a response
// byte.
type Metrics struct {
	FetchStart       time.Time
	FetchEnd         time.Time
	FirstByte        time.Time
	RequestBodySize  int64
	ResponseBodySize int64
}

// Duration is the wall-clock span of the fetch.
func (m Metrics) Duration() time.Duration {
	if m.FetchStart.IsZero() || m.FetchEnd.IsZero() {
		return 0
	}
	return m.FetchEnd.Sub(m.FetchStart)
}

// Completion is the terminal outcome of a task: a response, an error,
// or both (a response that arrived before the connection died).
type Completion struct {
	StatusCode int
	Header     http.Header
	Error      error
}

// Interception accumulates per-task state until both metrics and a
// completion have arrived. All mutation happens on the engine's serial
// lane; handlers receive value copies and never the live record.
type Interception struct {
	ID         TaskID
	Request    RequestInfo
	FirstParty bool

	SpanContext *tracing.SpanContext
	Metrics     *Metrics
	Completion  *Completion
}

func newInterception(id TaskID, req RequestInfo, firstParty bool) *Interception {
	return &Interception{
		ID:         id,
		Request:    req,
		FirstParty: firstParty,
	}
}

// IsDone reports whether the record saw both its metrics and its
// completion, in whichever order they arrived.
func (i *Interception) IsDone() bool {
	return i.Metrics != nil && i.Completion != nil
}

// attachSpanContext records the trace context at most once, and only
// before completion.
func (i *Interception) attachSpanContext(sc tracing.SpanContext) {
	if i.SpanContext != nil {
		log.Warn().Str("task_id", string(i.ID)).Msg("span context already attached, keeping the first one")
		return
	}
	if i.Completion != nil {
		return
	}
	i.SpanContext = &sc
}

// recordMetrics is first-write-wins: a duplicate cannot corrupt the
// done-detection invariant because the record is evicted on first
// completion anyway.
func (i *Interception) recordMetrics(m Metrics) {
	if i.Metrics != nil {
		log.Warn().Str("task_id", string(i.ID)).Msg("duplicate task metrics, keeping the first ones")
		return
	}
	i.Metrics = &m
}

func (i *Interception) recordCompletion(c Completion) {
	if i.Completion != nil {
		log.Warn().Str("task_id", string(i.ID)).Msg("duplicate task completion, keeping the first one")
		return
	}
	i.Completion = &c
}

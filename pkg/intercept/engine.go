package intercept

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/wiretap/pkg/classify"
	"github.com/go-go-golems/wiretap/pkg/dispatch"
	"github.com/go-go-golems/wiretap/pkg/tracing"
)

// Handler receives interception lifecycle notifications. Both methods
// run on the engine's serial lane and must be fast and non-blocking.
type Handler interface {
	OnInterceptionStart(in Interception)
	OnInterceptionComplete(in Interception)
}

// HostProvider supplies per-session additional first-party hosts. A
// transport wrapper implements this to extend the engine's default
// classification for the requests it sends; a nil provider contributes
// nothing.
type HostProvider interface {
	AdditionalFirstPartyHosts() classify.FirstPartyHosts
}

// Engine correlates the asynchronous lifecycle events of outgoing HTTP
// requests into completed interception records and fans them out to
// handlers.
//
// All map and record mutation is serialized on one background lane:
// TaskCreated, TaskMetricsCollected and TaskCompleted enqueue their
// work and return immediately. Modify is the one synchronous operation;
// it touches no shared mutable state.
//
// There is no eviction timeout: a task that starts but never receives
// both its metrics and its completion keeps its record for the engine's
// lifetime. Task lifecycles are owned by the host transport, which
// guarantees terminal callbacks for tasks it actually runs.
type Engine struct {
	firstParty       classify.FirstPartyHosts
	internal         classify.InternalEndpoints
	tracer           tracing.Tracer
	handlers         []Handler
	tracingEnabled   bool
	resourceTracking bool

	queue  *dispatch.SerialQueue
	byTask map[TaskID]*Interception
}

type EngineOption func(*Engine)

// WithFirstPartyHosts sets the engine's default first-party host list.
func WithFirstPartyHosts(hosts classify.FirstPartyHosts) EngineOption {
	return func(e *Engine) {
		e.firstParty = hosts
	}
}

// WithInternalEndpoints sets the SDK's own intake origins. Requests to
// these are invisible to the engine.
func WithInternalEndpoints(endpoints classify.InternalEndpoints) EngineOption {
	return func(e *Engine) {
		e.internal = endpoints
	}
}

// WithTracer installs the tracer capability. The default is a
// NopTracer, which disables injection and extraction.
func WithTracer(t tracing.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithHandler appends a lifecycle handler. Handlers are notified in
// registration order.
func WithHandler(h Handler) EngineOption {
	return func(e *Engine) {
		if h != nil {
			e.handlers = append(e.handlers, h)
		}
	}
}

// WithTracing enables trace-header injection for first-party requests.
func WithTracing(enabled bool) EngineOption {
	return func(e *Engine) {
		e.tracingEnabled = enabled
	}
}

// WithResourceTracking enables resource/RUM tracking. When both tracing
// and resource tracking are on, Modify additionally writes the origin
// marker header.
func WithResourceTracking(enabled bool) EngineOption {
	return func(e *Engine) {
		e.resourceTracking = enabled
	}
}

func NewEngine(options ...EngineOption) *Engine {
	e := &Engine{
		tracer: tracing.NopTracer{},
		queue:  dispatch.NewSerialQueue("interception-engine"),
		byTask: make(map[TaskID]*Interception),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Modify returns the request to actually send. Internal and third-party
// requests come back untouched (the same pointer). A first-party
// request, with tracing enabled and a real tracer installed, comes back
// as a clone carrying a fresh span context in its propagation headers,
// plus the origin marker when resource tracking is also on.
//
// Safe to call from any goroutine. Callers must invoke it exactly once
// per physically sent request; re-invocation derives a fresh, different
// span context.
func (e *Engine) Modify(req *http.Request, session HostProvider) *http.Request {
	if req == nil || req.URL == nil {
		return req
	}
	if e.internal.Contains(req.URL) {
		return req
	}
	if !e.tracingEnabled || !tracing.IsActive(e.tracer) {
		return req
	}
	if !e.isFirstParty(req.URL, session) {
		return req
	}

	sc := e.tracer.NewSpanContext()
	out := req.Clone(req.Context())
	e.tracer.Inject(sc, out.Header)
	if e.resourceTracking {
		out.Header.Set(tracing.OriginHeader, tracing.OriginRUM)
	}
	return out
}

// TaskCreated registers a new task. Internal requests are ignored
// entirely. The request is captured synchronously so the record
// reflects the headers as they were sent; everything else runs on the
// engine lane.
func (e *Engine) TaskCreated(id TaskID, req *http.Request, session HostProvider) {
	if req == nil || req.URL == nil {
		return
	}
	if e.internal.Contains(req.URL) {
		return
	}
	firstParty := e.isFirstParty(req.URL, session)
	info := captureRequest(req)

	e.queue.Async(func() {
		if _, exists := e.byTask[id]; exists {
			log.Warn().Str("task_id", string(id)).Msg("task already tracked, ignoring duplicate creation")
			return
		}
		in := newInterception(id, info, firstParty)
		if sc, ok := e.tracer.Extract(info.Header); ok {
			in.attachSpanContext(sc)
		}
		e.byTask[id] = in
		for _, h := range e.handlers {
			h.OnInterceptionStart(*in)
		}
	})
}

// TaskMetricsCollected records timing/transfer metrics for a tracked
// task. Unknown ids are ignored: the task was internal, or its creation
// has not been serialized yet and the transport already gave up on it.
func (e *Engine) TaskMetricsCollected(id TaskID, m Metrics) {
	e.queue.Async(func() {
		in, ok := e.byTask[id]
		if !ok {
			return
		}
		in.recordMetrics(m)
		e.finishIfDone(in)
	})
}

// TaskCompleted records the terminal outcome of a tracked task. The
// response's status and headers are captured synchronously; resp may be
// nil when the task failed before any response arrived.
func (e *Engine) TaskCompleted(id TaskID, resp *http.Response, err error) {
	c := Completion{Error: err}
	if resp != nil {
		c.StatusCode = resp.StatusCode
		c.Header = resp.Header.Clone()
	}
	e.queue.Async(func() {
		in, ok := e.byTask[id]
		if !ok {
			return
		}
		in.recordCompletion(c)
		e.finishIfDone(in)
	})
}

// finishIfDone runs on the engine lane. The record is evicted before
// handlers fire, so duplicate or late callbacks for the same task find
// nothing and cannot double-notify.
func (e *Engine) finishIfDone(in *Interception) {
	if !in.IsDone() {
		return
	}
	delete(e.byTask, in.ID)
	for _, h := range e.handlers {
		h.OnInterceptionComplete(*in)
	}
}

func (e *Engine) isFirstParty(u *url.URL, session HostProvider) bool {
	if e.firstParty.MatchesURL(u) {
		return true
	}
	if session != nil && session.AdditionalFirstPartyHosts().MatchesURL(u) {
		return true
	}
	return false
}

// Flush blocks until every lifecycle call enqueued before it has been
// processed.
func (e *Engine) Flush() {
	e.queue.Sync(func() {})
}

// Close drains the lane. All producers must have stopped.
func (e *Engine) Close() {
	e.queue.Close()
}

package httpwrap

import (
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/lithammer/shortuuid/v3"

	"github.com/go-go-golems/wiretap/pkg/classify"
	"github.com/go-go-golems/wiretap/pkg/intercept"
)

// Transport is an http.RoundTripper that feeds every request it sends
// through the interception engine: trace-header injection via Modify,
// then the TaskCreated / TaskCompleted / TaskMetricsCollected lifecycle.
//
// It is the Go-native stand-in for a platform transport delegate: task
// identity is a generated correlation token, timings come from
// httptrace, and transfer sizes from the declared content lengths
// (streaming bodies report what their headers claim).
//
// Transport never alters the outcome of a request; errors from the base
// round tripper pass through untouched.
type Transport struct {
	base       http.RoundTripper
	engine     *intercept.Engine
	extraHosts classify.FirstPartyHosts
}

type TransportOption func(*Transport)

// WithBase sets the underlying round tripper. Defaults to
// http.DefaultTransport.
func WithBase(rt http.RoundTripper) TransportOption {
	return func(t *Transport) {
		if rt != nil {
			t.base = rt
		}
	}
}

// WithAdditionalFirstPartyHosts extends first-party classification for
// requests sent through this transport only.
func WithAdditionalFirstPartyHosts(hosts classify.FirstPartyHosts) TransportOption {
	return func(t *Transport) {
		t.extraHosts = hosts
	}
}

func NewTransport(engine *intercept.Engine, options ...TransportOption) *Transport {
	t := &Transport{
		base:   http.DefaultTransport,
		engine: engine,
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// AdditionalFirstPartyHosts implements intercept.HostProvider.
func (t *Transport) AdditionalFirstPartyHosts() classify.FirstPartyHosts {
	return t.extraHosts
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := intercept.TaskID(shortuuid.New())

	out := t.engine.Modify(req, t)

	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Now()
		},
	}
	out = out.WithContext(httptrace.WithClientTrace(out.Context(), trace))

	t.engine.TaskCreated(id, out, t)

	fetchStart := time.Now()
	resp, err := t.base.RoundTrip(out)
	fetchEnd := time.Now()

	t.engine.TaskCompleted(id, resp, err)

	m := intercept.Metrics{
		FetchStart:      fetchStart,
		FetchEnd:        fetchEnd,
		FirstByte:       firstByte,
		RequestBodySize: max64(out.ContentLength, 0),
	}
	if resp != nil {
		m.ResponseBodySize = max64(resp.ContentLength, 0)
	}
	t.engine.TaskMetricsCollected(id, m)

	return resp, err
}

func max64(v, floor int64) int64 {
	if v < floor {
		return floor
	}
	return v
}

var (
	_ http.RoundTripper      = &Transport{}
	_ intercept.HostProvider = &Transport{}
)

package intercept

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/wiretap/pkg/tracing"
)

func testRequestInfo() RequestInfo {
	return RequestInfo{Method: http.MethodGet, Header: http.Header{}}
}

func TestInterception_IsDoneRequiresBothSignals(t *testing.T) {
	metricsFirst := newInterception("t1", testRequestInfo(), true)
	require.False(t, metricsFirst.IsDone())
	metricsFirst.recordMetrics(Metrics{})
	require.False(t, metricsFirst.IsDone())
	metricsFirst.recordCompletion(Completion{StatusCode: 200})
	require.True(t, metricsFirst.IsDone())

	completionFirst := newInterception("t2", testRequestInfo(), true)
	completionFirst.recordCompletion(Completion{StatusCode: 200})
	require.False(t, completionFirst.IsDone())
	completionFirst.recordMetrics(Metrics{})
	require.True(t, completionFirst.IsDone())
}

func TestInterception_DuplicateMetricsKeepFirst(t *testing.T) {
	in := newInterception("t1", testRequestInfo(), false)

	first := Metrics{FetchStart: time.Unix(1, 0), FetchEnd: time.Unix(2, 0)}
	in.recordMetrics(first)
	in.recordMetrics(Metrics{FetchStart: time.Unix(9, 0)})

	assert.Equal(t, first, *in.Metrics)
}

func TestInterception_DuplicateCompletionKeepFirst(t *testing.T) {
	in := newInterception("t1", testRequestInfo(), false)

	in.recordCompletion(Completion{StatusCode: 200})
	in.recordCompletion(Completion{StatusCode: 500})

	assert.Equal(t, 200, in.Completion.StatusCode)
}

func TestInterception_SpanContextSetAtMostOnce(t *testing.T) {
	in := newInterception("t1", testRequestInfo(), true)

	in.attachSpanContext(tracing.SpanContext{TraceID: 1, SpanID: 2})
	in.attachSpanContext(tracing.SpanContext{TraceID: 9, SpanID: 9})

	require.NotNil(t, in.SpanContext)
	assert.Equal(t, uint64(1), in.SpanContext.TraceID)
}

func TestInterception_SpanContextNotAttachedAfterCompletion(t *testing.T) {
	in := newInterception("t1", testRequestInfo(), true)

	in.recordCompletion(Completion{StatusCode: 200})
	in.attachSpanContext(tracing.SpanContext{TraceID: 1, SpanID: 2})

	assert.Nil(t, in.SpanContext)
}

func TestMetrics_Duration(t *testing.T) {
	assert.Zero(t, Metrics{}.Duration())

	m := Metrics{FetchStart: time.Unix(10, 0), FetchEnd: time.Unix(12, 0)}
	assert.Equal(t, 2*time.Second, m.Duration())
}

package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/wiretap/pkg/intercept"
	"github.com/go-go-golems/wiretap/pkg/tracing"
)

func subscribeResources(t *testing.T) (*PublisherManager, <-chan *message.Message) {
	t.Helper()

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubsub.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubsub.Subscribe(ctx, ResourceTopic)
	require.NoError(t, err)

	manager := NewPublisherManager()
	manager.SubscribePublisher(ResourceTopic, pubsub)
	return manager, messages
}

func receiveResource(t *testing.T, messages <-chan *message.Message) (ResourceEvent, *message.Message) {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		var ev ResourceEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		return ev, msg
	case <-time.After(time.Second):
		t.Fatal("no resource event received")
		return ResourceEvent{}, nil
	}
}

func completedInterception() intercept.Interception {
	u, _ := url.Parse("https://api.first-party.com/items?page=2")
	return intercept.Interception{
		ID:         "task-1",
		FirstParty: true,
		Request: intercept.RequestInfo{
			Method: http.MethodGet,
			URL:    u,
			Header: http.Header{},
		},
		SpanContext: &tracing.SpanContext{TraceID: 42, SpanID: 43},
		Metrics: &intercept.Metrics{
			FetchStart:       time.Unix(100, 0),
			FetchEnd:         time.Unix(100, int64(350*time.Millisecond)),
			RequestBodySize:  10,
			ResponseBodySize: 2048,
		},
		Completion: &intercept.Completion{StatusCode: 200, Header: http.Header{}},
	}
}

func TestResourceHandler_EmitsEventOnCompletion(t *testing.T) {
	manager, messages := subscribeResources(t)
	handler := NewResourceHandler(manager)

	handler.OnInterceptionComplete(completedInterception())

	ev, msg := receiveResource(t, messages)
	assert.Equal(t, "task-1", ev.TaskID)
	assert.Equal(t, http.MethodGet, ev.Method)
	assert.Equal(t, "https://api.first-party.com/items?page=2", ev.URL)
	assert.True(t, ev.FirstParty)
	assert.Equal(t, 200, ev.StatusCode)
	assert.Empty(t, ev.Error)
	assert.Equal(t, int64(350), ev.DurationMs)
	assert.Equal(t, int64(10), ev.RequestBodySize)
	assert.Equal(t, int64(2048), ev.ResponseBodySize)
	assert.Equal(t, "42", ev.TraceID)
	assert.Equal(t, "43", ev.SpanID)
	assert.Equal(t, "0", msg.Metadata.Get("sequence_number"))
}

func TestResourceHandler_SequenceNumbersIncrease(t *testing.T) {
	manager, messages := subscribeResources(t)
	handler := NewResourceHandler(manager)

	handler.OnInterceptionComplete(completedInterception())
	handler.OnInterceptionComplete(completedInterception())

	// gochannel delivers each message from its own goroutine, so
	// arrival order is not publication order; the sequence numbers are
	// what lets a consumer reconstruct it
	_, first := receiveResource(t, messages)
	_, second := receiveResource(t, messages)
	got := []string{
		first.Metadata.Get("sequence_number"),
		second.Metadata.Get("sequence_number"),
	}
	sort.Strings(got)
	assert.Equal(t, []string{"0", "1"}, got)
}

func TestResourceHandler_ErrorCompletion(t *testing.T) {
	manager, messages := subscribeResources(t)
	handler := NewResourceHandler(manager)

	in := completedInterception()
	in.SpanContext = nil
	in.Completion = &intercept.Completion{Error: errors.New("connection reset")}

	handler.OnInterceptionComplete(in)

	ev, _ := receiveResource(t, messages)
	assert.Zero(t, ev.StatusCode)
	assert.Equal(t, "connection reset", ev.Error)
	assert.Empty(t, ev.TraceID)
	assert.Empty(t, ev.SpanID)
}

func TestResourceHandler_StartIsSilent(t *testing.T) {
	manager, messages := subscribeResources(t)
	handler := NewResourceHandler(manager)

	handler.OnInterceptionStart(completedInterception())

	select {
	case msg := <-messages:
		t.Fatalf("unexpected event published on start: %s", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

package telemetry

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// PublisherManager distributes telemetry payloads to the watermill
// publishers registered for a topic. Payloads are serialized to JSON by
// Publish itself, and every outgoing message carries a monotonically
// increasing sequence number in its metadata so downstream consumers
// can detect reordering or loss.
type PublisherManager struct {
	mu             sync.Mutex
	publishers     map[string][]message.Publisher
	sequenceNumber uint64
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		publishers: make(map[string][]message.Publisher),
	}
}

// SubscribePublisher registers pub to receive everything published on
// topic.
func (m *PublisherManager) SubscribePublisher(topic string, pub message.Publisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers[topic] = append(m.publishers[topic], pub)
}

// Publish serializes payload and distributes it to every publisher
// registered for topic.
func (m *PublisherManager) Publish(topic string, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	msg.Metadata.Set("sequence_number", strconv.FormatUint(m.sequenceNumber, 10))
	m.sequenceNumber++

	for _, pub := range m.publishers[topic] {
		if err := pub.Publish(topic, msg); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("failed to publish telemetry event")
		}
	}

	return nil
}

// PublishBlind is Publish for callers that run on a hot path and only
// want the failure logged.
func (m *PublisherManager) PublishBlind(topic string, payload interface{}) {
	if err := m.Publish(topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to publish telemetry event")
	}
}

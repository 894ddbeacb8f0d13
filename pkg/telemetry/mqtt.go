package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/capdance/pkg/handoff"
)

// publishTimeout bounds how long the publisher waits for the broker.
const publishTimeout = 250 * time.Millisecond

// MQTTSink publishes frames as JSON to a broker topic. Write only encodes the
// frame; a background publisher sends the newest payload, so a slow broker
// drops frames instead of delaying the caller.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	pending *handoff.Mailbox[[]byte]
	lastErr atomic.Pointer[error]

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// ConnectMQTT connects to broker and returns a sink publishing to topic.
func ConnectMQTT(broker, clientID, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	return NewMQTTSink(client, topic), nil
}

// NewMQTTSink wraps a connected client and starts its publisher.
func NewMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	ctx, cancel := context.WithCancel(context.Background())
	m := &MQTTSink{
		client:  client,
		topic:   topic,
		pending: handoff.NewMailbox[[]byte](),
		cancel:  cancel,
	}
	m.wg.Add(1)
	go m.publish(ctx)
	return m
}

// Write queues f for publishing. Frames are not retained. The returned error
// is the failure of an earlier publish, reported once.
func (m *MQTTSink) Write(f *Frame) error {
	pressed := make([]string, 0, len(f.Order))
	for _, btn := range f.Order {
		if f.Buttons[btn] {
			pressed = append(pressed, btn.String())
		}
	}
	f.Pressed = pressed

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("json marshal error (frame): %w", err)
	}
	m.pending.Put(payload)

	if perr := m.lastErr.Swap(nil); perr != nil {
		return *perr
	}
	return nil
}

// Dropped returns how many frames were replaced before they were published.
func (m *MQTTSink) Dropped() uint64 {
	return m.pending.Dropped()
}

func (m *MQTTSink) publish(ctx context.Context) {
	defer m.wg.Done()
	for {
		payload, err := m.pending.Take(ctx)
		if err != nil {
			return
		}
		token := m.client.Publish(m.topic, 0, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			m.fail(fmt.Errorf("mqtt publish to %s timed out", m.topic))
			continue
		}
		if err := token.Error(); err != nil {
			m.fail(fmt.Errorf("mqtt publish to %s: %w", m.topic, err))
		}
	}
}

func (m *MQTTSink) fail(err error) {
	if prev := m.lastErr.Swap(&err); prev != nil {
		log.Printf("telemetry: %v", *prev)
	}
}

// Close stops the publisher and disconnects the client.
func (m *MQTTSink) Close() error {
	m.once.Do(func() {
		m.cancel()
		m.wg.Wait()
		m.client.Disconnect(250)
	})
	return nil
}

package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// offlineBufferCapacity bounds the number of messages held while the broker
// is unreachable. Transition events are sparse (a handful per day), so this
// covers multi-day outages.
const offlineBufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. While disconnected it
// buffers messages and replays them in order on reconnect.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue
}

// NewRealPublisher creates a publisher connecting to the given broker.
// Connection failures are not fatal: paho retries in the background and the
// offline buffer holds events until the broker is reachable.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{queue: newOfflineQueue(offlineBufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("grow-controller").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// Publish sends a relay transition event, buffering it if disconnected.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event, buffering it if disconnected.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once): lifecycle events should survive flaky links
	return p.send(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.enqueue(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.queue.size()
		p.mu.Unlock()
		log.Printf("mqtt: broker unreachable, buffered message (%d pending)", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// onConnect replays buffered messages in arrival order.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	pending, dropped := p.queue.drain()
	p.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	if dropped > 0 {
		log.Printf("mqtt: offline buffer overflowed, %d oldest messages lost", dropped)
	}
	log.Printf("mqtt: connected, replaying %d buffered messages", len(pending))
	for _, msg := range pending {
		token := client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", msg.topic)
		} else if err := token.Error(); err != nil {
			log.Printf("mqtt: replay failed on %s: %v", msg.topic, err)
		}
	}
}

// IsConnected reports the live connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

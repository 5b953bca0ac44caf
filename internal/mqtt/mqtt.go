// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/grow-controller/internal/gpio"
)

// Topic is the MQTT topic for relay transition events.
const Topic = "garden/grow/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "garden/grow/system"

// Event represents one relay transition to be published.
type Event struct {
	Timestamp time.Time
	Channel   gpio.Channel
	On        bool
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a relay transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT", "BLOOM_EXPIRED", "CLOCK_FAULT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Grow GrowPayload `json:"grow"`
}

// GrowPayload contains the transition event details.
type GrowPayload struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	State     string `json:"state"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event Event) ([]byte, error) {
	state := "OFF"
	if event.On {
		state = "ON"
	}
	payload := Payload{
		Grow: GrowPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Channel:   event.Channel.String(),
			State:     state,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

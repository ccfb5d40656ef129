// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/usb-selector/internal/control"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "devices/usb-selector"

// EventsTopic returns the topic for control events.
func EventsTopic(prefix string) string { return prefix + "/events" }

// SystemTopic returns the topic for system lifecycle events.
func SystemTopic(prefix string) string { return prefix + "/system" }

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a control event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(ts time.Time, event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Selector SelectorPayload `json:"selector"`
}

// SelectorPayload contains the control event details. Fields that do not
// apply to the event type are omitted.
type SelectorPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Port      string `json:"port,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Setting   string `json:"setting,omitempty"`
	Value     *int32 `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a control event.
func FormatPayload(ts time.Time, event control.Event) ([]byte, error) {
	p := SelectorPayload{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
	}

	switch event.Type {
	case control.EventPortSwitched, control.EventPortSaved:
		p.Port = event.Port.String()
	case control.EventSetupEntered:
		p.Mode = event.Mode.String()
	case control.EventLimitReached:
		p.Mode = event.Mode.String()
		v := event.Value
		p.Value = &v
	case control.EventSettingSaved, control.EventThresholdCaptured:
		p.Setting = string(event.Setting)
		v := event.Value
		p.Value = &v
	case control.EventRelayHigh, control.EventRelayLow:
		v := event.Value
		p.Value = &v
	}
	if event.Err != nil {
		p.Error = event.Err.Error()
	}

	return json.Marshal(Payload{Selector: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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

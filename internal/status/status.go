// Package status provides a thread-safe status tracker for the
// usb-selector daemon. It is read by the HTTP handlers and the MQTT
// snapshot publisher while the control loop updates it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/usb-selector/internal/control"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	StateDir    string
}

// EventCounts tallies control events since startup.
type EventCounts struct {
	PortSwitches  int
	RelayHigh     int
	RelayLow      int
	SetupSessions int
	SettingsSaved int
	PersistErrors int
}

// Count tallies one control event.
func (c *EventCounts) Count(event control.Event) {
	switch event.Type {
	case control.EventPortSwitched:
		c.PortSwitches++
	case control.EventRelayHigh:
		c.RelayHigh++
	case control.EventRelayLow:
		c.RelayLow++
	case control.EventSetupEntered:
		c.SetupSessions++
	case control.EventSettingSaved, control.EventThresholdCaptured:
		c.SettingsSaved++
	}
	if event.Err != nil {
		c.PersistErrors++
	}
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Port           control.Port
	Relay          control.RelayState
	SetupMode      control.SetupMode
	Settings       control.Settings
	Reading        int32
	InvalidSamples uint64
	Counts         EventCounts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the core state fields and tallies the tick's events.
// Called from runLoop on every tick.
func (t *Tracker) Update(port control.Port, relay control.RelayState, mode control.SetupMode, settings control.Settings, reading int32, invalid uint64, events []control.Event) {
	t.mu.Lock()
	t.snap.Port = port
	t.snap.Relay = relay
	t.snap.SetupMode = mode
	t.snap.Settings = settings
	t.snap.Reading = reading
	t.snap.InvalidSamples = invalid
	for _, ev := range events {
		t.snap.Counts.Count(ev)
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Package control contains the pure decision core of the USB selector:
// button press classification, the relay hysteresis machine, the status
// lamp pattern engine, the setup menu machine, and port selection.
// This package has NO hardware or OS dependencies; output lines and the
// persistent store are reached through narrow interfaces, and time is
// always injected as a Micros timestamp.
package control

import "time"

// Micros is a monotonic microsecond timestamp from the hardware timebase.
// The counter is 32 bits wide and wraps roughly every 71 minutes; all
// elapsed-time math relies on unsigned subtraction being modular, so a
// wrap between two samples still yields the correct interval.
type Micros uint32

// Since returns the elapsed time from earlier to m, wrap-safe.
func (m Micros) Since(earlier Micros) time.Duration {
	return time.Duration(m-earlier) * time.Microsecond
}

// Press classification tiers. A press shorter than PressShortMin is
// treated as contact bounce and suppressed.
const (
	PressShortMin = 60 * time.Millisecond
	PressLongMin  = 1000 * time.Millisecond
	PressMaxMin   = 4000 * time.Millisecond
)

// Sensor and threshold limits. ADCMax is divisible by 35, so the
// threshold adjustment covers the full range in exact steps.
const (
	ADCMax        int32 = 4095
	ThresholdStep int32 = ADCMax / 35
)

// Latch time limits for the relay dwell filter.
const (
	LatchTimeMax  = 60 * time.Second
	LatchTimeStep = 250 * time.Millisecond
)

// Restore defaults, applied when a persisted value is out of range.
const (
	DefaultUpperThreshold int32 = 3510
	DefaultLowerThreshold int32 = 585
	DefaultLatchTime            = 500 * time.Millisecond
)

// Status lamp timing.
const (
	PulseShort = 200 * time.Millisecond
	PulseLong  = 1100 * time.Millisecond

	DefaultFadeTime  = 1500 * time.Millisecond
	DefaultFadeSteps = 1000

	// Dwell added to the penultimate fade step so the terminal
	// brightness visibly settles before the cycle restarts.
	fadeSettle = 400 * time.Millisecond
)

// PortCommitDelay is the quiet period after a port toggle before the
// active port is persisted. Debounce against flash wear, not against
// the button itself.
const PortCommitDelay = 5 * time.Second

// Duty cycle scale for the status lamp PWM. The direction is inverted:
// numerically lower means brighter.
const (
	DutyBright uint16 = 0
	DutyDark   uint16 = 0xFFFF
)

// Port identifies the active USB port.
type Port uint8

const (
	PortA Port = iota
	PortB
	// PortNone is defined by the hardware state model but never entered:
	// the selector always powers exactly one port.
	PortNone
)

func (p Port) String() string {
	switch p {
	case PortA:
		return "A"
	case PortB:
		return "B"
	case PortNone:
		return "NONE"
	}
	return "UNKNOWN"
}

// Settings holds the runtime-adjustable configuration. The in-RAM copy
// is the source of truth; it is mirrored to the persistent store only at
// explicit commit points.
type Settings struct {
	UpperThreshold int32
	LowerThreshold int32
	LatchTime      time.Duration
}

// DefaultSettings returns the hard-coded restore defaults.
func DefaultSettings() Settings {
	return Settings{
		UpperThreshold: DefaultUpperThreshold,
		LowerThreshold: DefaultLowerThreshold,
		LatchTime:      DefaultLatchTime,
	}
}

// Setting names a persisted configuration field in events and store blocks.
type Setting string

const (
	SettingUpperThreshold Setting = "upper_threshold"
	SettingLowerThreshold Setting = "lower_threshold"
	SettingLatchTime      Setting = "latch_time"
	SettingActivePort     Setting = "active_port"
)

// RelayLine drives the physical relay contact and reads it back.
type RelayLine interface {
	Set(closed bool)
	Closed() bool
}

// PortLines drives the port power, data mux, and port LED outputs as one
// synchronous switch-over.
type PortLines interface {
	Apply(p Port)
}

// StatusLamp sets the indicator PWM duty cycle. Lower is brighter.
type StatusLamp interface {
	SetDuty(duty uint16)
}

// Saver persists configuration values at commit points. Implementations
// own atomicity; the core only decides when to commit.
type Saver interface {
	SaveUpperThreshold(v int32) error
	SaveLowerThreshold(v int32) error
	SaveLatchTime(d time.Duration) error
	SaveActivePort(p Port) error
}

// EventType identifies a core event for logging and telemetry.
type EventType string

const (
	EventPortSwitched      EventType = "PORT_SWITCHED"
	EventPortSaved         EventType = "PORT_SAVED"
	EventRelayHigh         EventType = "RELAY_HIGH"
	EventRelayLow          EventType = "RELAY_LOW"
	EventSetupEntered      EventType = "SETUP_ENTERED"
	EventSetupExited       EventType = "SETUP_EXITED"
	EventSettingSaved      EventType = "SETTING_SAVED"
	EventThresholdCaptured EventType = "THRESHOLD_CAPTURED"
	EventLimitReached      EventType = "LIMIT_REACHED"
)

// Event is a read-only record of something the core did during a tick.
// Fields beyond Type are populated where they apply.
type Event struct {
	Type    EventType
	Port    Port
	Mode    SetupMode
	Setting Setting
	Value   int32
	Err     error // set when a persist attempt failed
}

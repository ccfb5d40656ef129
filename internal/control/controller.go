package control

import "time"

// Input is one poll-pass sample set: logical button levels, the latest
// completed analog conversion, and the current time. Button levels are
// already converted from raw line polarity by the HAL.
type Input struct {
	Select bool
	Up     bool
	Down   bool

	Sensor      int32
	SensorValid bool

	Now Micros
}

// Controller owns all per-component state and advances every component
// exactly once per call to Tick. Single-threaded by contract: everything
// mutable lives here and is touched only from the poll loop.
type Controller struct {
	settings Settings

	selectBtn Button
	upBtn     Button
	downBtn   Button

	relay Hysteresis
	lamp  *Lamp
	setup Setup
	port  *Selector

	relayLine RelayLine
	portLines PortLines
	saver     Saver

	lastSensor     int32
	invalidSamples uint64
}

// NewController wires the core to its output lines and store.
func NewController(settings Settings, activePort Port, relayLine RelayLine, portLines PortLines, pwm StatusLamp, saver Saver) *Controller {
	return &Controller{
		settings:  settings,
		lamp:      NewLamp(pwm, relayLine),
		port:      NewSelector(activePort),
		relayLine: relayLine,
		portLines: portLines,
		saver:     saver,
	}
}

// Start applies the restored port and the initial output levels: relay
// open, lamp dark. Call once before the first Tick.
func (c *Controller) Start() {
	c.portLines.Apply(c.port.Active())
	c.relayLine.Set(false)
	c.lamp.pwm.SetDuty(DutyDark)
}

// Tick runs one poll pass and returns the events it produced. Order
// mirrors the hardware loop: lamp render, button classification, port
// selection, relay, setup menu, then unconsumed presses are dropped.
func (c *Controller) Tick(in Input) []Event {
	now := in.Now

	// The sensor delivers asynchronously; on a miss the last completed
	// value is reused and the miss is only counted, never surfaced.
	if in.SensorValid {
		c.lastSensor = in.Sensor
	} else {
		c.invalidSamples++
	}
	reading := c.lastSensor

	c.lamp.Tick(now)

	c.selectBtn.Update(in.Select, now)
	c.upBtn.Update(in.Up, now)
	c.downBtn.Update(in.Down, now)

	var events []Event
	events = append(events, c.port.Tick(c.selectBtn.Pending(), now, c.portLines, c.saver)...)

	if c.relay.Tick(reading, c.settings, now) {
		closed := c.relay.State() == RelayHigh
		c.relayLine.Set(closed)
		// While a menu is open the lamp shows menu state, not the relay.
		if c.setup.Mode() == SetupIdle {
			c.lamp.Request(PatternMirrorRelay)
		}
		typ := EventRelayLow
		if closed {
			typ = EventRelayHigh
		}
		events = append(events, Event{Type: typ, Value: reading})
	}

	events = append(events, c.setup.Tick(c.upBtn.Pending(), c.downBtn.Pending(), reading, &c.settings, c.lamp, c.saver)...)

	// A press classified this pass but consumed by nobody does not
	// carry over to the next one.
	c.selectBtn.Clear()
	c.upBtn.Clear()
	c.downBtn.Clear()

	return events
}

// Settings returns a snapshot of the current configuration values.
func (c *Controller) Settings() Settings {
	return c.settings
}

// ActivePort returns the selected port.
func (c *Controller) ActivePort() Port {
	return c.port.Active()
}

// RelayState returns the hysteresis machine state.
func (c *Controller) RelayState() RelayState {
	return c.relay.State()
}

// SetupMode returns the configuration menu state.
func (c *Controller) SetupMode() SetupMode {
	return c.setup.Mode()
}

// InvalidSamples returns how many poll passes ran without a fresh valid
// conversion.
func (c *Controller) InvalidSamples() uint64 {
	return c.invalidSamples
}

// Reading returns the last analog value the core acted on.
func (c *Controller) Reading() int32 {
	return c.lastSensor
}

// StartupErrorBlink flashes the fixed on/off/on/off restore-failure cue.
// It deliberately bypasses the pattern engine: it runs before the poll
// loop exists, and there is no other user-visible fault channel.
func StartupErrorBlink(pwm StatusLamp, sleep func(time.Duration)) {
	pwm.SetDuty(DutyBright)
	sleep(150 * time.Millisecond)
	pwm.SetDuty(DutyDark)
	sleep(200 * time.Millisecond)
	pwm.SetDuty(DutyBright)
	sleep(150 * time.Millisecond)
	pwm.SetDuty(DutyDark)
	sleep(500 * time.Millisecond)
}

// Package hal provides the hardware access layer: button inputs, output
// lines, the status LED PWM and the analog sensor. The real implementation
// uses the Linux GPIO character device plus sysfs PWM and IIO. The fake
// implementations allow testing without hardware.
package hal

// Levels is one sample of the logical button states. The raw lines are
// active-low with pull-ups; the HAL inverts, so true means pressed.
type Levels struct {
	Select bool
	Up     bool
	Down   bool
}

// Inputs reads the button lines.
type Inputs interface {
	// Read returns the current logical button levels.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// Outputs drives the relay, the port mux and the indicator LEDs.
type Outputs interface {
	// SetRelay drives the relay line. true = contact closed.
	SetRelay(closed bool) error

	// Relay returns the last level written to the relay line.
	Relay() bool

	// SelectPort routes the downstream connector. Power, mux select and
	// the per-port LEDs switch together; the port being left is powered
	// off before the other is powered on.
	SelectPort(portB bool) error

	// SetStatusDuty sets the status LED PWM compare value.
	// Lower values are brighter; 0xFFFF is fully dark.
	SetStatusDuty(duty uint16) error

	// SetPortLEDs drives the two port LEDs directly. Used only for the
	// init-failure flash, which runs before the control loop exists.
	SetPortLEDs(a, b bool) error

	// Close releases GPIO and PWM resources.
	Close() error
}

// Sensor delivers analog conversions. Conversions are asynchronous: the
// loop calls StartConversion once per pass and picks up whatever result
// has completed since the last pass.
type Sensor interface {
	// Latest returns the most recent completed conversion and whether a
	// fresh one arrived since the previous call.
	Latest() (int32, bool)

	// StartConversion triggers the next sample.
	StartConversion()

	// Close stops the sampler.
	Close() error
}

// Clock returns the current time as a free-running microsecond counter.
// The counter wraps; consumers must use modular arithmetic.
type Clock interface {
	Now() uint32
}

// OutputPins names the lines Outputs drives.
type OutputPins struct {
	Relay      int
	PortPowerA int
	PortPowerB int
	MuxSelect  int
	MuxEnable  int
	LEDPortA   int
	LEDPortB   int
}

// DefaultOutputPins returns the board's wiring.
func DefaultOutputPins() OutputPins {
	return OutputPins{
		Relay:      PinRelay,
		PortPowerA: PinPortPowerA,
		PortPowerB: PinPortPowerB,
		MuxSelect:  PinMuxSelect,
		MuxEnable:  PinMuxEnable,
		LEDPortA:   PinLEDPortA,
		LEDPortB:   PinLEDPortB,
	}
}

// Pin definitions (BCM numbering)
const (
	PinButtonSelect = 17
	PinButtonUp     = 27
	PinButtonDown   = 22

	PinRelay      = 23
	PinPortPowerA = 24
	PinPortPowerB = 25
	PinMuxSelect  = 5
	PinMuxEnable  = 6 // active low
	PinLEDPortA   = 12
	PinLEDPortB   = 13
)

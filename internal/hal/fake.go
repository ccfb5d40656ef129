package hal

import "errors"

// FakeInputs is a test double that returns scripted button levels.
type FakeInputs struct {
	// Samples contains scripted levels to return. Each call to Read()
	// consumes the next sample; once exhausted the last one repeats.
	Samples []Levels

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInputs creates a FakeInputs with the given samples.
func NewFakeInputs(samples []Levels) *FakeInputs {
	return &FakeInputs{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeInputs) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the inputs as closed.
func (f *FakeInputs) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the beginning of the samples.
func (f *FakeInputs) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutputs records every write for assertions.
type FakeOutputs struct {
	RelaySets []bool
	PortSets  []bool // true = port B
	Duties    []uint16
	LEDWrites [][2]bool
	Closed    bool

	// Err, if set, will be returned by every write.
	Err error

	relayClosed bool
}

// NewFakeOutputs creates an empty recorder.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// SetRelay records the relay level.
func (f *FakeOutputs) SetRelay(closed bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.RelaySets = append(f.RelaySets, closed)
	f.relayClosed = closed
	return nil
}

// Relay returns the last recorded relay level.
func (f *FakeOutputs) Relay() bool {
	return f.relayClosed
}

// SelectPort records the routed port.
func (f *FakeOutputs) SelectPort(portB bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.PortSets = append(f.PortSets, portB)
	return nil
}

// SetStatusDuty records the PWM compare value.
func (f *FakeOutputs) SetStatusDuty(duty uint16) error {
	if f.Err != nil {
		return f.Err
	}
	f.Duties = append(f.Duties, duty)
	return nil
}

// SetPortLEDs records the LED levels.
func (f *FakeOutputs) SetPortLEDs(a, b bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.LEDWrites = append(f.LEDWrites, [2]bool{a, b})
	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	return nil
}

// FakeSensor returns scripted conversion results. Each StartConversion
// completes the next scripted value synchronously; Latest reports it
// fresh exactly once.
type FakeSensor struct {
	Values []int32
	Closed bool

	index int
	value int32
	fresh bool
}

// NewFakeSensor creates a FakeSensor with the given conversion results.
func NewFakeSensor(values []int32) *FakeSensor {
	return &FakeSensor{Values: values}
}

// Latest returns the last completed conversion.
func (f *FakeSensor) Latest() (int32, bool) {
	v, fresh := f.value, f.fresh
	f.fresh = false
	return v, fresh
}

// StartConversion completes the next scripted value immediately. Once
// the script is exhausted the last value repeats.
func (f *FakeSensor) StartConversion() {
	if len(f.Values) == 0 {
		return
	}
	f.value = f.Values[f.index]
	f.fresh = true
	if f.index < len(f.Values)-1 {
		f.index++
	}
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// FakeClock is a manually advanced microsecond counter.
type FakeClock struct {
	Micros uint32
}

// Now returns the current counter value.
func (c *FakeClock) Now() uint32 {
	return c.Micros
}

// Advance moves the counter forward by us microseconds, wrapping.
func (c *FakeClock) Advance(us uint32) {
	c.Micros += us
}

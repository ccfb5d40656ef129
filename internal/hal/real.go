//go:build linux

package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealInputs reads the buttons from actual hardware using the Linux GPIO
// character device.
type RealInputs struct {
	chip      *gpiocdev.Chip
	selectPin *gpiocdev.Line
	upPin     *gpiocdev.Line
	downPin   *gpiocdev.Line
}

// NewRealInputs requests the three button lines as inputs with pull-ups.
// The buttons short to ground, so raw 0 means pressed.
func NewRealInputs(pinSelect, pinUp, pinDown int) (*RealInputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealInputs{chip: chip}
	for _, req := range []struct {
		pin  int
		name string
		dst  **gpiocdev.Line
	}{
		{pinSelect, "select", &r.selectPin},
		{pinUp, "up", &r.upPin},
		{pinDown, "down", &r.downPin},
	} {
		line, err := chip.RequestLine(req.pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s button pin %d: %w", req.name, req.pin, err)
		}
		*req.dst = line
	}
	return r, nil
}

// Read returns the logical button levels. Inverts raw GPIO: raw 0 (pulled
// to ground) = pressed.
func (r *RealInputs) Read() (Levels, error) {
	var l Levels
	for _, pin := range []struct {
		line *gpiocdev.Line
		name string
		dst  *bool
	}{
		{r.selectPin, "select", &l.Select},
		{r.upPin, "up", &l.Up},
		{r.downPin, "down", &l.Down},
	} {
		raw, err := pin.line.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read %s button: %w", pin.name, err)
		}
		*pin.dst = raw == 0
	}
	return l, nil
}

// Close releases GPIO resources.
func (r *RealInputs) Close() error {
	for _, line := range []*gpiocdev.Line{r.selectPin, r.upPin, r.downPin} {
		if line != nil {
			line.Close()
		}
	}
	if r.chip != nil {
		return r.chip.Close()
	}
	return nil
}

// RealOutputs drives the relay, mux, port power and LED lines, plus the
// status LED through a sysfs PWM channel.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	relay *gpiocdev.Line
	pwrA  *gpiocdev.Line
	pwrB  *gpiocdev.Line
	mux   *gpiocdev.Line
	muxEn *gpiocdev.Line
	ledA  *gpiocdev.Line
	ledB  *gpiocdev.Line

	pwmDir   string
	periodNs int64

	relayClosed bool
}

// NewRealOutputs requests the output lines in their safe initial state
// (relay open, both ports unpowered, mux enabled) and configures the PWM
// channel at pwmDir (e.g. /sys/class/pwm/pwmchip0/pwm0) with the given
// period.
func NewRealOutputs(pins OutputPins, pwmDir string, period time.Duration) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	o := &RealOutputs{chip: chip, pwmDir: pwmDir, periodNs: period.Nanoseconds()}
	for _, req := range []struct {
		pin     int
		name    string
		initial int
		dst     **gpiocdev.Line
	}{
		{pins.Relay, "relay", 0, &o.relay},
		{pins.PortPowerA, "port A power", 0, &o.pwrA},
		{pins.PortPowerB, "port B power", 0, &o.pwrB},
		{pins.MuxSelect, "mux select", 0, &o.mux},
		{pins.MuxEnable, "mux enable", 0, &o.muxEn}, // active low
		{pins.LEDPortA, "port A LED", 1, &o.ledA},   // active low
		{pins.LEDPortB, "port B LED", 1, &o.ledB},
	} {
		line, err := chip.RequestLine(req.pin, gpiocdev.AsOutput(req.initial))
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.pin, err)
		}
		*req.dst = line
	}

	if err := o.writePWM("period", o.periodNs); err != nil {
		o.Close()
		return nil, err
	}
	if err := o.SetStatusDuty(0xFFFF); err != nil {
		o.Close()
		return nil, err
	}
	if err := o.writePWM("enable", 1); err != nil {
		o.Close()
		return nil, err
	}
	return o, nil
}

// SetRelay drives the relay line. true = contact closed.
func (o *RealOutputs) SetRelay(closed bool) error {
	v := 0
	if closed {
		v = 1
	}
	if err := o.relay.SetValue(v); err != nil {
		return fmt.Errorf("set relay: %w", err)
	}
	o.relayClosed = closed
	return nil
}

// Relay returns the last level written to the relay line.
func (o *RealOutputs) Relay() bool {
	return o.relayClosed
}

// SelectPort powers down the port being left before switching the mux and
// powering the other, so both ports are never driven at once.
func (o *RealOutputs) SelectPort(portB bool) error {
	off, on := o.pwrB, o.pwrA
	ledOn, ledOff := o.ledA, o.ledB
	sel := 0
	if portB {
		off, on = o.pwrA, o.pwrB
		ledOn, ledOff = o.ledB, o.ledA
		sel = 1
	}

	for _, step := range []struct {
		line *gpiocdev.Line
		v    int
		name string
	}{
		{off, 0, "port power off"},
		{o.mux, sel, "mux select"},
		{ledOn, 0, "port LED on"}, // active low
		{ledOff, 1, "port LED off"},
		{on, 1, "port power on"},
	} {
		if err := step.line.SetValue(step.v); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// SetStatusDuty maps the 16-bit compare value onto the PWM period.
// 0 is fully bright, 0xFFFF fully dark.
func (o *RealOutputs) SetStatusDuty(duty uint16) error {
	ns := o.periodNs * int64(0xFFFF-duty) / 0xFFFF
	return o.writePWM("duty_cycle", ns)
}

// SetPortLEDs drives the port LEDs directly. Lines are active low.
func (o *RealOutputs) SetPortLEDs(a, b bool) error {
	av, bv := 1, 1
	if a {
		av = 0
	}
	if b {
		bv = 0
	}
	if err := o.ledA.SetValue(av); err != nil {
		return fmt.Errorf("set port A LED: %w", err)
	}
	if err := o.ledB.SetValue(bv); err != nil {
		return fmt.Errorf("set port B LED: %w", err)
	}
	return nil
}

func (o *RealOutputs) writePWM(attr string, v int64) error {
	path := filepath.Join(o.pwmDir, attr)
	if err := os.WriteFile(path, []byte(strconv.FormatInt(v, 10)), 0o644); err != nil {
		return fmt.Errorf("write pwm %s: %w", attr, err)
	}
	return nil
}

// Close opens the relay, cuts port power and disables the PWM before
// releasing the lines, so a restart never leaves a port half-driven.
func (o *RealOutputs) Close() error {
	if o.relay != nil {
		o.relay.SetValue(0)
	}
	for _, line := range []*gpiocdev.Line{o.pwrA, o.pwrB} {
		if line != nil {
			line.SetValue(0)
		}
	}
	o.writePWM("enable", 0)

	for _, line := range []*gpiocdev.Line{o.relay, o.pwrA, o.pwrB, o.mux, o.muxEn, o.ledA, o.ledB} {
		if line != nil {
			line.Close()
		}
	}
	if o.chip != nil {
		return o.chip.Close()
	}
	return nil
}

// RealSensor samples an IIO ADC channel (e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw). File reads can block
// on slow converters, so sampling runs on its own goroutine and the loop
// only picks up completed results.
type RealSensor struct {
	path    string
	trigger chan struct{}
	stop    chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	value int32
	fresh bool
	err   error
}

// NewRealSensor starts the sampling goroutine.
func NewRealSensor(path string) (*RealSensor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sensor channel: %w", err)
	}
	s := &RealSensor{
		path:    path,
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sample()
	return s, nil
}

func (s *RealSensor) sample() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.trigger:
		}

		raw, err := os.ReadFile(s.path)
		s.mu.Lock()
		if err != nil {
			s.err = fmt.Errorf("read sensor: %w", err)
		} else if v, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 32); perr != nil {
			s.err = fmt.Errorf("parse sensor value %q: %w", strings.TrimSpace(string(raw)), perr)
		} else {
			s.value = int32(v)
			s.fresh = true
			s.err = nil
		}
		s.mu.Unlock()
	}
}

// Latest returns the most recent completed conversion. fresh is true only
// if a new result arrived since the previous call.
func (s *RealSensor) Latest() (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, fresh := s.value, s.fresh
	s.fresh = false
	return v, fresh
}

// Err returns the last sampling error, if any.
func (s *RealSensor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// StartConversion asks the goroutine for another sample. If one is
// already in flight the request coalesces.
func (s *RealSensor) StartConversion() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Close stops the sampling goroutine.
func (s *RealSensor) Close() error {
	close(s.stop)
	<-s.done
	return nil
}

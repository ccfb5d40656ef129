//go:build !linux

package hal

import (
	"errors"
	"time"
)

var errNotSupported = errors.New("hal: not supported on this platform (requires Linux)")

// RealInputs is not available on non-Linux platforms.
type RealInputs struct{}

// NewRealInputs returns an error on non-Linux platforms.
func NewRealInputs(pinSelect, pinUp, pinDown int) (*RealInputs, error) {
	return nil, errNotSupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealInputs) Read() (Levels, error) { return Levels{}, errNotSupported }

// Close is not implemented on non-Linux platforms.
func (r *RealInputs) Close() error { return nil }

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(pins OutputPins, pwmDir string, period time.Duration) (*RealOutputs, error) {
	return nil, errNotSupported
}

func (o *RealOutputs) SetRelay(closed bool) error      { return errNotSupported }
func (o *RealOutputs) Relay() bool                     { return false }
func (o *RealOutputs) SelectPort(portB bool) error     { return errNotSupported }
func (o *RealOutputs) SetStatusDuty(duty uint16) error { return errNotSupported }
func (o *RealOutputs) SetPortLEDs(a, b bool) error     { return errNotSupported }
func (o *RealOutputs) Close() error                    { return nil }

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(path string) (*RealSensor, error) { return nil, errNotSupported }

func (s *RealSensor) Latest() (int32, bool) { return 0, false }
func (s *RealSensor) StartConversion()      {}
func (s *RealSensor) Err() error            { return errNotSupported }
func (s *RealSensor) Close() error          { return nil }

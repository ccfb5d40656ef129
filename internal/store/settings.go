package store

import (
	"errors"
	"time"

	"github.com/sweeney/usb-selector/internal/control"
)

// Loaded is the result of restoring the configuration at boot.
type Loaded struct {
	Settings control.Settings
	Port     control.Port

	// Invalid lists the settings whose stored value was unreadable or
	// out of range and fell back to the default. A block that was never
	// written is not invalid; first boot restores defaults silently.
	Invalid []control.Setting
}

// LoadSettings restores the configuration, substituting the hard-coded
// default for any field that is missing, unreadable or out of range.
// Range checks happen here, on the raw stored value: a corrupt store
// must never push an impossible threshold or latch time into the core.
func LoadSettings(s Store) Loaded {
	l := Loaded{Settings: control.DefaultSettings(), Port: control.PortA}

	if v, ok := loadField(s, control.SettingUpperThreshold, 0, control.ADCMax, &l.Invalid); ok {
		l.Settings.UpperThreshold = v
	}
	if v, ok := loadField(s, control.SettingLowerThreshold, 0, control.ADCMax, &l.Invalid); ok {
		l.Settings.LowerThreshold = v
	}
	maxLatch := int32(control.LatchTimeMax / time.Millisecond)
	if v, ok := loadField(s, control.SettingLatchTime, 0, maxLatch, &l.Invalid); ok {
		l.Settings.LatchTime = time.Duration(v) * time.Millisecond
	}

	// The port gets no error cue: an unrecognized value silently means
	// port A, same as first boot.
	if v, err := s.Read(string(control.SettingActivePort)); err == nil && v == int32(control.PortB) {
		l.Port = control.PortB
	}

	return l
}

// loadField reads one block. ok is true only when the stored value is
// present, readable and within [min, max].
func loadField(s Store, name control.Setting, min, max int32, invalid *[]control.Setting) (int32, bool) {
	v, err := s.Read(string(name))
	if errors.Is(err, ErrNotFound) {
		return 0, false
	}
	if err != nil || v < min || v > max {
		*invalid = append(*invalid, name)
		return 0, false
	}
	return v, true
}

// SettingsWriter adapts a Store to the commit points of the control
// core.
type SettingsWriter struct {
	S Store
}

func (w SettingsWriter) SaveUpperThreshold(v int32) error {
	return w.S.Write(string(control.SettingUpperThreshold), v)
}

func (w SettingsWriter) SaveLowerThreshold(v int32) error {
	return w.S.Write(string(control.SettingLowerThreshold), v)
}

func (w SettingsWriter) SaveLatchTime(d time.Duration) error {
	return w.S.Write(string(control.SettingLatchTime), int32(d/time.Millisecond))
}

func (w SettingsWriter) SaveActivePort(p control.Port) error {
	return w.S.Write(string(control.SettingActivePort), int32(p))
}

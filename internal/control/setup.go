package control

import "time"

// SetupMode is the modal state of the configuration menu. While not
// idle, the up/down button channels belong to the menu and the port
// selector keeps only the select button.
type SetupMode uint8

const (
	SetupIdle SetupMode = iota
	SetupUpper
	SetupLower
	SetupLatch
)

func (m SetupMode) String() string {
	switch m {
	case SetupIdle:
		return "idle"
	case SetupUpper:
		return "editing-upper"
	case SetupLower:
		return "editing-lower"
	case SetupLatch:
		return "editing-latch"
	}
	return "unknown"
}

// Setup is the display-less configuration menu. Menu position is
// signaled entirely through the status lamp: fade-up while editing the
// upper threshold, fade-down for the lower, blink(1) for the latch time.
type Setup struct {
	mode SetupMode
}

// Mode returns the current menu state.
func (s *Setup) Mode() SetupMode {
	return s.mode
}

// Tick interprets the pending up/down presses. Threshold and latch
// commits are written to the store immediately on menu exit: these are
// infrequent, deliberate user actions, unlike port toggles which get a
// delayed commit.
func (s *Setup) Tick(up, down PressKind, reading int32, cfg *Settings, lamp *Lamp, save Saver) []Event {
	var events []Event

	switch s.mode {
	case SetupIdle:
		switch {
		case up == PressLong || down == PressLong:
			s.mode = SetupLatch
			lamp.RequestBlink(1)
			events = append(events, Event{Type: EventSetupEntered, Mode: s.mode})
		case up == PressShort:
			s.mode = SetupUpper
			lamp.Request(PatternFadeUp)
			events = append(events, Event{Type: EventSetupEntered, Mode: s.mode})
		case down == PressShort:
			s.mode = SetupLower
			lamp.Request(PatternFadeDown)
			events = append(events, Event{Type: EventSetupEntered, Mode: s.mode})
		}

	case SetupUpper:
		switch {
		case up == PressLong || down == PressLong:
			events = append(events, s.commit(SettingUpperThreshold, cfg.UpperThreshold, save)...)
			s.exit(lamp)
			events = append(events, Event{Type: EventSetupExited})
		case up == PressShort:
			cfg.UpperThreshold = s.adjust(cfg.UpperThreshold, ThresholdStep, ADCMax, PatternFadeUp, lamp, &events)
		case down == PressShort:
			cfg.UpperThreshold = s.adjust(cfg.UpperThreshold, -ThresholdStep, ADCMax, PatternFadeUp, lamp, &events)
		case up == PressMax:
			// Capture the live reading as the new threshold and leave
			// the menu with a three-pulse confirmation.
			cfg.UpperThreshold = reading
			events = append(events, s.capture(SettingUpperThreshold, reading, save)...)
			s.mode = SetupIdle
			lamp.RequestSingleBlink(3, PatternMirrorRelay)
			events = append(events, Event{Type: EventSetupExited})
		}

	case SetupLower:
		switch {
		case up == PressLong || down == PressLong:
			events = append(events, s.commit(SettingLowerThreshold, cfg.LowerThreshold, save)...)
			s.exit(lamp)
			events = append(events, Event{Type: EventSetupExited})
		case up == PressShort:
			cfg.LowerThreshold = s.adjust(cfg.LowerThreshold, ThresholdStep, ADCMax, PatternFadeDown, lamp, &events)
		case down == PressShort:
			cfg.LowerThreshold = s.adjust(cfg.LowerThreshold, -ThresholdStep, ADCMax, PatternFadeDown, lamp, &events)
		case down == PressMax:
			cfg.LowerThreshold = reading
			events = append(events, s.capture(SettingLowerThreshold, reading, save)...)
			s.mode = SetupIdle
			lamp.RequestSingleBlink(3, PatternMirrorRelay)
			events = append(events, Event{Type: EventSetupExited})
		}

	case SetupLatch:
		switch {
		case up == PressLong || down == PressLong:
			events = append(events, s.commit(SettingLatchTime, int32(cfg.LatchTime/time.Millisecond), save)...)
			s.exit(lamp)
			events = append(events, Event{Type: EventSetupExited})
		case up == PressShort:
			cfg.LatchTime = s.adjustLatch(cfg.LatchTime, LatchTimeStep, lamp, &events)
		case down == PressShort:
			cfg.LatchTime = s.adjustLatch(cfg.LatchTime, -LatchTimeStep, lamp, &events)
		}
	}

	return events
}

// exit returns to idle with the lamp mirroring the relay contact.
func (s *Setup) exit(lamp *Lamp) {
	s.mode = SetupIdle
	lamp.Request(PatternMirrorRelay)
}

// adjust steps a threshold by delta, clamped to [0, max]. Landing on a
// boundary requests a two-pulse "limit reached" cue exactly once; further
// presses while clamped step nothing and stay silent.
func (s *Setup) adjust(v, delta, max int32, resume Pattern, lamp *Lamp, events *[]Event) int32 {
	nv, hit := stepClamped(v, delta, max)
	if hit {
		lamp.RequestSingleBlink(2, resume)
		*events = append(*events, Event{Type: EventLimitReached, Mode: s.mode, Value: nv})
	}
	return nv
}

// adjustLatch is adjust for the latch time, stepping in LatchTimeStep
// increments. The cue resumes the menu's continuous blink.
func (s *Setup) adjustLatch(d, delta time.Duration, lamp *Lamp, events *[]Event) time.Duration {
	ms, hit := stepClamped(int32(d/time.Millisecond), int32(delta/time.Millisecond), int32(LatchTimeMax/time.Millisecond))
	if hit {
		lamp.RequestSingleBlink(2, PatternBlink)
		*events = append(*events, Event{Type: EventLimitReached, Mode: s.mode, Value: ms})
	}
	return time.Duration(ms) * time.Millisecond
}

// stepClamped applies delta and clamps to [0, max]. hit is true only
// when this step reached a boundary from inside the range.
func stepClamped(v, delta, max int32) (nv int32, hit bool) {
	nv = v + delta
	if nv >= max {
		hit = v < max
		nv = max
	} else if nv <= 0 {
		hit = v > 0
		nv = 0
	}
	return nv, hit
}

func (s *Setup) commit(setting Setting, v int32, save Saver) []Event {
	return []Event{{Type: EventSettingSaved, Setting: setting, Value: v, Err: s.write(setting, v, save)}}
}

func (s *Setup) capture(setting Setting, v int32, save Saver) []Event {
	return []Event{{Type: EventThresholdCaptured, Setting: setting, Value: v, Err: s.write(setting, v, save)}}
}

func (s *Setup) write(setting Setting, v int32, save Saver) error {
	switch setting {
	case SettingUpperThreshold:
		return save.SaveUpperThreshold(v)
	case SettingLowerThreshold:
		return save.SaveLowerThreshold(v)
	case SettingLatchTime:
		return save.SaveLatchTime(time.Duration(v) * time.Millisecond)
	}
	return nil
}

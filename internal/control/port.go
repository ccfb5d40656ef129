package control

// Selector tracks the active USB port and the delayed persist that
// follows a toggle. Switching is synchronous; the store write waits for
// PortCommitDelay of quiet so rapid toggling cannot wear the flash.
type Selector struct {
	active  Port
	commit  dwell
}

// NewSelector creates a Selector with the restored port. The caller is
// responsible for applying the port to the output lines at startup.
func NewSelector(initial Port) *Selector {
	return &Selector{active: initial}
}

// Active returns the currently selected port.
func (p *Selector) Active() Port {
	return p.active
}

// Tick handles the select button and the pending commit. A short press
// toggles the port and (re)starts the commit delay; other press kinds
// are ignored.
func (p *Selector) Tick(press PressKind, now Micros, lines PortLines, save Saver) []Event {
	var events []Event

	if p.commit.active && now.Since(p.commit.since) >= PortCommitDelay {
		p.commit = dwell{}
		err := save.SaveActivePort(p.active)
		events = append(events, Event{Type: EventPortSaved, Port: p.active, Err: err})
	}

	if press == PressShort {
		if p.active == PortA {
			p.active = PortB
		} else {
			p.active = PortA
		}
		lines.Apply(p.active)
		p.commit = dwell{active: true, since: now}
		events = append(events, Event{Type: EventPortSwitched, Port: p.active})
	}

	return events
}

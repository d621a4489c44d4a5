// Package protocol parses the line-oriented event protocol spoken by the
// encoder board: one "name=value" pair per line, e.g. "rot0=-2,".
package protocol

import (
	"regexp"
	"strconv"
)

// Kind identifies the control an event came from.
type Kind int

const (
	KindUnknown Kind = iota
	KindBrightnessDial
	KindKelvinDial
	KindPowerSwitch
	KindAuxSwitch
)

// Event names emitted by the board firmware.
const (
	NameBrightnessDial = "rot0"
	NameKelvinDial     = "rot1"
	NamePowerSwitch    = "sw0"
	NameAuxSwitch      = "sw1"
)

func (k Kind) String() string {
	switch k {
	case KindBrightnessDial:
		return "brightness_dial"
	case KindKelvinDial:
		return "kelvin_dial"
	case KindPowerSwitch:
		return "power_switch"
	case KindAuxSwitch:
		return "aux_switch"
	default:
		return "unknown"
	}
}

// Event is a single decoded line.
type Event struct {
	Name  string
	Value int
}

// Kind maps the event name onto a known control.
func (e Event) Kind() Kind {
	switch e.Name {
	case NameBrightnessDial:
		return KindBrightnessDial
	case NameKelvinDial:
		return KindKelvinDial
	case NamePowerSwitch:
		return KindPowerSwitch
	case NameAuxSwitch:
		return KindAuxSwitch
	default:
		return KindUnknown
	}
}

var linePattern = regexp.MustCompile(`^([A-Za-z0-9_]+)=(-?[0-9]+),?`)

// Parse extracts an event from a line. Lines that do not start with a
// "name=value" pair report false; anything after the first pair is ignored.
func Parse(line string) (Event, bool) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}

	value, err := strconv.Atoi(m[2])
	if err != nil {
		// Out of range for int
		return Event{}, false
	}

	return Event{Name: m[1], Value: value}, true
}

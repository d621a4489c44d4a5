// Package light holds the dimmer state machine: it turns dial and switch
// events into clamped brightness and color temperature and pushes them to a Sink.
package light

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dialight/internal/metrics"
	"github.com/dokzlo13/dialight/internal/protocol"
)

// Params configures the controller's ranges, steps and starting state.
type Params struct {
	On             bool
	Brightness     float64 // starting dial position in [0, 1]
	BrightnessStep float64 // change per detent
	Kelvin         int
	KelvinMin      int
	KelvinMax      int
	KelvinSteps    int // detents to sweep the full kelvin range
}

// DefaultParams returns the stock dimmer setup: on at 30%, 4000K, a 2400K-8000K
// range covered in 60 detents.
func DefaultParams() Params {
	return Params{
		On:             true,
		Brightness:     0.3,
		BrightnessStep: 0.02,
		Kelvin:         4000,
		KelvinMin:      2400,
		KelvinMax:      8000,
		KelvinSteps:    60,
	}
}

// Validate reports parameters the controller cannot work with.
func (p Params) Validate() error {
	if p.KelvinMin <= 0 || p.KelvinMax > math.MaxUint16 {
		return fmt.Errorf("kelvin range %d-%d out of bounds", p.KelvinMin, p.KelvinMax)
	}
	if p.KelvinMin >= p.KelvinMax {
		return fmt.Errorf("kelvin min %d must be below max %d", p.KelvinMin, p.KelvinMax)
	}
	if p.KelvinSteps <= 0 {
		return fmt.Errorf("kelvin steps must be positive, got %d", p.KelvinSteps)
	}
	if p.BrightnessStep <= 0 || p.BrightnessStep > 1 {
		return fmt.Errorf("brightness step must be in (0, 1], got %v", p.BrightnessStep)
	}
	return nil
}

// State is a snapshot of the stored light state.
type State struct {
	On         bool
	Brightness float64
	Kelvin     int
}

// Outcome describes what handling an event did.
type Outcome int

const (
	OutcomeNoop Outcome = iota
	OutcomeChanged
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChanged:
		return "changed"
	case OutcomeUnknown:
		return "unknown"
	default:
		return "noop"
	}
}

// UnknownHandler receives events whose name maps to no control.
type UnknownHandler func(ctx context.Context, ev protocol.Event)

// Controller owns the light state. It is driven from a single goroutine and
// does no locking of its own.
type Controller struct {
	sink      Sink
	onUnknown UnknownHandler

	on             bool
	brightness     float64
	brightnessStep float64
	kelvin         int
	kelvinMin      int
	kelvinMax      int
	kelvinStep     float64
}

// NewController builds a controller from p. Starting brightness and kelvin
// are clamped into range. Nothing is sent until Start.
func NewController(p Params, sink Sink) (*Controller, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("light sink is required")
	}

	return &Controller{
		sink:           sink,
		on:             p.On,
		brightness:     Clamp(0.0, 1.0, p.Brightness),
		brightnessStep: p.BrightnessStep,
		kelvin:         Clamp(p.KelvinMin, p.KelvinMax, p.Kelvin),
		kelvinMin:      p.KelvinMin,
		kelvinMax:      p.KelvinMax,
		kelvinStep:     float64(p.KelvinMax-p.KelvinMin) / float64(p.KelvinSteps),
	}, nil
}

// SetUnknownHandler installs h as the fallback for unrecognized event names.
func (c *Controller) SetUnknownHandler(h UnknownHandler) {
	c.onUnknown = h
}

// State returns the stored state. Brightness is the stored dial position even
// while the light is off.
func (c *Controller) State() State {
	return State{On: c.on, Brightness: c.brightness, Kelvin: c.kelvin}
}

// Start pushes the initial state to the bulb.
func (c *Controller) Start(ctx context.Context) {
	if c.on {
		c.Set(ctx, c.brightness, c.kelvin)
	} else {
		c.Set(ctx, 0, c.kelvin)
	}
	c.observe()
}

// Handle applies one event.
func (c *Controller) Handle(ctx context.Context, ev protocol.Event) Outcome {
	var changed bool

	switch ev.Kind() {
	case protocol.KindBrightnessDial:
		changed = c.RotateBrightness(ctx, ev.Value)
	case protocol.KindKelvinDial:
		changed = c.RotateKelvin(ctx, ev.Value)
	case protocol.KindPowerSwitch:
		// 1 is the release edge; only a press toggles
		if ev.Value == 1 {
			return OutcomeNoop
		}
		c.Toggle(ctx)
		changed = true
	case protocol.KindAuxSwitch:
		// Reserved
		return OutcomeNoop
	default:
		log.Warn().Str("name", ev.Name).Int("value", ev.Value).Msg("Unknown event name, ignoring")
		if c.onUnknown != nil {
			c.onUnknown(ctx, ev)
		}
		return OutcomeUnknown
	}

	if !changed {
		return OutcomeNoop
	}
	return OutcomeChanged
}

// RotateBrightness moves the brightness dial by detents. It does nothing while
// the light is off. Reports whether the stored brightness changed.
func (c *Controller) RotateBrightness(ctx context.Context, detents int) bool {
	if !c.on {
		return false
	}

	b := Clamp(0.0, 1.0, c.brightness+float64(detents)*c.brightnessStep)
	if b == c.brightness {
		return false
	}

	c.brightness = b
	c.Set(ctx, c.brightness, c.kelvin)
	c.observe()
	return true
}

// RotateKelvin moves the color temperature dial by detents, rounding to whole
// kelvin. Works while the light is off. Reports whether kelvin changed.
func (c *Controller) RotateKelvin(ctx context.Context, detents int) bool {
	next := float64(c.kelvin) + float64(detents)*c.kelvinStep
	k := int(math.Round(Clamp(float64(c.kelvinMin), float64(c.kelvinMax), next)))
	if k == c.kelvin {
		return false
	}

	c.kelvin = k
	c.Set(ctx, c.brightness, c.kelvin)
	c.observe()
	return true
}

// Toggle flips power. Switching off sends zero brightness but keeps the stored
// level so switching on restores it.
func (c *Controller) Toggle(ctx context.Context) {
	c.on = !c.on
	if c.on {
		log.Info().Msg("Light ON")
		c.Set(ctx, c.brightness, c.kelvin)
	} else {
		log.Info().Msg("Light OFF")
		c.Set(ctx, 0, c.kelvin)
	}
	c.observe()
}

// Set corrects and scales brightness and sends the command to the sink.
// Every command goes out twice; broadcasts are unacknowledged.
func (c *Controller) Set(ctx context.Context, brightness float64, kelvin int) {
	log.Info().
		Float64("brightness", brightness).
		Int("kelvin", kelvin).
		Msg("Set light")

	color := Color{
		Brightness: Scale(brightness),
		Kelvin:     uint16(kelvin),
	}
	c.sink.SetColor(ctx, color)
	c.sink.SetColor(ctx, color)
}

func (c *Controller) observe() {
	metrics.ObserveLight(c.on, c.brightness, c.kelvin)
}

// Package hue drives Philips Hue lights through a bridge as an alternative
// bulb backend. Commands target a single group, by default group 0, which
// the bridge defines as all lights.
package hue

import (
	"context"
	"fmt"
	"math"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/metrics"
)

// AllLightsGroup is the bridge's built-in group containing every light.
const AllLightsGroup = 0

// Color temperature limits accepted by the v1 API, in mireds.
const (
	minMired = 153
	maxMired = 500
)

// groupSetter is the slice of the bridge API the sink needs.
type groupSetter interface {
	SetGroupState(id int, state huego.State) (*huego.Response, error)
}

// Sink applies color commands as group state.
type Sink struct {
	bridge groupSetter
	group  int
}

// Connect creates a sink for the bridge at address and checks that the
// group is reachable.
func Connect(ctx context.Context, address, token string, group int) (*Sink, error) {
	bridge := huego.New(address, token)

	g, err := bridge.GetGroup(group)
	if err != nil {
		return nil, fmt.Errorf("failed to reach Hue group %d on %s: %w", group, address, err)
	}

	log.Info().Str("address", address).Int("group", group).Str("name", g.Name).Msg("Connected to Hue bridge")
	return &Sink{bridge: bridge, group: group}, nil
}

// SetColor converts the command to group state and sends it.
// Hue and saturation are ignored; the bridge is driven in color-temperature mode.
func (s *Sink) SetColor(ctx context.Context, c light.Color) {
	if ctx.Err() != nil {
		return
	}

	metrics.Dispatches.WithLabelValues("hue").Inc()
	if _, err := s.bridge.SetGroupState(s.group, groupState(c)); err != nil {
		log.Debug().Err(err).Int("group", s.group).Msg("Hue SetGroupState failed")
	}
}

// groupState maps 16-bit brightness onto 1..254 (0 switches off) and kelvin
// onto mireds.
func groupState(c light.Color) huego.State {
	if c.Brightness == 0 {
		return huego.State{On: false}
	}

	bri := math.Round(float64(c.Brightness) / light.MaxBrightness * 254)
	return huego.State{
		On:             true,
		Bri:            uint8(light.Clamp(1.0, 254.0, bri)),
		Ct:             kelvinToMired(c.Kelvin),
		TransitionTime: uint16(c.Duration.Milliseconds() / 100),
	}
}

func kelvinToMired(kelvin uint16) uint16 {
	if kelvin == 0 {
		return maxMired
	}
	mired := math.Round(1e6 / float64(kelvin))
	return uint16(light.Clamp(minMired, maxMired, mired))
}

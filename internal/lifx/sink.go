// Package lifx sends color commands to LIFX bulbs over the LAN protocol as
// unacknowledged broadcasts.
package lifx

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"go.yhsif.com/lifxlan"
	lifxlight "go.yhsif.com/lifxlan/light"

	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/metrics"
)

// DefaultBroadcastAddr reaches every LIFX device on the local segment.
const DefaultBroadcastAddr = "255.255.255.255:56700"

// Sink broadcasts SetColor messages to all devices. It never reads from the
// socket, so it works without any bulb answering.
type Sink struct {
	addr   string
	device lifxlan.Device
	conn   net.Conn
}

// Dial opens a socket to addr (host:port). No message is sent.
func Dial(ctx context.Context, addr string) (*Sink, error) {
	if addr == "" {
		addr = DefaultBroadcastAddr
	}

	dev := lifxlan.NewDevice(addr, lifxlan.ServiceUDP, lifxlan.AllDevices)

	conn, err := dev.Dial()
	if err != nil {
		return nil, fmt.Errorf("failed to open LIFX socket to %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Msg("LIFX broadcast sink ready")
	return &Sink{addr: addr, device: dev, conn: conn}, nil
}

// SetColor sends one SetColor message without requesting an ack.
func (s *Sink) SetColor(ctx context.Context, c light.Color) {
	payload := &lifxlight.RawSetColorPayload{
		Color: lifxlan.Color{
			Hue:        c.Hue,
			Saturation: c.Saturation,
			Brightness: c.Brightness,
			Kelvin:     c.Kelvin,
		},
		Duration: lifxlan.ConvertDuration(c.Duration),
	}

	metrics.Dispatches.WithLabelValues("lifx").Inc()
	if _, err := s.device.Send(ctx, s.conn, 0, lifxlight.SetColor, payload); err != nil {
		log.Debug().Err(err).Str("addr", s.addr).Msg("LIFX SetColor failed")
	}
}

// KelvinOutOfRange reports whether any part of [lo, hi] falls outside the
// color temperatures a LIFX bulb accepts. Bulbs clamp values outside it, so
// dialing into them changes nothing visible.
func KelvinOutOfRange(lo, hi int) bool {
	return lo < int(lifxlan.KelvinMin) || hi > int(lifxlan.KelvinMax)
}

// Close releases the socket.
func (s *Sink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

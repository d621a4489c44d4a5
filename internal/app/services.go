package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dialight/internal/config"
	"github.com/dokzlo13/dialight/internal/hue"
	"github.com/dokzlo13/dialight/internal/journal"
	"github.com/dokzlo13/dialight/internal/lifx"
	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/lua"
	"github.com/dokzlo13/dialight/internal/uart"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Transport and bulb backend
	Port       io.ReadCloser
	Sink       light.Sink
	sinkCloser io.Closer

	// Core
	Controller *light.Controller
	Script     *lua.Runtime
	Journal    *journal.Journal

	// Background services
	Control *ControlService
	Health  *HealthService
	Cleanup *JournalCleanupService

	loopDone chan struct{} // closed when the control loop exits
}

// NewServices opens the serial port and bulb backend named in cfg and wires
// all services.
func NewServices(cfg *config.Config) (*Services, error) {
	port, err := uart.Open(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		return nil, err
	}

	sink, sinkCloser, err := openSink(cfg)
	if err != nil {
		port.Close()
		return nil, err
	}

	s, err := NewServicesWith(cfg, port, sink)
	if err != nil {
		if sinkCloser != nil {
			sinkCloser.Close()
		}
		return nil, err
	}
	s.sinkCloser = sinkCloser
	return s, nil
}

func openSink(cfg *config.Config) (light.Sink, io.Closer, error) {
	switch cfg.Bulb.Backend {
	case config.BackendHue:
		sink, err := hue.Connect(context.Background(), cfg.Bulb.Hue.Bridge, cfg.Bulb.Hue.Token, cfg.Bulb.Hue.Group)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	case config.BackendLIFX:
		warnKelvinRange(cfg.LightParams())
		sink, err := lifx.Dial(context.Background(), cfg.Bulb.LIFX.Broadcast)
		if err != nil {
			return nil, nil, err
		}
		return sink, sink, nil
	default:
		return nil, nil, fmt.Errorf("unknown bulb backend %q", cfg.Bulb.Backend)
	}
}

func warnKelvinRange(p light.Params) {
	if lifx.KelvinOutOfRange(p.KelvinMin, p.KelvinMax) {
		log.Warn().
			Int("kelvin_min", p.KelvinMin).
			Int("kelvin_max", p.KelvinMax).
			Msg("Kelvin range exceeds what LIFX bulbs accept, the ends will show no change")
	}
}

// NewServicesWith wires services around an already open event source and
// bulb sink. The port is closed by Close.
func NewServicesWith(cfg *config.Config, port io.ReadCloser, sink light.Sink) (*Services, error) {
	s := &Services{
		cfg:  cfg,
		Port: port,
		Sink: light.Paced(sink, cfg.Bulb.RateLimit),
	}

	controller, err := light.NewController(cfg.LightParams(), s.Sink)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("invalid light configuration: %w", err)
	}
	s.Controller = controller

	if cfg.Script != "" {
		s.Script = lua.NewRuntime(controller)
		if err := s.Script.LoadScript(cfg.Script); err != nil {
			s.Close()
			return nil, err
		}
		controller.SetUnknownHandler(s.Script.HandleEvent)
	}

	if cfg.Journal.Enabled {
		s.Journal, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			s.Close()
			return nil, err
		}
		log.Info().Str("path", cfg.Journal.Path).Str("session", s.Journal.Session()).Msg("Event journal opened")
		s.Cleanup = NewJournalCleanupService(s.Journal, cfg.Journal.Retention(), cfg.Journal.CleanupInterval.Duration())
	}

	s.Control = NewControlService(port, cfg.Serial.MaxLineLength, controller, s.Journal)
	s.Health = NewHealthService(cfg)

	return s, nil
}

// Start pushes the initial light state, then starts the control loop and
// background services. onFatalError is called if the control loop fails.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	s.Controller.Start(ctx)

	s.loopDone = make(chan struct{})
	go func() {
		defer close(s.loopDone)
		if err := s.Control.Run(ctx); err != nil {
			onFatalError(err)
		}
	}()

	s.Health.Start(ctx)
	if s.Cleanup != nil {
		s.Cleanup.Start(ctx)
	}

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources. Closing the port unblocks the control loop,
// which is given up to the shutdown timeout to finish its current event.
// The sink, script and journal are closed only once the loop has exited.
func (s *Services) Close() {
	if s.Port != nil {
		if err := s.Port.Close(); err != nil {
			log.Debug().Err(err).Msg("Error closing serial port")
		}
		s.Port = nil
	}

	if s.loopDone != nil {
		select {
		case <-s.loopDone:
		case <-time.After(s.cfg.ShutdownTimeout.Duration()):
			// The loop may still touch the sink, script and journal
			log.Warn().Msg("Control loop did not stop in time, leaving its resources open")
			return
		}
	}

	if s.sinkCloser != nil {
		s.sinkCloser.Close()
		s.sinkCloser = nil
	}
	if s.Script != nil {
		s.Script.Close()
		s.Script = nil
	}
	if s.Journal != nil {
		s.Journal.Close()
		s.Journal = nil
	}
}

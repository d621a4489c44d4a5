package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dialight/internal/journal"
	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/metrics"
	"github.com/dokzlo13/dialight/internal/protocol"
	"github.com/dokzlo13/dialight/internal/uart"
)

// ControlService runs the read-parse-dispatch loop. It is the only goroutine
// that touches the controller once started.
type ControlService struct {
	reader     *uart.LineReader
	controller *light.Controller
	journal    *journal.Journal // nil when disabled
}

// NewControlService creates a loop reading lines from src.
func NewControlService(src io.Reader, maxLineLength int, controller *light.Controller, j *journal.Journal) *ControlService {
	return &ControlService{
		reader:     uart.NewLineReader(src, maxLineLength),
		controller: controller,
		journal:    j,
	}
}

// Run processes lines until the source fails. It returns nil if ctx was
// cancelled, otherwise the transport error, which is fatal.
func (s *ControlService) Run(ctx context.Context) error {
	for {
		line, err := s.reader.NextLine()
		if err != nil {
			if errors.Is(err, uart.ErrLineTooLong) {
				metrics.OversizedLines.Inc()
				log.Warn().Msg("Discarded over-long serial line")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("serial input failed: %w", err)
		}

		metrics.LinesRead.Inc()
		s.handleLine(ctx, line)
	}
}

func (s *ControlService) handleLine(ctx context.Context, line string) {
	ev, ok := protocol.Parse(line)
	if !ok {
		metrics.MalformedLines.Inc()
		log.Debug().Str("line", line).Msg("Dropping malformed line")
		return
	}

	log.Debug().Str("name", ev.Name).Int("value", ev.Value).Msg("Event received")

	outcome := s.controller.Handle(ctx, ev)
	metrics.Events.WithLabelValues(metricName(ev), outcome.String()).Inc()

	s.record(ev, outcome)
}

func (s *ControlService) record(ev protocol.Event, outcome light.Outcome) {
	if s.journal == nil {
		return
	}

	st := s.controller.State()
	err := s.journal.Append(journal.Entry{
		Name:       ev.Name,
		Value:      ev.Value,
		Outcome:    outcome.String(),
		On:         st.On,
		Brightness: st.Brightness,
		Kelvin:     st.Kelvin,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to journal event")
	}
}

// metricName keeps label cardinality bounded when the board sends junk names.
func metricName(ev protocol.Event) string {
	if ev.Kind() == protocol.KindUnknown {
		return "unknown"
	}
	return ev.Name
}

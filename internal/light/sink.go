package light

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Color is a single HSBK command for the bulb.
type Color struct {
	Hue        uint16
	Saturation uint16
	Brightness uint16
	Kelvin     uint16
	Duration   time.Duration
}

// Sink delivers color commands to every bulb on the network.
// Delivery is fire-and-forget: implementations log failures and never
// report them to the caller.
type Sink interface {
	SetColor(ctx context.Context, c Color)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, c Color)

// SetColor calls f.
func (f SinkFunc) SetColor(ctx context.Context, c Color) {
	f(ctx, c)
}

// pacedSink spaces dispatches to stay under a bulb's message rate.
type pacedSink struct {
	next    Sink
	limiter *rate.Limiter
}

// Paced wraps next so that at most rps commands per second reach it.
// Calls block until a slot is free; none are dropped unless ctx ends.
// A non-positive rps returns next unchanged.
func Paced(next Sink, rps float64) Sink {
	if rps <= 0 {
		return next
	}
	burst := max(int(rps), 2)
	return &pacedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *pacedSink) SetColor(ctx context.Context, c Color) {
	if err := s.limiter.Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("Dropping color command, context done while pacing")
		return
	}
	s.next.SetColor(ctx, c)
}

// Recorder is an in-memory Sink that keeps every command it receives.
type Recorder struct {
	mu     sync.Mutex
	colors []Color
}

// SetColor records c.
func (r *Recorder) SetColor(_ context.Context, c Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
}

// Colors returns a copy of the recorded commands.
func (r *Recorder) Colors() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Color, len(r.colors))
	copy(out, r.colors)
	return out
}

// Reset forgets all recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = nil
}

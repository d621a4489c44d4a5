package light

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"
)

func TestClamp_Idempotent(t *testing.T) {
	values := []float64{-1e9, -1, -0.5, 0, 0.25, 0.5, 1, 1.0000001, 2, 1e9}
	for _, v := range values {
		once := Clamp(0.0, 1.0, v)
		if twice := Clamp(0.0, 1.0, once); twice != once {
			t.Errorf("Clamp(Clamp(%v)) = %v, want %v", v, twice, once)
		}
		if once < 0 || once > 1 {
			t.Errorf("Clamp(%v) = %v outside [0, 1]", v, once)
		}
	}

	for _, k := range []int{-5, 0, 2399, 2400, 5000, 8000, 8001, 1 << 20} {
		once := Clamp(2400, 8000, k)
		if Clamp(2400, 8000, once) != once {
			t.Errorf("integer Clamp not idempotent for %d", k)
		}
	}
}

func TestCorrect_Endpoints(t *testing.T) {
	if got := Correct(0); math.Abs(got) > epsilon {
		t.Errorf("Correct(0) = %v, want 0", got)
	}
	if got := Correct(1); math.Abs(got-1) > epsilon {
		t.Errorf("Correct(1) = %v, want 1", got)
	}
}

func TestCorrect_Monotonic(t *testing.T) {
	prev := Correct(0)
	for i := 1; i <= 1000; i++ {
		x := float64(i) / 1000
		cur := Correct(x)
		if cur < prev {
			t.Fatalf("Correct(%v) = %v < Correct(previous) = %v", x, cur, prev)
		}
		prev = cur
	}
}

func TestCorrect_ClampsOutOfRange(t *testing.T) {
	if got := Correct(-1); got != 0 {
		t.Errorf("Correct(-1) = %v, want 0", got)
	}
	if got := Correct(2); got != 1 {
		t.Errorf("Correct(2) = %v, want 1", got)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{0, 0},
		{1, 0xffff},
		{-3, 0},
		{5, 0xffff},
		{0.4, uint16(math.Round((math.Pow(10, 0.4) - 1) / 9 * 0xffff))},
		{0.3, uint16(math.Round((math.Pow(10, 0.3) - 1) / 9 * 0xffff))},
	}

	for _, tt := range tests {
		if got := Scale(tt.in); got != tt.want {
			t.Errorf("Scale(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPaced_ForwardsEveryCommand(t *testing.T) {
	rec := &Recorder{}
	sink := Paced(rec, 1000)

	for i := 0; i < 10; i++ {
		sink.SetColor(context.Background(), Color{Brightness: uint16(i)})
	}

	colors := rec.Colors()
	if len(colors) != 10 {
		t.Fatalf("forwarded %d commands, want 10", len(colors))
	}
	for i, c := range colors {
		if c.Brightness != uint16(i) {
			t.Errorf("command %d out of order: %+v", i, c)
		}
	}
}

func TestPaced_Disabled(t *testing.T) {
	rec := &Recorder{}
	if got := Paced(rec, 0); got != Sink(rec) {
		t.Errorf("Paced with rps 0 should return the sink unchanged")
	}
}

func TestPaced_CancelledContextDrops(t *testing.T) {
	rec := &Recorder{}
	sink := Paced(rec, 0.001)

	// Burst covers the first two
	sink.SetColor(context.Background(), Color{})
	sink.SetColor(context.Background(), Color{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	sink.SetColor(ctx, Color{})

	if n := len(rec.Colors()); n != 2 {
		t.Errorf("forwarded %d commands, want 2", n)
	}
}

func TestSinkFunc(t *testing.T) {
	var mu sync.Mutex
	var got []Color
	var s Sink = SinkFunc(func(_ context.Context, c Color) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	s.SetColor(context.Background(), Color{Kelvin: 3000})
	if len(got) != 1 || got[0].Kelvin != 3000 {
		t.Errorf("SinkFunc got %+v", got)
	}
}

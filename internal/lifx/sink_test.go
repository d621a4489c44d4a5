package lifx

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dokzlo13/dialight/internal/light"
	"github.com/dokzlo13/dialight/internal/metrics"
)

const (
	headerSize   = 36
	setColorType = 102
)

// silentListener accepts datagrams and never answers, like a broadcast
// address with no bulb replying to this socket.
func silentListener(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { pc.Close() })
	return pc
}

func dialWithin(t *testing.T, addr string, d time.Duration) *Sink {
	t.Helper()
	type result struct {
		sink *Sink
		err  error
	}
	done := make(chan result, 1)
	go func() {
		s, err := Dial(context.Background(), addr)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Dial: %v", r.err)
		}
		t.Cleanup(func() { r.sink.Close() })
		return r.sink
	case <-time.After(d):
		t.Fatalf("Dial blocked for %v without a reply", d)
		return nil
	}
}

func TestDial_NoReplyNeeded(t *testing.T) {
	pc := silentListener(t)
	dialWithin(t, pc.LocalAddr().String(), 2*time.Second)
}

func TestSink_SetColorLoopback(t *testing.T) {
	pc := silentListener(t)
	sink := dialWithin(t, pc.LocalAddr().String(), 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	before := testutil.ToFloat64(metrics.Dispatches.WithLabelValues("lifx"))

	sent := make(chan struct{})
	go func() {
		sink.SetColor(ctx, light.Color{Brightness: light.MaxBrightness, Kelvin: 4000})
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("SetColor blocked waiting for a reply")
	}

	if got := testutil.ToFloat64(metrics.Dispatches.WithLabelValues("lifx")) - before; got != 1 {
		t.Errorf("dispatches = %v, want 1", got)
	}

	buf := make([]byte, 128)
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("no packet received: %v", err)
	}
	if n < headerSize {
		t.Fatalf("packet length = %d, shorter than a header", n)
	}
	if typ := binary.LittleEndian.Uint16(buf[32:34]); typ != setColorType {
		t.Errorf("message type = %d, want %d", typ, setColorType)
	}
	// Payload: reserved byte, then hue, saturation, brightness, kelvin
	if n >= headerSize+9 {
		if b := binary.LittleEndian.Uint16(buf[headerSize+5:]); b != light.MaxBrightness {
			t.Errorf("brightness = %d, want %d", b, light.MaxBrightness)
		}
		if k := binary.LittleEndian.Uint16(buf[headerSize+7:]); k != 4000 {
			t.Errorf("kelvin = %d, want 4000", k)
		}
	}
}

func TestKelvinOutOfRange(t *testing.T) {
	tests := []struct {
		lo, hi int
		want   bool
	}{
		{2500, 9000, false},
		{2700, 6500, false},
		{2400, 8000, true},
		{3000, 9500, true},
	}

	for _, tt := range tests {
		if got := KelvinOutOfRange(tt.lo, tt.hi); got != tt.want {
			t.Errorf("KelvinOutOfRange(%d, %d) = %v, want %v", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestSink_CloseIdempotentOnZero(t *testing.T) {
	var s Sink
	if err := s.Close(); err != nil {
		t.Errorf("Close on zero Sink = %v", err)
	}
}

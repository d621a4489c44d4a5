package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/dialight/internal/config"
	"github.com/dokzlo13/dialight/internal/light"
)

func waitDone(t *testing.T, a *App) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		a.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestApp_TransportFailureIsFatal(t *testing.T) {
	r, w := io.Pipe()
	rec := &light.Recorder{}

	a, err := NewWith(config.Default(), r, rec)
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Initial push happens before any input
	if n := len(rec.Colors()); n != 2 {
		t.Fatalf("initial push sent %d commands, want 2", n)
	}

	if _, err := w.Write([]byte("rot0=5\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	waitDone(t, a)
	if err := a.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}

	if !errors.Is(a.Err(), io.EOF) {
		t.Errorf("Err = %v, want io.EOF", a.Err())
	}
	if b := a.Controller().State().Brightness; b < 0.399 || b > 0.401 {
		t.Errorf("brightness = %v, want 0.4", b)
	}
	if n := len(rec.Colors()); n != 4 {
		t.Errorf("sink received %d commands, want 4", n)
	}
}

func TestApp_ShutdownOnCancel(t *testing.T) {
	r, _ := io.Pipe()

	a, err := NewWith(config.Default(), r, &light.Recorder{})
	if err != nil {
		t.Fatalf("NewWith: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancel()
	waitDone(t, a)
	if err := a.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if a.Err() != nil {
		t.Errorf("Err = %v, want nil after clean shutdown", a.Err())
	}
}

func TestNewWith_InvalidLight(t *testing.T) {
	cfg := config.Default()
	cfg.Light.KelvinSteps = -1

	r, _ := io.Pipe()
	if _, err := NewWith(cfg, r, &light.Recorder{}); err == nil {
		t.Error("expected error for invalid light parameters")
	}
}

func TestHealthService_Endpoints(t *testing.T) {
	h := NewHealthService(config.Default())
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if code, _ := get("/health"); code != http.StatusOK {
		t.Errorf("/health = %d, want 200", code)
	}
	if code, _ := get("/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("/ready before start = %d, want 503", code)
	}

	h.SetReady(true)
	if code, _ := get("/ready"); code != http.StatusOK {
		t.Errorf("/ready after start = %d, want 200", code)
	}

	code, body := get("/metrics")
	if code != http.StatusOK {
		t.Errorf("/metrics = %d, want 200", code)
	}
	if !strings.Contains(body, "dialight_serial_lines_total") {
		t.Error("/metrics missing dialight_serial_lines_total")
	}
}

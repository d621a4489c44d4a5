package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/dialight/internal/config"
	"github.com/dokzlo13/dialight/internal/journal"
	"github.com/dokzlo13/dialight/internal/light"
)

// stuckPort is an event source whose Close does not interrupt a pending
// Read, like stdin.
type stuckPort struct {
	release chan struct{}
}

func (p *stuckPort) Read([]byte) (int, error) {
	<-p.release
	return 0, io.EOF
}

func (p *stuckPort) Close() error { return nil }

func TestServices_CloseKeepsResourcesWhileLoopRuns(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.sqlite")
	cfg.ShutdownTimeout = config.Duration(50 * time.Millisecond)

	port := &stuckPort{release: make(chan struct{})}
	s, err := NewServicesWith(cfg, port, &light.Recorder{})
	if err != nil {
		t.Fatalf("NewServicesWith: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx, func(error) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Close()

	if s.Journal == nil {
		t.Fatal("journal was released while the control loop was still running")
	}
	if err := s.Journal.Append(journal.Entry{Name: "rot0", Value: 1, Outcome: "changed"}); err != nil {
		t.Errorf("journal unusable after timed-out Close: %v", err)
	}

	cancel()
	close(port.release)
	select {
	case <-s.loopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("control loop did not exit after release")
	}

	// Now that the loop is gone, a second Close releases everything
	s.Close()
	if s.Journal != nil {
		t.Error("journal still open after the loop exited")
	}
}

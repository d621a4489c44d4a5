package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dialight/internal/journal"
)

// JournalCleanupService periodically drops journal entries past retention.
type JournalCleanupService struct {
	journal   *journal.Journal
	retention time.Duration
	interval  time.Duration
}

// NewJournalCleanupService creates a cleanup service for j.
func NewJournalCleanupService(j *journal.Journal, retention, interval time.Duration) *JournalCleanupService {
	return &JournalCleanupService{
		journal:   j,
		retention: retention,
		interval:  interval,
	}
}

// Start runs one cleanup immediately, then one per interval until ctx ends.
func (s *JournalCleanupService) Start(ctx context.Context) {
	if s.retention <= 0 || s.interval <= 0 {
		log.Info().Msg("Journal cleanup is disabled")
		return
	}

	s.cleanup()
	go s.run(ctx)
}

func (s *JournalCleanupService) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *JournalCleanupService) cleanup() {
	deleted, err := s.journal.DeleteOlderThan(s.retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old journal entries")
	} else if deleted > 0 {
		log.Info().Int64("deleted", deleted).Dur("retention", s.retention).Msg("Cleaned up old journal entries")
	}
}

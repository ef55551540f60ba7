package refresh

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers a refresh whenever the snapshot goes stale. It
// ticks faster than the TTL so a failed pass gets retried within one
// check interval instead of one full TTL.
type Scheduler struct {
	refresher *Refresher
	interval  time.Duration
	logger    *zap.Logger
}

// NewScheduler builds a Scheduler checking staleness every interval.
func NewScheduler(refresher *Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the staleness loop until ctx is canceled. The first pass
// fires immediately so a cold start does not wait a full tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.refresher.deps.Cache.IsStale(s.refresher.deps.Clock.Now()) {
		return
	}
	if err := s.refresher.Run(ctx); err != nil && !errors.Is(err, ErrInFlight) {
		s.logger.Warn("scheduled refresh failed", zap.Error(err))
	}
}

package app

import (
	"context"
	"log"
	"time"

	"github.com/jhleal91/rifas-app-sub000/internal/clock"
)

type ExpiredReleaser interface {
	ReleaseExpiredBefore(ctx context.Context, now time.Time) (int, error)
}

// Sweeper reclaims expired, unsettled reservations in the background. It is
// a liveness mechanism only: the reserving and settling transactions already
// treat expired holds as released, so the sweeper's timing never affects
// correctness.
type Sweeper struct {
	repo     ExpiredReleaser
	clock    clock.Clock
	interval time.Duration
	logger   *log.Logger
}

const defaultSweepInterval = time.Minute

func NewSweeper(repo ExpiredReleaser, clk clock.Clock, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		repo:     repo,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce releases everything expired right now.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	released, err := s.repo.ReleaseExpiredBefore(ctx, s.clock.Now())
	if err != nil {
		s.logger.Printf("ERROR sweep failed: %v", err)
		return
	}
	if released > 0 {
		s.logger.Printf("sweep released %d expired reservations", released)
	}
}

// Package scheduler runs reconciliation cycles on a fixed interval.
//
// Exactly one cycle runs at a time. When a cycle overruns its slot the
// pending tick is simply dropped; the next cycle starts on the following
// tick rather than piling up behind the slow one. Each cycle gets its own
// deadline so a hung feed or gateway cannot wedge the loop forever.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/kouranbot/outage-notifier/internal/services"
)

// CycleRunner executes one reconciliation cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (services.CycleStats, error)
}

// Scheduler drives a CycleRunner at a fixed interval.
type Scheduler struct {
	runner       CycleRunner
	clock        clockwork.Clock
	interval     time.Duration
	cycleTimeout time.Duration
	log          zerolog.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// New builds a Scheduler. The clock is injectable so tests can advance time
// without waiting.
func New(runner CycleRunner, clock clockwork.Clock, interval, cycleTimeout time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		clock:        clock,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		log:          log,
	}
}

// Run executes one cycle immediately, then one per interval, until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("cycle_timeout", s.cycleTimeout).
		Msg("scheduler started")

	if err := s.RunNow(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.RunNow(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// RunNow runs a single cycle, or reports ErrCycleInProgress if one is
// already underway.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return services.ErrCycleInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = s.clock.Now()
		s.mu.Unlock()
	}()

	cctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	_, err := s.runner.RunCycle(cctx)
	if err != nil {
		s.log.Error().Err(err).Msg("cycle failed")
	}
	return err
}

// LastRun reports when the most recent cycle finished. The bool is false
// until the first cycle completes.
func (s *Scheduler) LastRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, !s.lastRun.IsZero()
}

// Running reports whether a cycle is currently executing.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

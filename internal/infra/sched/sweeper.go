package sched

import (
	"context"
	"time"

	"tnt-services-site/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Sweepable is an in-process store that can drop entries that expired at now.
type Sweepable interface {
	Name() string
	Sweep(now time.Time) int
}

// Sweeper periodically clears expired forms, locks and rate buckets when the
// site runs without Redis.
type Sweeper struct {
	interval time.Duration
	targets  []Sweepable
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSweeper(interval time.Duration, logger *zerolog.Logger, targets ...Sweepable) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "Sweeper").Logger()
	return &Sweeper{interval: interval, targets: targets, now: time.Now, log: &l}
}

func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Int("targets", len(s.targets)).Msg("starting sweeper")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("stopping sweeper")
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single pass over every target and returns the total removed.
func (s *Sweeper) SweepOnce() int {
	now := s.now()
	total := 0
	for _, t := range s.targets {
		n := t.Sweep(now)
		if n > 0 {
			metrics.AddSwept(t.Name(), n)
			s.log.Debug().Str("target", t.Name()).Int("count", n).Msg("expired entries removed")
		}
		total += n
	}
	return total
}

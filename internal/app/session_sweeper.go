package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// IdleSweeper is the part of the interview service the sweeper drives.
type IdleSweeper interface {
	SweepIdle(ctx context.Context, cutoff time.Time) int
}

// SessionSweeper periodically evicts interview sessions nobody touched for maxIdle.
type SessionSweeper struct {
	sessions IdleSweeper
	maxIdle  time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSessionSweeper returns nil when sessions is nil.
func NewSessionSweeper(sessions IdleSweeper, maxIdle, interval time.Duration) *SessionSweeper {
	if sessions == nil {
		return nil
	}
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{sessions: sessions, maxIdle: maxIdle, interval: interval, now: time.Now}
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopping")
			return nil
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) sweepOnce(ctx context.Context) int {
	ctx, span := otel.Tracer("interview.sweeper").Start(ctx, "SessionSweeper.sweepOnce")
	defer span.End()

	cutoff := s.now().Add(-s.maxIdle)
	n := s.sessions.SweepIdle(ctx, cutoff)
	span.SetAttributes(
		attribute.Int("interview.sessions_evicted", n),
		attribute.Float64("interview.max_idle_seconds", s.maxIdle.Seconds()),
	)
	if n > 0 {
		slog.Info("idle interview sessions evicted", slog.Int("count", n))
	}
	return n
}

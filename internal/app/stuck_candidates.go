package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// StuckCandidateSweeper periodically reclassifies candidates that sat in
// processing past the allowed window. It is the recovery path for workers
// that died between claiming a task and writing a terminal status.
type StuckCandidateSweeper struct {
	candidates domain.CandidateRepository
	maxAge     time.Duration
	interval   time.Duration
}

// NewStuckCandidateSweeper constructs a sweeper; zero durations get
// conservative defaults.
func NewStuckCandidateSweeper(candidates domain.CandidateRepository, maxAge, interval time.Duration) *StuckCandidateSweeper {
	if candidates == nil {
		return nil
	}
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StuckCandidateSweeper{candidates: candidates, maxAge: maxAge, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *StuckCandidateSweeper) Run(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("stuck candidate sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *StuckCandidateSweeper) sweepOnce(ctx context.Context) {
	ctx, span := otel.Tracer("candidates.sweeper").Start(ctx, "sweepOnce")
	defer span.End()
	span.SetAttributes(attribute.Float64("max_age_seconds", s.maxAge.Seconds()))

	n, err := s.candidates.ReclassifyStuck(ctx, s.maxAge)
	if err != nil {
		span.RecordError(err)
		slog.Error("stuck candidate sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		observability.StuckCandidatesReclassified.Add(float64(n))
		slog.Warn("stuck candidates reclassified as failed",
			slog.Int64("count", n),
			slog.Duration("max_age", s.maxAge))
	}
}

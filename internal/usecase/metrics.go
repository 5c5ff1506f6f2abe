package usecase

import (
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// MetricsService exposes the dashboard aggregations.
type MetricsService struct {
	Metrics domain.MetricsRepository
}

// NewMetricsService constructs a MetricsService.
func NewMetricsService(m domain.MetricsRepository) MetricsService {
	return MetricsService{Metrics: m}
}

// Overview returns acceptance totals and per-gap-flag counts over
// completed candidates under the given filter.
func (s MetricsService) Overview(ctx domain.Context, f domain.MetricsFilter) (domain.MetricsOverview, error) {
	return s.Metrics.Overview(ctx, f)
}

// Candidates drills down into completed, rejected candidates carrying one
// gap flag.
func (s MetricsService) Candidates(ctx domain.Context, f domain.MetricsFilter, flag string, offset, limit int) ([]domain.Candidate, error) {
	return s.Metrics.Candidates(ctx, f, flag, offset, clampLimit(limit))
}

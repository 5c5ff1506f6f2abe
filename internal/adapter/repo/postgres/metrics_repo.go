package postgres

import (
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// MetricsRepo runs the aggregate queries behind the dashboard.
type MetricsRepo struct{ Pool PgxPool }

// NewMetricsRepo constructs a MetricsRepo with the given pool.
func NewMetricsRepo(p PgxPool) *MetricsRepo { return &MetricsRepo{Pool: p} }

// gap flag names accepted by the candidates drill-down filter.
var flagColumns = map[string]string{
	"hidden_criteria":     "has_hidden_criteria",
	"assessment_conflict": "has_assessment_conflict",
	"calibration_gap":     "has_calibration_gap",
	"score_mismatch":      "has_score_mismatch",
}

// ValidFlag reports whether name is a known gap flag filter.
func ValidFlag(name string) bool {
	_, ok := flagColumns[name]
	return ok
}

// filterClause appends the shared metric filters to q starting at the next
// placeholder index and returns the extended query and args.
func filterClause(q string, f domain.MetricsFilter, args []any) (string, []any) {
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		q += fmt.Sprintf(" AND cr.client_id = $%d", len(args))
	}
	if f.InterviewerID != "" {
		args = append(args, f.InterviewerID)
		q += fmt.Sprintf(" AND c.interviewer_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND c.created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND c.created_at < $%d", len(args))
	}
	return q, args
}

// Overview aggregates acceptance and per-gap-flag counts over completed
// candidates; flag counts only consider rejected ones.
func (r *MetricsRepo) Overview(ctx domain.Context, f domain.MetricsFilter) (domain.MetricsOverview, error) {
	tracer := otel.Tracer("repo.metrics")
	ctx, span := tracer.Start(ctx, "metrics.Overview")
	defer span.End()
	q := `SELECT
		COUNT(*)::int AS total,
		COUNT(*) FILTER (WHERE c.is_accepted = true)::int AS accepted,
		COUNT(*) FILTER (WHERE c.is_accepted = false)::int AS rejected,
		COUNT(*) FILTER (WHERE c.is_accepted = false AND c.has_hidden_criteria)::int AS hidden_criteria,
		COUNT(*) FILTER (WHERE c.is_accepted = false AND c.has_assessment_conflict)::int AS assessment_conflict,
		COUNT(*) FILTER (WHERE c.is_accepted = false AND c.has_calibration_gap)::int AS calibration_gap,
		COUNT(*) FILTER (WHERE c.is_accepted = false AND c.has_score_mismatch)::int AS score_mismatch,
		COALESCE(AVG(c.avg_internal_score) FILTER (WHERE c.is_accepted = false AND c.has_score_mismatch), 0) AS score_mismatch_avg
	FROM candidates c
	LEFT JOIN client_requirements cr ON c.client_requirement_id = cr.id
	WHERE c.status = 'completed'`
	q, args := filterClause(q, f, nil)
	row := r.Pool.QueryRow(ctx, q, args...)
	var m domain.MetricsOverview
	if err := row.Scan(&m.Total, &m.Accepted, &m.Rejected,
		&m.HiddenCriteria, &m.AssessmentConflict, &m.CalibrationGap, &m.ScoreMismatch,
		&m.ScoreMismatchAvg); err != nil {
		return domain.MetricsOverview{}, fmt.Errorf("op=metrics.overview: %w", err)
	}
	return m, nil
}

// Candidates lists completed, rejected candidates carrying the named gap
// flag, newest first.
func (r *MetricsRepo) Candidates(ctx domain.Context, f domain.MetricsFilter, flag string, offset, limit int) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.metrics")
	ctx, span := tracer.Start(ctx, "metrics.Candidates")
	defer span.End()
	if flag != "" && !ValidFlag(flag) {
		return nil, fmt.Errorf("op=metrics.candidates: unknown flag %q: %w", flag, domain.ErrInvalidArgument)
	}
	q := `SELECT ` + qualifyCandidateColumns("c") + `
	FROM candidates c
	LEFT JOIN client_requirements cr ON c.client_requirement_id = cr.id
	WHERE c.status = 'completed' AND c.is_accepted = false`
	q, args := filterClause(q, f, nil)
	if flag != "" {
		q += " AND c." + flagColumns[flag]
	}
	q += fmt.Sprintf(" ORDER BY c.created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, limit)
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=metrics.candidates: %w", err)
	}
	defer rows.Close()
	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("op=metrics.candidates: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// qualifyCandidateColumns prefixes every candidate column with an alias so
// the list query can join against client_requirements.
func qualifyCandidateColumns(alias string) string {
	return alias + `.id, ` + alias + `.client_requirement_id, COALESCE(` + alias + `.interviewer_id::text,''), ` +
		alias + `.candidate_name, ` + alias + `.role, ` + alias + `.interview_date, ` + alias + `.is_accepted, ` +
		alias + `.status, COALESCE(` + alias + `.error,''), ` +
		alias + `.raw_internal_notes, ` + alias + `.raw_internal_scores, ` + alias + `.raw_client_feedback, ` +
		alias + `.standardized_internal_notes, ` + alias + `.standardized_scores, ` + alias + `.standardized_client_feedback, ` +
		alias + `.avg_internal_score, ` +
		alias + `.has_hidden_criteria, COALESCE(` + alias + `.hidden_criteria_explanation,''), ` +
		alias + `.has_assessment_conflict, COALESCE(` + alias + `.assessment_conflict_explanation,''), ` +
		alias + `.has_calibration_gap, COALESCE(` + alias + `.calibration_gap_explanation,''), ` +
		alias + `.has_score_mismatch, COALESCE(` + alias + `.score_mismatch_explanation,''), ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// CandidateRepo persists and loads candidates from PostgreSQL.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

const candidateColumns = `id, client_requirement_id, COALESCE(interviewer_id::text,''), candidate_name, role,
	interview_date, is_accepted, status, COALESCE(error,''),
	raw_internal_notes, raw_internal_scores, raw_client_feedback,
	standardized_internal_notes, standardized_scores, standardized_client_feedback, avg_internal_score,
	has_hidden_criteria, COALESCE(hidden_criteria_explanation,''),
	has_assessment_conflict, COALESCE(assessment_conflict_explanation,''),
	has_calibration_gap, COALESCE(calibration_gap_explanation,''),
	has_score_mismatch, COALESCE(score_mismatch_explanation,''),
	created_at, updated_at`

// Create inserts a new candidate in processing status and returns its id.
// Analysis fields stay at their zero values until the pipeline completes.
func (r *CandidateRepo) Create(ctx domain.Context, c domain.Candidate) (string, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Create")
	defer span.End()
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	var interviewer *string
	if c.InterviewerID != "" {
		interviewer = &c.InterviewerID
	}
	now := time.Now().UTC()
	q := `INSERT INTO candidates (
		id, client_requirement_id, interviewer_id, candidate_name, role, interview_date,
		is_accepted, status, raw_internal_notes, raw_internal_scores, raw_client_feedback,
		created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)`
	_, err := r.Pool.Exec(ctx, q,
		id, c.ClientRequirementID, interviewer, c.CandidateName, c.Role, c.InterviewDate,
		c.IsAccepted, domain.StatusProcessing, c.RawInternalNotes, c.RawInternalScores, c.RawClientFeedback,
		now)
	if err != nil {
		return "", fmt.Errorf("op=candidate.create: %w", err)
	}
	return id, nil
}

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	row := r.Pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id=$1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return c, nil
}

// Complete writes the full success payload in one statement, guarded on the
// row still being in processing so a redelivered task cannot overwrite a
// terminal result.
func (r *CandidateRepo) Complete(ctx domain.Context, id string, out domain.EvaluationOutcome) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Complete")
	defer span.End()
	scoresJSON, err := json.Marshal(out.StandardizedScores)
	if err != nil {
		return fmt.Errorf("op=candidate.complete: marshal scores: %w", err)
	}
	q := `UPDATE candidates SET
		status=$2,
		raw_internal_notes=$3, raw_internal_scores=$4, raw_client_feedback=$5,
		standardized_internal_notes=$6, standardized_scores=$7, standardized_client_feedback=$8,
		avg_internal_score=$9,
		has_hidden_criteria=$10, hidden_criteria_explanation=NULLIF($11,''),
		has_assessment_conflict=$12, assessment_conflict_explanation=NULLIF($13,''),
		has_calibration_gap=$14, calibration_gap_explanation=NULLIF($15,''),
		has_score_mismatch=$16, score_mismatch_explanation=NULLIF($17,''),
		error=NULL, updated_at=$18
	WHERE id=$1 AND status=$19`
	g := out.Gaps
	tag, err := r.Pool.Exec(ctx, q,
		id, domain.StatusCompleted,
		out.RawInternalNotes, out.RawInternalScores, out.RawClientFeedback,
		out.StandardizedInternalNotes, string(scoresJSON), out.StandardizedClientFeedback,
		out.AvgInternalScore,
		g.HasHiddenCriteria, g.HiddenCriteriaExplanation,
		g.HasAssessmentConflict, g.AssessmentConflictExplanation,
		g.HasCalibrationGap, g.CalibrationGapExplanation,
		g.HasScoreMismatch, g.ScoreMismatchExplanation,
		time.Now().UTC(), domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("op=candidate.complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=candidate.complete: not processing: %w", domain.ErrConflict)
	}
	return nil
}

// MarkFailed flips the row to failed with an error message, leaving
// standardized fields untouched. Terminal rows are left as-is.
func (r *CandidateRepo) MarkFailed(ctx domain.Context, id string, errMsg string) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.MarkFailed")
	defer span.End()
	q := `UPDATE candidates SET status=$2, error=$3, updated_at=$4 WHERE id=$1 AND status=$5`
	_, err := r.Pool.Exec(ctx, q, id, domain.StatusFailed, errMsg, time.Now().UTC(), domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("op=candidate.mark_failed: %w", err)
	}
	return nil
}

// ReclassifyStuck marks processing rows idle longer than maxAge as failed.
func (r *CandidateRepo) ReclassifyStuck(ctx domain.Context, maxAge time.Duration) (int64, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.ReclassifyStuck")
	defer span.End()
	cutoff := time.Now().UTC().Add(-maxAge)
	q := `UPDATE candidates SET status=$1, error=$2, updated_at=$3 WHERE status=$4 AND updated_at < $5`
	msg := fmt.Sprintf("processing exceeded %s; reclassified by sweeper", maxAge)
	tag, err := r.Pool.Exec(ctx, q, domain.StatusFailed, msg, time.Now().UTC(), domain.StatusProcessing, cutoff)
	if err != nil {
		return 0, fmt.Errorf("op=candidate.reclassify_stuck: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanCandidate reads a candidate row in candidateColumns order.
func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	var scoresJSON *string
	if err := row.Scan(
		&c.ID, &c.ClientRequirementID, &c.InterviewerID, &c.CandidateName, &c.Role,
		&c.InterviewDate, &c.IsAccepted, &c.Status, &c.Error,
		&c.RawInternalNotes, &c.RawInternalScores, &c.RawClientFeedback,
		&c.StandardizedInternalNotes, &scoresJSON, &c.StandardizedClientFeedback, &c.AvgInternalScore,
		&c.Gaps.HasHiddenCriteria, &c.Gaps.HiddenCriteriaExplanation,
		&c.Gaps.HasAssessmentConflict, &c.Gaps.AssessmentConflictExplanation,
		&c.Gaps.HasCalibrationGap, &c.Gaps.CalibrationGapExplanation,
		&c.Gaps.HasScoreMismatch, &c.Gaps.ScoreMismatchExplanation,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Candidate{}, err
	}
	if scoresJSON != nil && *scoresJSON != "" {
		if err := json.Unmarshal([]byte(*scoresJSON), &c.StandardizedScores); err != nil {
			return domain.Candidate{}, fmt.Errorf("decode scores: %w", err)
		}
	}
	return c, nil
}

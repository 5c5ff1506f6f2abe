// Package domain holds the core entities, ports and error taxonomy of the
// recruitment evaluation tracker. It depends on nothing but the standard
// library so that adapters and usecases can be swapped freely around it.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrUpstream        = errors.New("upstream failure")
	ErrInternal        = errors.New("internal error")
)

// Context is an alias so the domain package does not import adapters;
// usecases pass context.Context straight through.
type Context = context.Context

// CandidateStatus is the lifecycle state of one evaluation attempt.
// Transitions: processing -> completed | failed, both terminal.
// StatusTimeout is admitted for rows written by older deployments but is
// never produced by the pipeline; the sweeper reclassifies stale
// processing rows to failed.
type CandidateStatus string

const (
	StatusProcessing CandidateStatus = "processing"
	StatusCompleted  CandidateStatus = "completed"
	StatusFailed     CandidateStatus = "failed"
	StatusTimeout    CandidateStatus = "timeout"
)

// Terminal reports whether a status can no longer change.
func (s CandidateStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimeout
}

// ScoreMap is the normalized per-category score map on a 1-10 scale.
// Categories absent from the source text are omitted, never zero-filled.
type ScoreMap map[string]float64

// Average returns the arithmetic mean of all values, 0 for an empty map.
func (m ScoreMap) Average() float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m {
		sum += v
	}
	return sum / float64(len(m))
}

// GapAnalysis is the derived record of disagreements between the internal
// assessment and the client decision. Invariant: an explanation is
// non-empty exactly when its flag is true.
type GapAnalysis struct {
	HasHiddenCriteria             bool   `json:"has_hidden_criteria"`
	HiddenCriteriaExplanation     string `json:"hidden_criteria_explanation,omitempty"`
	HasAssessmentConflict         bool   `json:"has_assessment_conflict"`
	AssessmentConflictExplanation string `json:"assessment_conflict_explanation,omitempty"`
	HasCalibrationGap             bool   `json:"has_calibration_gap"`
	CalibrationGapExplanation     string `json:"calibration_gap_explanation,omitempty"`
	HasScoreMismatch              bool   `json:"has_score_mismatch"`
	ScoreMismatchExplanation      string `json:"score_mismatch_explanation,omitempty"`
}

// Zero reports whether no flag is set and no explanation is present.
func (g GapAnalysis) Zero() bool {
	return g == GapAnalysis{}
}

// Candidate is one evaluation attempt for a person against one requirement.
// Gap flags, standardized fields and AvgInternalScore are only meaningful
// once Status is completed; while processing they hold zero values.
type Candidate struct {
	ID                  string
	ClientRequirementID string
	InterviewerID       string
	CandidateName       string
	Role                string
	InterviewDate       *time.Time
	IsAccepted          bool
	Status              CandidateStatus
	Error               string

	RawInternalNotes  string
	RawInternalScores string
	RawClientFeedback string

	StandardizedInternalNotes  string
	StandardizedScores         ScoreMap
	StandardizedClientFeedback string
	AvgInternalScore           float64

	Gaps GapAnalysis

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EvaluationOutcome is the full success payload written atomically when the
// pipeline completes.
type EvaluationOutcome struct {
	RawInternalNotes  string
	RawInternalScores string
	RawClientFeedback string

	StandardizedInternalNotes  string
	StandardizedScores         ScoreMap
	StandardizedClientFeedback string
	AvgInternalScore           float64

	Gaps GapAnalysis
}

// ClientRequirement is a job requirement document owned by a client.
// Read-only from the pipeline's perspective.
type ClientRequirement struct {
	ID                       string
	ClientID                 string
	ClientName               string
	RoleTitle                string
	RawContent               string
	StandardizedRequirements string
	CreatedAt                time.Time
}

// AnalysisText returns the text fed to gap analysis: the standardized form
// when present, the raw content otherwise.
func (r ClientRequirement) AnalysisText() string {
	if r.StandardizedRequirements != "" {
		return r.StandardizedRequirements
	}
	return r.RawContent
}

// Client is a named reference entity created via setup endpoints.
type Client struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Interviewer is a named reference entity created via setup endpoints.
type Interviewer struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Document types for uploaded artifacts.
const (
	DocumentNotes    = "NOTES"
	DocumentScores   = "SCORES"
	DocumentFeedback = "FEEDBACK"
)

// Document records a stored artifact belonging to a candidate. Append-only.
type Document struct {
	ID          string
	CandidateID string
	StorageKey  string
	Type        string
	ContentType string
	CreatedAt   time.Time
}

// MetricsFilter narrows aggregate queries. Zero fields mean "no filter".
type MetricsFilter struct {
	ClientID      string
	InterviewerID string
	From          *time.Time
	To            *time.Time
}

// MetricsOverview aggregates gap flags over completed, rejected candidates.
type MetricsOverview struct {
	Total              int     `json:"total"`
	Accepted           int     `json:"accepted"`
	Rejected           int     `json:"rejected"`
	HiddenCriteria     int     `json:"hidden_criteria"`
	AssessmentConflict int     `json:"assessment_conflict"`
	CalibrationGap     int     `json:"calibration_gap"`
	ScoreMismatch      int     `json:"score_mismatch"`
	ScoreMismatchAvg   float64 `json:"score_mismatch_avg"`
}

// EvaluateTask is the queue payload dispatched per accepted submission.
// The candidate id doubles as the idempotency key.
type EvaluateTask struct {
	CandidateID string `json:"candidate_id"`
	NotesKey    string `json:"notes_key,omitempty"`
	ScoresKey   string `json:"scores_key,omitempty"`
	FeedbackKey string `json:"feedback_key,omitempty"`
}

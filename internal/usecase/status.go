package usecase

import (
	"fmt"
	"time"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// StatusService provides read access to a candidate's pipeline state.
type StatusService struct {
	Candidates domain.CandidateRepository
}

// NewStatusService constructs a StatusService.
func NewStatusService(c domain.CandidateRepository) StatusService {
	return StatusService{Candidates: c}
}

// CandidateStatus is the polling payload. GapAnalysis and AvgInternalScore
// are only present once the candidate completed; Error only when it failed.
type CandidateStatus struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	CandidateName    string              `json:"candidate_name,omitempty"`
	Role             string              `json:"role,omitempty"`
	AvgInternalScore *float64            `json:"avg_internal_score,omitempty"`
	GapAnalysis      *domain.GapAnalysis `json:"gap_analysis,omitempty"`
	Error            string              `json:"error,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// Fetch returns the current status payload for a candidate id. Reads are
// side-effect free: polling a terminal candidate returns the same payload
// every time.
func (s StatusService) Fetch(ctx domain.Context, id string) (CandidateStatus, error) {
	if id == "" {
		return CandidateStatus{}, fmt.Errorf("%w: id required", domain.ErrInvalidArgument)
	}
	cand, err := s.Candidates.Get(ctx, id)
	if err != nil {
		return CandidateStatus{}, err
	}
	out := CandidateStatus{
		ID:            cand.ID,
		Status:        string(cand.Status),
		CandidateName: cand.CandidateName,
		Role:          cand.Role,
		CreatedAt:     cand.CreatedAt,
		UpdatedAt:     cand.UpdatedAt,
	}
	switch cand.Status {
	case domain.StatusCompleted:
		avg := cand.AvgInternalScore
		out.AvgInternalScore = &avg
		gaps := cand.Gaps
		out.GapAnalysis = &gaps
	case domain.StatusFailed, domain.StatusTimeout:
		out.Error = cand.Error
	}
	return out, nil
}

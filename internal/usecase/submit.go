package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// Submission is one candidate evaluation request. Each of the three inputs
// arrives either inline or as a stored-object key.
type Submission struct {
	ClientRequirementID string
	InterviewerID       string
	CandidateName       string
	Role                string
	InterviewDate       *time.Time
	IsAccepted          bool

	NotesKey    string
	ScoresKey   string
	FeedbackKey string

	NotesText    string
	ScoresText   string
	FeedbackText string
}

func (s Submission) hasNotes() bool    { return s.NotesKey != "" || s.NotesText != "" }
func (s Submission) hasScores() bool   { return s.ScoresKey != "" || s.ScoresText != "" }
func (s Submission) hasFeedback() bool { return s.FeedbackKey != "" || s.FeedbackText != "" }

// SubmitService accepts submissions: validate, create the candidate in
// processing status, record documents, and hand the task to the queue.
type SubmitService struct {
	Candidates   domain.CandidateRepository
	Requirements domain.RequirementRepository
	Documents    domain.DocumentRepository
	Queue        domain.Queue
}

// NewSubmitService constructs a SubmitService.
func NewSubmitService(c domain.CandidateRepository, r domain.RequirementRepository, d domain.DocumentRepository, q domain.Queue) SubmitService {
	return SubmitService{Candidates: c, Requirements: r, Documents: d, Queue: q}
}

// Submit validates and files a submission, returning the new candidate id.
// The caller gets the id back before any LLM work starts; analysis runs in
// the worker. A gap report needs either scores or both sides of the
// notes/feedback comparison, so anything less is rejected up front and no
// row is created.
func (s SubmitService) Submit(ctx domain.Context, sub Submission) (string, error) {
	if sub.ClientRequirementID == "" {
		return "", fmt.Errorf("%w: client_requirement_id required", domain.ErrInvalidArgument)
	}
	if !sub.hasScores() && !(sub.hasNotes() && sub.hasFeedback()) {
		return "", fmt.Errorf("%w: need scores, or both notes and feedback", domain.ErrInvalidArgument)
	}
	if _, err := s.Requirements.Get(ctx, sub.ClientRequirementID); err != nil {
		return "", fmt.Errorf("op=submit.requirement: %w", err)
	}

	cand := domain.Candidate{
		ClientRequirementID: sub.ClientRequirementID,
		InterviewerID:       sub.InterviewerID,
		CandidateName:       sub.CandidateName,
		Role:                sub.Role,
		InterviewDate:       sub.InterviewDate,
		IsAccepted:          sub.IsAccepted,
		Status:              domain.StatusProcessing,
		RawInternalNotes:    sub.NotesText,
		RawInternalScores:   sub.ScoresText,
		RawClientFeedback:   sub.FeedbackText,
	}
	id, err := s.Candidates.Create(ctx, cand)
	if err != nil {
		return "", err
	}

	for _, doc := range []struct{ key, typ string }{
		{sub.NotesKey, domain.DocumentNotes},
		{sub.ScoresKey, domain.DocumentScores},
		{sub.FeedbackKey, domain.DocumentFeedback},
	} {
		if doc.key == "" {
			continue
		}
		if _, err := s.Documents.Create(ctx, domain.Document{CandidateID: id, StorageKey: doc.key, Type: doc.typ}); err != nil {
			// The candidate is already filed; a missing document row does
			// not block analysis, so log and continue.
			slog.Error("document record failed",
				slog.String("candidate_id", id),
				slog.String("type", doc.typ),
				slog.Any("error", err))
		}
	}

	task := domain.EvaluateTask{
		CandidateID: id,
		NotesKey:    sub.NotesKey,
		ScoresKey:   sub.ScoresKey,
		FeedbackKey: sub.FeedbackKey,
	}
	if err := s.Queue.EnqueueEvaluate(ctx, task); err != nil {
		if markErr := s.Candidates.MarkFailed(ctx, id, "enqueue failed"); markErr != nil {
			slog.Error("failed to mark candidate failed after enqueue error",
				slog.String("candidate_id", id), slog.Any("error", markErr))
		}
		return "", fmt.Errorf("op=submit.enqueue: %w", err)
	}
	observability.CandidatesSubmittedTotal.Inc()
	slog.Info("submission accepted", slog.String("candidate_id", id))
	return id, nil
}

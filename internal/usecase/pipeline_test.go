package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
	"github.com/talentgap/recruitment-evaluator/internal/usecase"
)

// fakeCandidates is an in-memory candidate repository.
type fakeCandidates struct {
	mu         sync.Mutex
	candidates map[string]domain.Candidate
	completed  []string
	failed     map[string]string
}

func newFakeCandidates(cands ...domain.Candidate) *fakeCandidates {
	f := &fakeCandidates{candidates: map[string]domain.Candidate{}, failed: map[string]string{}}
	for _, c := range cands {
		f.candidates[c.ID] = c
	}
	return f
}

func (f *fakeCandidates) Create(_ context.Context, c domain.Candidate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = "generated-id"
	}
	c.Status = domain.StatusProcessing
	f.candidates[c.ID] = c
	return c.ID, nil
}

func (f *fakeCandidates) Get(_ context.Context, id string) (domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return domain.Candidate{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCandidates) Complete(_ context.Context, id string, out domain.EvaluationOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != domain.StatusProcessing {
		return domain.ErrConflict
	}
	c.Status = domain.StatusCompleted
	c.StandardizedInternalNotes = out.StandardizedInternalNotes
	c.StandardizedScores = out.StandardizedScores
	c.StandardizedClientFeedback = out.StandardizedClientFeedback
	c.AvgInternalScore = out.AvgInternalScore
	c.Gaps = out.Gaps
	f.candidates[id] = c
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeCandidates) MarkFailed(_ context.Context, id, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != domain.StatusProcessing {
		return nil
	}
	c.Status = domain.StatusFailed
	c.Error = errMsg
	f.candidates[id] = c
	f.failed[id] = errMsg
	return nil
}

func (f *fakeCandidates) ReclassifyStuck(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type fakeRequirements struct {
	req domain.ClientRequirement
	err error
}

func (f *fakeRequirements) Create(_ context.Context, r domain.ClientRequirement) (string, error) {
	return "req-1", nil
}
func (f *fakeRequirements) Get(_ context.Context, _ string) (domain.ClientRequirement, error) {
	return f.req, f.err
}
func (f *fakeRequirements) List(_ context.Context, _ string, _, _ int) ([]domain.ClientRequirement, error) {
	return nil, nil
}

type fakeExtractor struct {
	texts map[string]string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[key], nil
}

const gapCleanAnswer = `{
	"has_hidden_criteria": false,
	"has_assessment_conflict": false,
	"has_calibration_gap": false,
	"has_score_mismatch": false
}`

func TestPipeline_SuccessWritesSingleCompletion(t *testing.T) {
	cands := newFakeCandidates(domain.Candidate{
		ID:                  "cand-1",
		ClientRequirementID: "req-1",
		Status:              domain.StatusProcessing,
		RawInternalNotes:    "solid engineer",
		RawInternalScores:   "tech 8",
		RawClientFeedback:   "rejected, wanted more leadership",
	})
	// Every transform shares one canned answer; scores parse to one entry
	// and the summaries come back empty so the source text is kept.
	ai := &fakeAI{response: gapCleanAnswer}
	svc := usecase.NewPipelineService(cands, &fakeRequirements{req: domain.ClientRequirement{ID: "req-1", RawContent: "senior go"}}, &fakeExtractor{}, usecase.NewTransformer(ai, 8))

	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "cand-1"})
	require.NoError(t, err)

	got, err := cands.Get(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, []string{"cand-1"}, cands.completed)
	assert.Empty(t, cands.failed)
	assert.True(t, got.Gaps.Zero())
}

func TestPipeline_TransformFailureMarksFailedWithoutPartialWrites(t *testing.T) {
	cands := newFakeCandidates(domain.Candidate{
		ID:                  "cand-2",
		ClientRequirementID: "req-1",
		Status:              domain.StatusProcessing,
		RawInternalNotes:    "notes",
	})
	ai := &fakeAI{err: domain.ErrUpstream}
	svc := usecase.NewPipelineService(cands, &fakeRequirements{req: domain.ClientRequirement{ID: "req-1"}}, &fakeExtractor{}, usecase.NewTransformer(ai, 8))

	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "cand-2"})
	require.Error(t, err)

	got, _ := cands.Get(context.Background(), "cand-2")
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
	assert.Empty(t, got.StandardizedInternalNotes)
	assert.Empty(t, cands.completed)
}

func TestPipeline_ExtractionFailureMarksFailed(t *testing.T) {
	cands := newFakeCandidates(domain.Candidate{
		ID:                  "cand-3",
		ClientRequirementID: "req-1",
		Status:              domain.StatusProcessing,
	})
	ex := &fakeExtractor{err: errors.New("object gone")}
	svc := usecase.NewPipelineService(cands, &fakeRequirements{req: domain.ClientRequirement{ID: "req-1"}}, ex, usecase.NewTransformer(&fakeAI{response: gapCleanAnswer}, 8))

	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "cand-3", NotesKey: "notes/x.png"})
	require.Error(t, err)

	got, _ := cands.Get(context.Background(), "cand-3")
	assert.Equal(t, domain.StatusFailed, got.Status)
}

func TestPipeline_TerminalCandidateIsSkipped(t *testing.T) {
	cands := newFakeCandidates(domain.Candidate{
		ID:     "cand-4",
		Status: domain.StatusCompleted,
	})
	ai := &fakeAI{response: gapCleanAnswer}
	svc := usecase.NewPipelineService(cands, &fakeRequirements{}, &fakeExtractor{}, usecase.NewTransformer(ai, 8))

	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "cand-4"})
	require.NoError(t, err)
	assert.Zero(t, ai.calls, "terminal candidates must not reach the model")
	assert.Empty(t, cands.completed)
}

func TestPipeline_UnknownCandidateErrors(t *testing.T) {
	svc := usecase.NewPipelineService(newFakeCandidates(), &fakeRequirements{}, &fakeExtractor{}, usecase.NewTransformer(&fakeAI{}, 8))
	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipeline_StoredKeyResolvedThroughExtractor(t *testing.T) {
	cands := newFakeCandidates(domain.Candidate{
		ID:                  "cand-5",
		ClientRequirementID: "req-1",
		Status:              domain.StatusProcessing,
	})
	ex := &fakeExtractor{texts: map[string]string{"scores/a.png": "technical: 9/10"}}
	ai := &fakeAI{response: gapCleanAnswer}
	svc := usecase.NewPipelineService(cands, &fakeRequirements{req: domain.ClientRequirement{ID: "req-1"}}, ex, usecase.NewTransformer(ai, 8))

	err := svc.Process(context.Background(), domain.EvaluateTask{CandidateID: "cand-5", ScoresKey: "scores/a.png"})
	require.NoError(t, err)
	got, _ := cands.Get(context.Background(), "cand-5")
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

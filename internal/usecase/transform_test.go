package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
	"github.com/talentgap/recruitment-evaluator/internal/usecase"
)

// fakeAI returns canned chat responses and records the prompts it saw.
// The pipeline calls it from several goroutines, hence the lock.
type fakeAI struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeAI) ChatJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	return f.response, f.err
}

func (f *fakeAI) TranscribeImage(_ context.Context, _ string) (string, error) {
	return "", errors.New("not used")
}

func TestNormalizeScores_DropsNonNumericValues(t *testing.T) {
	ai := &fakeAI{response: `{"technical": 8.5, "communication": 7.0, "culture": "great fit"}`}
	tr := usecase.NewTransformer(ai, 8)

	scores, err := tr.NormalizeScores(context.Background(), "tech 8.5, comms 7")
	require.NoError(t, err)
	assert.Equal(t, domain.ScoreMap{"technical": 8.5, "communication": 7.0}, scores)
	assert.InDelta(t, 7.75, scores.Average(), 0.0001)
}

func TestNormalizeScores_EmptyInputSkipsModel(t *testing.T) {
	ai := &fakeAI{response: `{"technical": 9}`}
	tr := usecase.NewTransformer(ai, 8)

	scores, err := tr.NormalizeScores(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.Zero(t, ai.calls)
	assert.Zero(t, scores.Average())
}

func TestNormalizeNotes_FallsBackToSourceOnEmptySummary(t *testing.T) {
	ai := &fakeAI{response: `{"summary": ""}`}
	tr := usecase.NewTransformer(ai, 8)

	out, err := tr.NormalizeNotes(context.Background(), "strong on systems design")
	require.NoError(t, err)
	assert.Equal(t, "strong on systems design", out)
}

func TestNormalizeNotes_TruncatesLongInput(t *testing.T) {
	ai := &fakeAI{response: `{"summary": "ok"}`}
	tr := usecase.NewTransformer(ai, 8)

	long := strings.Repeat("x", 20000)
	_, err := tr.NormalizeNotes(context.Background(), long)
	require.NoError(t, err)
	require.Len(t, ai.prompts, 1)
	assert.Less(t, len(ai.prompts[0]), 17000)
}

func TestNormalizeNotes_TruncationKeepsRuneBoundaries(t *testing.T) {
	ai := &fakeAI{response: `{"summary": "ok"}`}
	tr := usecase.NewTransformer(ai, 8)

	// Multi-byte runes straddling the cut point must not be split into
	// invalid UTF-8.
	long := strings.Repeat("日", 6000)
	_, err := tr.NormalizeNotes(context.Background(), long)
	require.NoError(t, err)
	require.Len(t, ai.prompts, 1)
	assert.True(t, utf8.ValidString(ai.prompts[0]))
	assert.Less(t, len(ai.prompts[0]), 17000)
}

func TestNormalizeFeedback_InvalidJSONIsSchemaError(t *testing.T) {
	ai := &fakeAI{response: `not json at all`}
	tr := usecase.NewTransformer(ai, 8)

	_, err := tr.NormalizeFeedback(context.Background(), "rejected, too junior")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestAnalyzeGaps_ValidAnswer(t *testing.T) {
	ai := &fakeAI{response: `{
		"has_hidden_criteria": true,
		"hidden_criteria_explanation": "rejected for timezone overlap, never in requirements",
		"has_assessment_conflict": false,
		"assessment_conflict_explanation": "should be cleared",
		"has_calibration_gap": false,
		"has_score_mismatch": true,
		"score_mismatch_explanation": "avg 8.4 but rejected"
	}`}
	tr := usecase.NewTransformer(ai, 8)

	g, err := tr.AnalyzeGaps(context.Background(), "reqs", "notes", domain.ScoreMap{"technical": 8.4}, "feedback")
	require.NoError(t, err)
	assert.True(t, g.HasHiddenCriteria)
	assert.NotEmpty(t, g.HiddenCriteriaExplanation)
	assert.False(t, g.HasAssessmentConflict)
	assert.Empty(t, g.AssessmentConflictExplanation, "explanations on false flags are cleared")
	assert.True(t, g.HasScoreMismatch)
}

func TestAnalyzeGaps_TrueFlagWithoutExplanationRejected(t *testing.T) {
	ai := &fakeAI{response: `{
		"has_hidden_criteria": true,
		"has_assessment_conflict": false,
		"has_calibration_gap": false,
		"has_score_mismatch": false
	}`}
	tr := usecase.NewTransformer(ai, 8)

	_, err := tr.AnalyzeGaps(context.Background(), "r", "n", nil, "f")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestAnalyzeGaps_MissingRequiredFlagRejected(t *testing.T) {
	ai := &fakeAI{response: `{"has_hidden_criteria": false}`}
	tr := usecase.NewTransformer(ai, 8)

	_, err := tr.AnalyzeGaps(context.Background(), "r", "n", nil, "f")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestAnalyzeGaps_ThresholdAppearsInPrompt(t *testing.T) {
	ai := &fakeAI{response: `{
		"has_hidden_criteria": false,
		"has_assessment_conflict": false,
		"has_calibration_gap": false,
		"has_score_mismatch": false
	}`}
	tr := usecase.NewTransformer(ai, 7.5)

	_, err := tr.AnalyzeGaps(context.Background(), "r", "n", nil, "f")
	require.NoError(t, err)
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "7.5")
}

func TestAnalyzeGaps_UpstreamErrorPropagates(t *testing.T) {
	ai := &fakeAI{err: domain.ErrUpstream}
	tr := usecase.NewTransformer(ai, 8)

	_, err := tr.AnalyzeGaps(context.Background(), "r", "n", nil, "f")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

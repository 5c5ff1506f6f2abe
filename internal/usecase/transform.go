package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// maxInputChars bounds every text fed to an LLM prompt, to cap cost and
// latency. Longer inputs are truncated, not rejected.
const maxInputChars = 16000

// Transformer is the single reusable LLM transform: truncate, prompt,
// chat in JSON mode, parse, validate, extract. The four normalizations and
// the gap analysis are parametrizations of it.
type Transformer struct {
	AI domain.AIClient
	// ScoreMismatchThreshold is the internal average at or above which a
	// rejection counts as a score mismatch.
	ScoreMismatchThreshold float64
}

// NewTransformer constructs a Transformer.
func NewTransformer(ai domain.AIClient, threshold float64) Transformer {
	return Transformer{AI: ai, ScoreMismatchThreshold: threshold}
}

func truncate(s string) string {
	if len(s) <= maxInputChars {
		return s
	}
	cut := maxInputChars
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

const jsonSystemPrompt = "You are a helpful assistant that outputs JSON only."

// NormalizeNotes summarizes and standardizes interview notes. Empty input
// short-circuits without an LLM call.
func (t Transformer) NormalizeNotes(ctx domain.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	start := time.Now()
	prompt := fmt.Sprintf(`Summarize and standardize these recruitment interview notes.
Focus on key strengths, weaknesses, and overall impression.
Return JSON: { "summary": "..." }

Notes:
%s`, truncate(text))
	content, err := t.AI.ChatJSON(ctx, jsonSystemPrompt, prompt)
	observability.ObserveAICall("normalize_notes", start, err)
	if err != nil {
		return "", fmt.Errorf("op=transform.notes: %w", err)
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("op=transform.notes: invalid json: %w", domain.ErrSchemaInvalid)
	}
	if out.Summary == "" {
		// Model answered but produced no summary field; keep the source
		// text rather than losing the notes.
		return truncate(text), nil
	}
	return out.Summary, nil
}

// NormalizeScores extracts a category-to-score map rescaled to 1-10.
// Non-numeric values are dropped; absent categories stay absent.
func (t Transformer) NormalizeScores(ctx domain.Context, text string) (domain.ScoreMap, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ScoreMap{}, nil
	}
	start := time.Now()
	prompt := fmt.Sprintf(`Extract numerical scores from this text/document.
Normalize all scores to a 1-10 scale.
Return JSON: { "technical": 8.5, "communication": 7.0, ... }
If no score found for a category, omit it.

Document Content:
%s`, truncate(text))
	content, err := t.AI.ChatJSON(ctx, jsonSystemPrompt, prompt)
	observability.ObserveAICall("normalize_scores", start, err)
	if err != nil {
		return nil, fmt.Errorf("op=transform.scores: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("op=transform.scores: invalid json: %w", domain.ErrSchemaInvalid)
	}
	scores := domain.ScoreMap{}
	for k, v := range raw {
		if n, ok := v.(float64); ok {
			scores[k] = n
		}
	}
	return scores, nil
}

// NormalizeFeedback summarizes the client's acceptance or rejection
// feedback, highlighting the main reason for the decision.
func (t Transformer) NormalizeFeedback(ctx domain.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	start := time.Now()
	prompt := fmt.Sprintf(`Summarize the client's rejection or acceptance feedback.
Highlight the main reason for the decision.
Return JSON: { "summary": "..." }

Feedback:
%s`, truncate(text))
	content, err := t.AI.ChatJSON(ctx, jsonSystemPrompt, prompt)
	observability.ObserveAICall("normalize_feedback", start, err)
	if err != nil {
		return "", fmt.Errorf("op=transform.feedback: %w", err)
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("op=transform.feedback: invalid json: %w", domain.ErrSchemaInvalid)
	}
	if out.Summary == "" {
		return truncate(text), nil
	}
	return out.Summary, nil
}

// StandardizeRequirements turns free-form requirement text into a
// structured bullet list.
func (t Transformer) StandardizeRequirements(ctx domain.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	start := time.Now()
	prompt := fmt.Sprintf(`Standardize this job requirement text into a concise bullet list.
Keep every concrete skill, experience level, and constraint; drop filler.
Return JSON: { "standardized": "..." }

Requirements:
%s`, truncate(text))
	content, err := t.AI.ChatJSON(ctx, jsonSystemPrompt, prompt)
	observability.ObserveAICall("standardize_requirements", start, err)
	if err != nil {
		return "", fmt.Errorf("op=transform.requirements: %w", err)
	}
	var out struct {
		Standardized string `json:"standardized"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("op=transform.requirements: invalid json: %w", domain.ErrSchemaInvalid)
	}
	return out.Standardized, nil
}

// gapSchema validates the gap-analysis JSON shape before any field is
// trusted, so a malformed answer surfaces as ErrSchemaInvalid instead of
// being read as "no gaps found".
var gapSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["has_hidden_criteria", "has_assessment_conflict", "has_calibration_gap", "has_score_mismatch"],
	"properties": {
		"has_hidden_criteria": {"type": "boolean"},
		"hidden_criteria_explanation": {"type": ["string", "null"]},
		"has_assessment_conflict": {"type": "boolean"},
		"assessment_conflict_explanation": {"type": ["string", "null"]},
		"has_calibration_gap": {"type": "boolean"},
		"calibration_gap_explanation": {"type": ["string", "null"]},
		"has_score_mismatch": {"type": "boolean"},
		"score_mismatch_explanation": {"type": ["string", "null"]}
	}
}`)

// AnalyzeGaps compares requirements, normalized assessment, and client
// feedback, returning the gap record. True flags must carry explanations;
// explanations on false flags are cleared.
func (t Transformer) AnalyzeGaps(ctx domain.Context, requirements, notes string, scores domain.ScoreMap, feedback string) (domain.GapAnalysis, error) {
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("op=transform.gaps: marshal scores: %w", err)
	}
	start := time.Now()
	prompt := fmt.Sprintf(`Analyze the recruitment gap for this candidate.

Client Requirements: %s
Internal Notes: %s
Internal Scores: %s
Client Feedback: %s

Determine if any of these gap metrics are TRUE (boolean):
1. hidden_criteria: Client rejected for a reason NOT mentioned in requirements.
2. assessment_conflict: Internal notes say X is good, Client says X is bad.
3. calibration_gap: Both mention skill X, but Internal rated high and Client rated low.
4. score_mismatch: Internal avg score >= %.1f but Client rejected.

Also provide a short explanation for each strictly if it is TRUE.

Return JSON structure:
{
  "has_hidden_criteria": boolean,
  "hidden_criteria_explanation": "...",
  "has_assessment_conflict": boolean,
  "assessment_conflict_explanation": "...",
  "has_calibration_gap": boolean,
  "calibration_gap_explanation": "...",
  "has_score_mismatch": boolean,
  "score_mismatch_explanation": "..."
}`, truncate(requirements), truncate(notes), scoresJSON, truncate(feedback), t.ScoreMismatchThreshold)

	content, err := t.AI.ChatJSON(ctx, jsonSystemPrompt, prompt)
	observability.ObserveAICall("analyze_gaps", start, err)
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("op=transform.gaps: %w", err)
	}

	res, err := gojsonschema.Validate(gapSchema, gojsonschema.NewStringLoader(content))
	if err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("op=transform.gaps: invalid json: %w", domain.ErrSchemaInvalid)
	}
	if !res.Valid() {
		slog.Warn("gap analysis schema violation", slog.Any("errors", res.Errors()))
		return domain.GapAnalysis{}, fmt.Errorf("op=transform.gaps: %w", domain.ErrSchemaInvalid)
	}

	var g domain.GapAnalysis
	if err := json.Unmarshal([]byte(content), &g); err != nil {
		return domain.GapAnalysis{}, fmt.Errorf("op=transform.gaps: decode: %w", domain.ErrSchemaInvalid)
	}
	if err := enforceExplanations(&g); err != nil {
		return domain.GapAnalysis{}, err
	}
	return g, nil
}

// enforceExplanations applies the flag/explanation invariant: a true flag
// without an explanation is a schema violation; explanations on false
// flags are dropped.
func enforceExplanations(g *domain.GapAnalysis) error {
	type pair struct {
		flag bool
		expl *string
		name string
	}
	pairs := []pair{
		{g.HasHiddenCriteria, &g.HiddenCriteriaExplanation, "hidden_criteria"},
		{g.HasAssessmentConflict, &g.AssessmentConflictExplanation, "assessment_conflict"},
		{g.HasCalibrationGap, &g.CalibrationGapExplanation, "calibration_gap"},
		{g.HasScoreMismatch, &g.ScoreMismatchExplanation, "score_mismatch"},
	}
	for _, p := range pairs {
		*p.expl = strings.TrimSpace(*p.expl)
		if p.flag && *p.expl == "" {
			return fmt.Errorf("op=transform.gaps: %s flagged without explanation: %w", p.name, domain.ErrSchemaInvalid)
		}
		if !p.flag {
			*p.expl = ""
		}
	}
	return nil
}

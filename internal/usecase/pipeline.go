// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// PipelineService runs the candidate evaluation pipeline for one queued
// task: resolve stored documents, normalize the three inputs, compute the
// average score, analyze gaps, and write exactly one terminal status.
type PipelineService struct {
	Candidates   domain.CandidateRepository
	Requirements domain.RequirementRepository
	Extractor    domain.TextExtractor
	Transformer  Transformer
}

// NewPipelineService constructs a PipelineService.
func NewPipelineService(c domain.CandidateRepository, r domain.RequirementRepository, ex domain.TextExtractor, tr Transformer) PipelineService {
	return PipelineService{Candidates: c, Requirements: r, Extractor: ex, Transformer: tr}
}

// Process runs the pipeline for a task. Any stage error marks the
// candidate failed (status and error only, no partial standardized
// writes); success writes the full outcome in a single update. A candidate
// already in a terminal status is skipped without error, which makes a
// redelivered task a no-op.
func (s PipelineService) Process(ctx domain.Context, task domain.EvaluateTask) error {
	tracer := otel.Tracer("usecase.pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.Process")
	defer span.End()
	start := time.Now()

	cand, err := s.Candidates.Get(ctx, task.CandidateID)
	if err != nil {
		return fmt.Errorf("op=pipeline.load: %w", err)
	}
	if cand.Status != domain.StatusProcessing {
		slog.Info("candidate already terminal, skipping",
			slog.String("candidate_id", cand.ID),
			slog.String("status", string(cand.Status)))
		return nil
	}

	out, err := s.run(ctx, cand, task)
	if err != nil {
		slog.Error("pipeline failed",
			slog.String("candidate_id", cand.ID),
			slog.Any("error", err))
		if markErr := s.Candidates.MarkFailed(ctx, cand.ID, err.Error()); markErr != nil {
			// The row stays in processing; the stuck sweeper is the
			// recovery path from here.
			slog.Error("failed to mark candidate failed",
				slog.String("candidate_id", cand.ID),
				slog.Any("error", markErr))
		}
		observability.PipelineOutcomesTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
		observability.PipelineDuration.Observe(time.Since(start).Seconds())
		return err
	}

	if err := s.Candidates.Complete(ctx, cand.ID, out); err != nil {
		observability.PipelineOutcomesTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
		return fmt.Errorf("op=pipeline.complete: %w", err)
	}
	observability.PipelineOutcomesTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	observability.PipelineDuration.Observe(time.Since(start).Seconds())
	slog.Info("pipeline completed",
		slog.String("candidate_id", cand.ID),
		slog.Float64("avg_internal_score", out.AvgInternalScore),
		slog.Duration("took", time.Since(start)))
	return nil
}

// run performs stages 2-5 and assembles the success payload. It never
// writes to the store.
func (s PipelineService) run(ctx domain.Context, cand domain.Candidate, task domain.EvaluateTask) (domain.EvaluationOutcome, error) {
	req, err := s.Requirements.Get(ctx, cand.ClientRequirementID)
	if err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.requirement: %w", err)
	}

	rawNotes, err := s.resolveText(ctx, task.NotesKey, cand.RawInternalNotes)
	if err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.extract_notes: %w", err)
	}
	rawScores, err := s.resolveText(ctx, task.ScoresKey, cand.RawInternalScores)
	if err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.extract_scores: %w", err)
	}
	rawFeedback, err := s.resolveText(ctx, task.FeedbackKey, cand.RawClientFeedback)
	if err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.extract_feedback: %w", err)
	}

	// The three normalizations are independent; run them concurrently and
	// join before anything that depends on their results.
	var (
		normNotes    string
		normScores   domain.ScoreMap
		normFeedback string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		normNotes, err = s.Transformer.NormalizeNotes(gctx, rawNotes)
		return err
	})
	g.Go(func() error {
		var err error
		normScores, err = s.Transformer.NormalizeScores(gctx, rawScores)
		return err
	})
	g.Go(func() error {
		var err error
		normFeedback, err = s.Transformer.NormalizeFeedback(gctx, rawFeedback)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.normalize: %w", err)
	}

	avg := normScores.Average()

	gaps, err := s.Transformer.AnalyzeGaps(ctx, req.AnalysisText(), normNotes, normScores, normFeedback)
	if err != nil {
		return domain.EvaluationOutcome{}, fmt.Errorf("op=pipeline.analyze: %w", err)
	}

	return domain.EvaluationOutcome{
		RawInternalNotes:           rawNotes,
		RawInternalScores:          rawScores,
		RawClientFeedback:          rawFeedback,
		StandardizedInternalNotes:  normNotes,
		StandardizedScores:         normScores,
		StandardizedClientFeedback: normFeedback,
		AvgInternalScore:           avg,
		Gaps:                       gaps,
	}, nil
}

// resolveText prefers inline text; a stored key is resolved through the
// extraction adapter. Both absent yields empty text.
func (s PipelineService) resolveText(ctx domain.Context, storageKey, inline string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if storageKey == "" {
		return "", nil
	}
	return s.Extractor.Extract(ctx, storageKey)
}

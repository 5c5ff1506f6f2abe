// Package vision resolves stored interview artifacts to plain text by
// handing a short-lived read URL to the vision model for transcription.
package vision

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// Extractor implements domain.TextExtractor. Artifacts are images or
// scans; no local OCR runs, the model does the reading.
type Extractor struct {
	Store     domain.ObjectStore
	AI        domain.AIClient
	GetExpiry time.Duration
	Log       *slog.Logger
}

// New constructs an Extractor.
func New(store domain.ObjectStore, ai domain.AIClient, getExpiry time.Duration, log *slog.Logger) Extractor {
	return Extractor{Store: store, AI: ai, GetExpiry: getExpiry, Log: log}
}

// Extract presigns a read URL for the key and returns the model's
// transcription of the artifact behind it.
func (e Extractor) Extract(ctx domain.Context, storageKey string) (string, error) {
	url, err := e.Store.PresignGet(ctx, storageKey, e.GetExpiry)
	if err != nil {
		return "", fmt.Errorf("op=vision.Extract presign: %w", err)
	}
	text, err := e.AI.TranscribeImage(ctx, url)
	if err != nil {
		return "", fmt.Errorf("op=vision.Extract transcribe: %w", err)
	}
	e.Log.Debug("artifact transcribed", slog.String("key", storageKey), slog.Int("chars", len(text)))
	return text, nil
}

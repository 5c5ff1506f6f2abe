package vision_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/extractor/vision"
)

type stubStore struct {
	url string
	err error
}

func (s stubStore) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "", errors.New("not used")
}

func (s stubStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url + key, nil
}

type stubVisionAI struct {
	text    string
	err     error
	seenURL string
}

func (s *stubVisionAI) ChatJSON(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubVisionAI) TranscribeImage(_ context.Context, url string) (string, error) {
	s.seenURL = url
	return s.text, s.err
}

func TestExtract_PresignsThenTranscribes(t *testing.T) {
	ai := &stubVisionAI{text: "technical: 8/10"}
	ex := vision.New(stubStore{url: "https://storage.example/"}, ai, time.Hour, slog.Default())

	text, err := ex.Extract(context.Background(), "scores/a.png")
	require.NoError(t, err)
	assert.Equal(t, "technical: 8/10", text)
	assert.Equal(t, "https://storage.example/scores/a.png", ai.seenURL)
}

func TestExtract_PresignFailure(t *testing.T) {
	ex := vision.New(stubStore{err: errors.New("bucket gone")}, &stubVisionAI{}, time.Hour, slog.Default())

	_, err := ex.Extract(context.Background(), "notes/a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presign")
}

func TestExtract_TranscribeFailure(t *testing.T) {
	ai := &stubVisionAI{err: errors.New("model unavailable")}
	ex := vision.New(stubStore{url: "https://storage.example/"}, ai, time.Hour, slog.Default())

	_, err := ex.Extract(context.Background(), "notes/a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcribe")
}

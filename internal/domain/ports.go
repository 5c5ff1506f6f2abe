package domain

import "time"

// Repositories (ports)

type CandidateRepository interface {
	Create(ctx Context, c Candidate) (string, error)
	Get(ctx Context, id string) (Candidate, error)
	// Complete writes the full success payload and flips status to
	// completed in a single statement, but only while the row is still
	// processing. It returns ErrConflict when the row already reached a
	// terminal status.
	Complete(ctx Context, id string, out EvaluationOutcome) error
	// MarkFailed flips status to failed with an operator-facing error
	// message. It never touches standardized fields.
	MarkFailed(ctx Context, id string, errMsg string) error
	// ReclassifyStuck marks processing rows idle longer than maxAge as
	// failed and returns how many rows were affected.
	ReclassifyStuck(ctx Context, maxAge time.Duration) (int64, error)
}

type RequirementRepository interface {
	Create(ctx Context, r ClientRequirement) (string, error)
	Get(ctx Context, id string) (ClientRequirement, error)
	List(ctx Context, clientID string, offset, limit int) ([]ClientRequirement, error)
}

type ClientRepository interface {
	Create(ctx Context, name string) (Client, error)
	List(ctx Context, offset, limit int) ([]Client, error)
}

type InterviewerRepository interface {
	Create(ctx Context, name string) (Interviewer, error)
	List(ctx Context, offset, limit int) ([]Interviewer, error)
}

type DocumentRepository interface {
	Create(ctx Context, d Document) (string, error)
	ListByCandidate(ctx Context, candidateID string) ([]Document, error)
}

type MetricsRepository interface {
	Overview(ctx Context, f MetricsFilter) (MetricsOverview, error)
	// Candidates lists completed, rejected candidates carrying the named
	// gap flag (empty flag means all), newest first.
	Candidates(ctx Context, f MetricsFilter, flag string, offset, limit int) ([]Candidate, error)
}

// Queue (port)

type Queue interface {
	EnqueueEvaluate(ctx Context, task EvaluateTask) error
}

// AIClient (port) is the LLM chat surface the transforms are built on.
type AIClient interface {
	// ChatJSON sends a prompt with a JSON-object response mode and
	// returns the raw message content.
	ChatJSON(ctx Context, systemPrompt, userPrompt string) (string, error)
	// TranscribeImage asks the vision model to transcribe the document
	// behind a readable URL, returning plain text.
	TranscribeImage(ctx Context, imageURL string) (string, error)
}

// ObjectStore (port) issues time-limited URLs for direct browser uploads
// and for internal reads; bytes never transit this service.
type ObjectStore interface {
	PresignPut(ctx Context, key, contentType string, expiry time.Duration) (string, error)
	PresignGet(ctx Context, key string, expiry time.Duration) (string, error)
}

// TextExtractor (port) resolves a stored document reference to plain text.
type TextExtractor interface {
	Extract(ctx Context, storageKey string) (string, error)
}

// Deduper (port) is the idempotency barrier the consumer takes before
// processing a delivery; Acquire reports false when another delivery for
// the same candidate already claimed it.
type Deduper interface {
	Acquire(ctx Context, candidateID string, ttl time.Duration) (bool, error)
	Release(ctx Context, candidateID string) error
}

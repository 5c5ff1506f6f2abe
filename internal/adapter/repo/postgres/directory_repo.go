package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// ClientRepo persists the client directory.
type ClientRepo struct{ Pool PgxPool }

// NewClientRepo constructs a ClientRepo with the given pool.
func NewClientRepo(p PgxPool) *ClientRepo { return &ClientRepo{Pool: p} }

// Create inserts a client and returns it.
func (r *ClientRepo) Create(ctx domain.Context, name string) (domain.Client, error) {
	tracer := otel.Tracer("repo.clients")
	ctx, span := tracer.Start(ctx, "clients.Create")
	defer span.End()
	c := domain.Client{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := r.Pool.Exec(ctx, `INSERT INTO clients (id, name, created_at) VALUES ($1,$2,$3)`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		return domain.Client{}, fmt.Errorf("op=client.create: %w", err)
	}
	return c, nil
}

// List returns clients ordered by creation time.
func (r *ClientRepo) List(ctx domain.Context, offset, limit int) ([]domain.Client, error) {
	tracer := otel.Tracer("repo.clients")
	ctx, span := tracer.Start(ctx, "clients.List")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT id, name, created_at FROM clients ORDER BY created_at OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("op=client.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=client.list: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InterviewerRepo persists the interviewer directory.
type InterviewerRepo struct{ Pool PgxPool }

// NewInterviewerRepo constructs an InterviewerRepo with the given pool.
func NewInterviewerRepo(p PgxPool) *InterviewerRepo { return &InterviewerRepo{Pool: p} }

// Create inserts an interviewer and returns it.
func (r *InterviewerRepo) Create(ctx domain.Context, name string) (domain.Interviewer, error) {
	tracer := otel.Tracer("repo.interviewers")
	ctx, span := tracer.Start(ctx, "interviewers.Create")
	defer span.End()
	iv := domain.Interviewer{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := r.Pool.Exec(ctx, `INSERT INTO interviewers (id, name, created_at) VALUES ($1,$2,$3)`, iv.ID, iv.Name, iv.CreatedAt)
	if err != nil {
		return domain.Interviewer{}, fmt.Errorf("op=interviewer.create: %w", err)
	}
	return iv, nil
}

// List returns interviewers ordered by creation time.
func (r *InterviewerRepo) List(ctx domain.Context, offset, limit int) ([]domain.Interviewer, error) {
	tracer := otel.Tracer("repo.interviewers")
	ctx, span := tracer.Start(ctx, "interviewers.List")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT id, name, created_at FROM interviewers ORDER BY created_at OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("op=interviewer.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Interviewer
	for rows.Next() {
		var iv domain.Interviewer
		if err := rows.Scan(&iv.ID, &iv.Name, &iv.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=interviewer.list: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// DocumentRepo records stored artifacts per candidate. Append-only.
type DocumentRepo struct{ Pool PgxPool }

// NewDocumentRepo constructs a DocumentRepo with the given pool.
func NewDocumentRepo(p PgxPool) *DocumentRepo { return &DocumentRepo{Pool: p} }

// Create inserts a document row and returns its id.
func (r *DocumentRepo) Create(ctx domain.Context, d domain.Document) (string, error) {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.Create")
	defer span.End()
	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}
	ct := d.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	q := `INSERT INTO documents (id, candidate_id, storage_key, type, content_type, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, d.CandidateID, d.StorageKey, d.Type, ct, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=document.create: %w", err)
	}
	return id, nil
}

// ListByCandidate returns the documents attached to a candidate.
func (r *DocumentRepo) ListByCandidate(ctx domain.Context, candidateID string) ([]domain.Document, error) {
	tracer := otel.Tracer("repo.documents")
	ctx, span := tracer.Start(ctx, "documents.ListByCandidate")
	defer span.End()
	q := `SELECT id, candidate_id, storage_key, type, content_type, created_at FROM documents WHERE candidate_id=$1 ORDER BY created_at`
	rows, err := r.Pool.Query(ctx, q, candidateID)
	if err != nil {
		return nil, fmt.Errorf("op=document.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.CandidateID, &d.StorageKey, &d.Type, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=document.list: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

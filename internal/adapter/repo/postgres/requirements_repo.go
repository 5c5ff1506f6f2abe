package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// RequirementRepo persists and loads client requirements from PostgreSQL.
type RequirementRepo struct{ Pool PgxPool }

// NewRequirementRepo constructs a RequirementRepo with the given pool.
func NewRequirementRepo(p PgxPool) *RequirementRepo { return &RequirementRepo{Pool: p} }

// Create inserts a requirement and returns its id.
func (r *RequirementRepo) Create(ctx domain.Context, req domain.ClientRequirement) (string, error) {
	tracer := otel.Tracer("repo.requirements")
	ctx, span := tracer.Start(ctx, "requirements.Create")
	defer span.End()
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO client_requirements (id, client_id, role_title, raw_content, standardized_requirements, created_at)
	VALUES ($1,$2,$3,$4,NULLIF($5,''),$6)`
	_, err := r.Pool.Exec(ctx, q, id, req.ClientID, req.RoleTitle, req.RawContent, req.StandardizedRequirements, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=requirement.create: %w", err)
	}
	return id, nil
}

// Get loads a requirement by id.
func (r *RequirementRepo) Get(ctx domain.Context, id string) (domain.ClientRequirement, error) {
	tracer := otel.Tracer("repo.requirements")
	ctx, span := tracer.Start(ctx, "requirements.Get")
	defer span.End()
	q := `SELECT id, client_id, role_title, raw_content, COALESCE(standardized_requirements,''), created_at
	FROM client_requirements WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var req domain.ClientRequirement
	if err := row.Scan(&req.ID, &req.ClientID, &req.RoleTitle, &req.RawContent, &req.StandardizedRequirements, &req.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.ClientRequirement{}, fmt.Errorf("op=requirement.get: %w", domain.ErrNotFound)
		}
		return domain.ClientRequirement{}, fmt.Errorf("op=requirement.get: %w", err)
	}
	return req, nil
}

// List returns requirements joined with the owning client name, optionally
// filtered by client id.
func (r *RequirementRepo) List(ctx domain.Context, clientID string, offset, limit int) ([]domain.ClientRequirement, error) {
	tracer := otel.Tracer("repo.requirements")
	ctx, span := tracer.Start(ctx, "requirements.List")
	defer span.End()
	q := `SELECT cr.id, cr.client_id, COALESCE(c.name,''), cr.role_title, cr.raw_content,
		COALESCE(cr.standardized_requirements,''), cr.created_at
	FROM client_requirements cr LEFT JOIN clients c ON cr.client_id = c.id`
	args := []any{}
	if clientID != "" {
		q += ` WHERE cr.client_id=$1`
		args = append(args, clientID)
	}
	q += fmt.Sprintf(` ORDER BY cr.created_at DESC OFFSET $%d LIMIT $%d`, len(args)+1, len(args)+2)
	args = append(args, offset, limit)
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=requirement.list: %w", err)
	}
	defer rows.Close()
	var out []domain.ClientRequirement
	for rows.Next() {
		var req domain.ClientRequirement
		if err := rows.Scan(&req.ID, &req.ClientID, &req.ClientName, &req.RoleTitle, &req.RawContent, &req.StandardizedRequirements, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=requirement.list: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

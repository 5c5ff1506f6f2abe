package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// SetupService manages the reference entities: clients, interviewers, and
// client requirements.
type SetupService struct {
	Clients      domain.ClientRepository
	Interviewers domain.InterviewerRepository
	Requirements domain.RequirementRepository
	Transformer  Transformer
}

// NewSetupService constructs a SetupService.
func NewSetupService(c domain.ClientRepository, i domain.InterviewerRepository, r domain.RequirementRepository, tr Transformer) SetupService {
	return SetupService{Clients: c, Interviewers: i, Requirements: r, Transformer: tr}
}

// CreateClient files a named client.
func (s SetupService) CreateClient(ctx domain.Context, name string) (domain.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Client{}, fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
	}
	return s.Clients.Create(ctx, name)
}

// ListClients pages through clients.
func (s SetupService) ListClients(ctx domain.Context, offset, limit int) ([]domain.Client, error) {
	return s.Clients.List(ctx, offset, clampLimit(limit))
}

// CreateInterviewer files a named interviewer.
func (s SetupService) CreateInterviewer(ctx domain.Context, name string) (domain.Interviewer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Interviewer{}, fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
	}
	return s.Interviewers.Create(ctx, name)
}

// ListInterviewers pages through interviewers.
func (s SetupService) ListInterviewers(ctx domain.Context, offset, limit int) ([]domain.Interviewer, error) {
	return s.Interviewers.List(ctx, offset, clampLimit(limit))
}

// CreateRequirement standardizes the raw content and files the
// requirement. Standardization is best effort: when the transform fails
// the requirement is stored with raw content only and the pipeline later
// falls back to it.
func (s SetupService) CreateRequirement(ctx domain.Context, clientID, roleTitle, rawContent string) (domain.ClientRequirement, error) {
	if clientID == "" || strings.TrimSpace(rawContent) == "" {
		return domain.ClientRequirement{}, fmt.Errorf("%w: client_id and raw_content required", domain.ErrInvalidArgument)
	}
	req := domain.ClientRequirement{
		ClientID:   clientID,
		RoleTitle:  strings.TrimSpace(roleTitle),
		RawContent: rawContent,
	}
	standardized, err := s.Transformer.StandardizeRequirements(ctx, rawContent)
	if err != nil {
		slog.Warn("requirement standardization failed, storing raw content only",
			slog.String("client_id", clientID), slog.Any("error", err))
	} else {
		req.StandardizedRequirements = standardized
	}
	id, err := s.Requirements.Create(ctx, req)
	if err != nil {
		return domain.ClientRequirement{}, err
	}
	req.ID = id
	return req, nil
}

// ListRequirements pages through requirements, optionally per client.
func (s SetupService) ListRequirements(ctx domain.Context, clientID string, offset, limit int) ([]domain.ClientRequirement, error) {
	return s.Requirements.List(ctx, clientID, offset, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/repo/postgres"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
	"github.com/talentgap/recruitment-evaluator/internal/usecase"
)

// Server bundles the services behind the REST surface.
type Server struct {
	Submit  usecase.SubmitService
	Status  usecase.StatusService
	Uploads usecase.UploadService
	Setup   usecase.SetupService
	Metrics usecase.MetricsService

	Admin       *postgres.AdminConsole
	Candidates  domain.CandidateRepository
	AdminSecret string
	StuckAfter  time.Duration

	validate *validator.Validate
}

// NewServer constructs a Server.
func NewServer(
	submit usecase.SubmitService,
	status usecase.StatusService,
	uploads usecase.UploadService,
	setup usecase.SetupService,
	metrics usecase.MetricsService,
	admin *postgres.AdminConsole,
	candidates domain.CandidateRepository,
	adminSecret string,
	stuckAfter time.Duration,
) *Server {
	return &Server{
		Submit:      submit,
		Status:      status,
		Uploads:     uploads,
		Setup:       setup,
		Metrics:     metrics,
		Admin:       admin,
		Candidates:  candidates,
		AdminSecret: adminSecret,
		StuckAfter:  stuckAfter,
		validate:    validator.New(),
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed json body: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Server) invalid(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Errorf("%w: field %s failed on %s", domain.ErrInvalidArgument, f.Field(), f.Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
}

// --- uploads ---

type presignRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Folder      string `json:"folder"`
}

// PresignUpload handles POST /v1/uploads/presign.
func (s *Server) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}
	out, err := s.Uploads.Presign(r.Context(), req.Filename, req.ContentType, req.Folder)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// --- candidates ---

type submitRequest struct {
	ClientRequirementID string  `json:"client_requirement_id" validate:"required"`
	InterviewerID       string  `json:"interviewer_id"`
	CandidateName       string  `json:"candidate_name" validate:"required"`
	Role                string  `json:"role"`
	InterviewDate       *string `json:"interview_date"`
	IsAccepted          bool    `json:"is_accepted"`

	NotesKey    string `json:"notes_key"`
	ScoresKey   string `json:"scores_key"`
	FeedbackKey string `json:"feedback_key"`

	NotesText    string `json:"notes_text"`
	ScoresText   string `json:"scores_text"`
	FeedbackText string `json:"feedback_text"`
}

// SubmitCandidate handles POST /v1/candidates. It returns 202 with the new
// candidate id; evaluation runs asynchronously in the worker.
func (s *Server) SubmitCandidate(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}

	sub := usecase.Submission{
		ClientRequirementID: req.ClientRequirementID,
		InterviewerID:       req.InterviewerID,
		CandidateName:       req.CandidateName,
		Role:                req.Role,
		IsAccepted:          req.IsAccepted,
		NotesKey:            req.NotesKey,
		ScoresKey:           req.ScoresKey,
		FeedbackKey:         req.FeedbackKey,
		NotesText:           req.NotesText,
		ScoresText:          req.ScoresText,
		FeedbackText:        req.FeedbackText,
	}
	if req.InterviewDate != nil && *req.InterviewDate != "" {
		d, err := time.Parse("2006-01-02", *req.InterviewDate)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: interview_date must be YYYY-MM-DD", domain.ErrInvalidArgument), nil)
			return
		}
		sub.InterviewDate = &d
	}

	id, err := s.Submit.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"candidate_id": id, "status": string(domain.StatusProcessing)})
}

// CandidateStatus handles GET /v1/candidates/{id}/status.
func (s *Server) CandidateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.Status.Fetch(r.Context(), id)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// --- directory setup ---

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateClient handles POST /v1/clients.
func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}
	c, err := s.Setup.CreateClient(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, clientPayload(c))
}

// ListClients handles GET /v1/clients.
func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	cs, err := s.Setup.ListClients(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out := make([]map[string]interface{}, 0, len(cs))
	for _, c := range cs {
		out = append(out, clientPayload(c))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clients": out})
}

func clientPayload(c domain.Client) map[string]interface{} {
	return map[string]interface{}{"id": c.ID, "name": c.Name, "created_at": c.CreatedAt}
}

// CreateInterviewer handles POST /v1/interviewers.
func (s *Server) CreateInterviewer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}
	iv, err := s.Setup.CreateInterviewer(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": iv.ID, "name": iv.Name, "created_at": iv.CreatedAt})
}

// ListInterviewers handles GET /v1/interviewers.
func (s *Server) ListInterviewers(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	ivs, err := s.Setup.ListInterviewers(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out := make([]map[string]interface{}, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, map[string]interface{}{"id": iv.ID, "name": iv.Name, "created_at": iv.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"interviewers": out})
}

type requirementRequest struct {
	ClientID   string `json:"client_id" validate:"required"`
	RoleTitle  string `json:"role_title" validate:"required"`
	RawContent string `json:"raw_content" validate:"required"`
}

// CreateRequirement handles POST /v1/requirements.
func (s *Server) CreateRequirement(w http.ResponseWriter, r *http.Request) {
	var req requirementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}
	created, err := s.Setup.CreateRequirement(r.Context(), req.ClientID, req.RoleTitle, req.RawContent)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, requirementPayload(created))
}

// ListRequirements handles GET /v1/requirements.
func (s *Server) ListRequirements(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	rs, err := s.Setup.ListRequirements(r.Context(), r.URL.Query().Get("client_id"), offset, limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out := make([]map[string]interface{}, 0, len(rs))
	for _, req := range rs {
		out = append(out, requirementPayload(req))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requirements": out})
}

func requirementPayload(r domain.ClientRequirement) map[string]interface{} {
	p := map[string]interface{}{
		"id":          r.ID,
		"client_id":   r.ClientID,
		"role_title":  r.RoleTitle,
		"raw_content": r.RawContent,
		"created_at":  r.CreatedAt,
	}
	if r.ClientName != "" {
		p["client_name"] = r.ClientName
	}
	if r.StandardizedRequirements != "" {
		p["standardized_requirements"] = r.StandardizedRequirements
	}
	return p
}

// --- metrics dashboard ---

// MetricsOverview handles GET /v1/metrics/overview.
func (s *Server) MetricsOverview(w http.ResponseWriter, r *http.Request) {
	f, err := metricsFilter(r)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out, err := s.Metrics.Overview(r.Context(), f)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// MetricsCandidates handles GET /v1/metrics/candidates.
func (s *Server) MetricsCandidates(w http.ResponseWriter, r *http.Request) {
	f, err := metricsFilter(r)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	flag := r.URL.Query().Get("flag")
	if flag != "" && !postgres.ValidFlag(flag) {
		writeError(w, r, fmt.Errorf("%w: unknown flag %q", domain.ErrInvalidArgument, flag), nil)
		return
	}
	offset, limit := pagination(r)
	cands, err := s.Metrics.Candidates(r.Context(), f, flag, offset, limit)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	out := make([]map[string]interface{}, 0, len(cands))
	for _, c := range cands {
		out = append(out, map[string]interface{}{
			"id":                 c.ID,
			"candidate_name":     c.CandidateName,
			"role":               c.Role,
			"is_accepted":        c.IsAccepted,
			"avg_internal_score": c.AvgInternalScore,
			"gap_analysis":       c.Gaps,
			"created_at":         c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": out})
}

func metricsFilter(r *http.Request) (domain.MetricsFilter, error) {
	q := r.URL.Query()
	f := domain.MetricsFilter{
		ClientID:      q.Get("client_id"),
		InterviewerID: q.Get("interviewer_id"),
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			t, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return domain.MetricsFilter{}, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", domain.ErrInvalidArgument, name)
		}
		*dst = &t
	}
	return f, nil
}

func pagination(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return offset, limit
}

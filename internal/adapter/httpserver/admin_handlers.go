package httpserver

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// RequireAdmin guards operator endpoints with the shared secret carried in
// X-Admin-Secret. Comparison is constant time.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminSecret == "" {
			writeError(w, r, fmt.Errorf("%w: admin endpoints disabled", domain.ErrUnauthorized), nil)
			return
		}
		got := r.Header.Get("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.AdminSecret)) != 1 {
			writeError(w, r, fmt.Errorf("%w: bad admin secret", domain.ErrUnauthorized), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adminDBRequest struct {
	SQL     string `json:"sql" validate:"required"`
	MaxRows int    `json:"max_rows"`
}

// AdminDB handles POST /v1/admin/db: it runs one SQL statement against the
// primary and returns rows or the affected count. Queries are capped; the
// endpoint exists for operators, not applications.
func (s *Server) AdminDB(w http.ResponseWriter, r *http.Request) {
	var req adminDBRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, s.invalid(err), nil)
		return
	}
	LoggerFrom(r).Warn("admin sql executed", slog.Int("sql_len", len(req.SQL)))
	res, err := s.Admin.Run(r.Context(), req.SQL, req.MaxRows)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AdminCleanupStuck handles POST /v1/admin/cleanup-stuck: candidates idle
// in processing longer than the configured window become failed.
func (s *Server) AdminCleanupStuck(w http.ResponseWriter, r *http.Request) {
	n, err := s.Candidates.ReclassifyStuck(r.Context(), s.StuckAfter)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	LoggerFrom(r).Info("stuck candidates reclassified", slog.Int64("count", n))
	writeJSON(w, http.StatusOK, map[string]int64{"reclassified": n})
}

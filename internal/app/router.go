// Package app wires configuration, middleware, routes and background
// loops into runnable server and worker assemblies.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talentgap/recruitment-evaluator/internal/adapter/httpserver"
	"github.com/talentgap/recruitment-evaluator/internal/adapter/observability"
	"github.com/talentgap/recruitment-evaluator/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input means allow all.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middleware and an
// explicit route table.
func BuildRouter(cfg config.Config, srv *httpserver.Server, ready http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Mutating endpoints are rate limited per client IP.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))
		wr.Post("/v1/clients", srv.CreateClient)
		wr.Post("/v1/interviewers", srv.CreateInterviewer)
		wr.Post("/v1/requirements", srv.CreateRequirement)
		wr.Post("/v1/uploads/presign", srv.PresignUpload)
		wr.Post("/v1/candidates", srv.SubmitCandidate)
	})

	r.Get("/v1/clients", srv.ListClients)
	r.Get("/v1/interviewers", srv.ListInterviewers)
	r.Get("/v1/requirements", srv.ListRequirements)
	r.Get("/v1/candidates/{id}/status", srv.CandidateStatus)
	r.Get("/v1/metrics/overview", srv.MetricsOverview)
	r.Get("/v1/metrics/candidates", srv.MetricsCandidates)

	if cfg.AdminEnabled() {
		r.Group(func(ar chi.Router) {
			ar.Use(srv.RequireAdmin)
			ar.Post("/v1/admin/db", srv.AdminDB)
			ar.Post("/v1/admin/cleanup-stuck", srv.AdminCleanupStuck)
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ready)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return httpserver.SecurityHeaders(r)
}

package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentgap/recruitment-evaluator/internal/app"
)

type pinger struct{ err error }

func (p pinger) Ping(_ context.Context) error { return p.err }

func TestReadyz_AllHealthy(t *testing.T) {
	h := app.ReadyzHandler(
		app.PingCheck("db", pinger{}),
		app.PingCheck("redis", pinger{}),
	)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz_ReportsFailingDependency(t *testing.T) {
	h := app.ReadyzHandler(
		app.PingCheck("db", pinger{}),
		app.PingCheck("redis", pinger{err: errors.New("connection refused")}),
	)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestReadyz_NilDependencyFailsClosed(t *testing.T) {
	h := app.ReadyzHandler(app.PingCheck("db", nil))
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example, https://b.example "))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , ,"))
}

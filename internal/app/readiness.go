package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Pinger is the minimal interface readiness needs from a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// PingCheck wraps a Pinger as a Check; nil dependencies fail closed.
func PingCheck(name string, p Pinger) Check {
	return Check{Name: name, Probe: func(ctx context.Context) error {
		if p == nil {
			return fmt.Errorf("%s not configured", name)
		}
		return p.Ping(ctx)
	}}
}

// ReadyzHandler runs every check with a short deadline and reports 503
// with the failing names when any check fails.
func ReadyzHandler(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failed []string
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", c.Name, err))
			}
		}
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			for _, f := range failed {
				fmt.Fprintln(w, f)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

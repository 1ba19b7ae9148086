package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a ping function (cache, object store, *sql.DB) to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Probe runs the dependency checks of one process. All checks run
// concurrently, each bounded by checkTimeout.
type Probe struct {
	checkers map[string]HealthChecker
}

func NewProbe(checkers map[string]HealthChecker) *Probe {
	return &Probe{checkers: checkers}
}

func (p *Probe) Report(ctx context.Context) HealthStatus {
	report := HealthStatus{Status: "healthy", Timestamp: time.Now().UTC(), Checks: make(map[string]CheckStatus, len(p.checkers))}

	var mu sync.Mutex
	var g errgroup.Group
	for name, c := range p.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			st := CheckStatus{Status: "healthy"}
			if err := c.Check(cctx); err != nil {
				st = CheckStatus{Status: "unhealthy", Message: err.Error()}
			}
			mu.Lock()
			report.Checks[name] = st
			if st.Status != "healthy" {
				report.Status = "unhealthy"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}

// Health serves the full report, 503 when any dependency is down.
func (p *Probe) Health(w http.ResponseWriter, r *http.Request) {
	report := p.Report(r.Context())
	code := http.StatusOK
	if report.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// Ready reports whether the process should receive analysis traffic.
func (p *Probe) Ready(w http.ResponseWriter, r *http.Request) {
	if p.Report(r.Context()).Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

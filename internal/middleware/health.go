package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// PingChecker adapts anything with a Ping method (incident stores, *sql.DB).
type PingChecker struct {
	Target interface {
		Ping(ctx context.Context) error
	}
}

func (p PingChecker) Check(ctx context.Context) error {
	return p.Target.Ping(ctx)
}

// Check is one named dependency check. A failing optional check (the
// classification cache) degrades the service; a failing required one (the
// incident store) makes it unhealthy.
type Check struct {
	Name     string
	Checker  HealthChecker
	Optional bool
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// checkTimeout bounds each check independently.
const checkTimeout = 2 * time.Second

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency"`
}

// runChecks checks every dependency concurrently.
func runChecks(ctx context.Context, checks []Check) HealthStatus {
	out := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(checks)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Checker.Check(cctx)
			cs := CheckStatus{Status: StatusHealthy, Optional: c.Optional, Latency: time.Since(start).String()}
			if err != nil {
				cs.Status = StatusUnhealthy
				cs.Message = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			out.Checks[c.Name] = cs
			switch {
			case err == nil:
			case !c.Optional:
				out.Status = StatusUnhealthy
			case out.Status == StatusHealthy:
				out.Status = StatusDegraded
			}
		}(c)
	}
	wg.Wait()
	return out
}

// HealthHandler reports every check. Only an unhealthy required dependency
// turns the response into a 503.
func HealthHandler(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := runChecks(r.Context(), checks)

		code := http.StatusOK
		if health.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler is ready once every required dependency answers.
func ReadinessHandler(checks []Check) http.HandlerFunc {
	var required []Check
	for _, c := range checks {
		if !c.Optional {
			required = append(required, c)
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		health := runChecks(r.Context(), required)
		status, code := "ready", http.StatusOK
		if health.Status != StatusHealthy {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"timestamp": health.Timestamp,
		})
	}
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

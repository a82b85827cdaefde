package server

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the body of GET /ready.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// liveness reports that the process is serving.
func liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// readiness runs every configured check and answers 503 if any fails.
func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	health := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(s.checks)),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name].Heartbeat(ctx); err != nil {
			health.Status = "unavailable"
			health.Checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			s.logger.Warn("readiness check failed", "check", name, "error", err)
			continue
		}
		health.Checks[name] = CheckStatus{Status: "healthy"}
	}

	status := http.StatusOK
	if health.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

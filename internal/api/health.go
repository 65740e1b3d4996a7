package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// healthCheckTimeout bounds every dependency check of one /health call
const healthCheckTimeout = 3 * time.Second

// Check reports whether one dependency of the screening service is usable
type Check func(ctx context.Context) error

// Health reports dependency status and the scoring config hash in use
type Health struct {
	configHash string
	names      []string
	checks     map[string]Check
}

// NewHealth creates a health endpoint for the given scoring config hash
func NewHealth(configHash string) *Health {
	return &Health{
		configHash: configHash,
		checks:     make(map[string]Check),
	}
}

// Add registers a named dependency check
func (h *Health) Add(name string, check Check) *Health {
	if _, exists := h.checks[name]; !exists {
		h.names = append(h.names, name)
		sort.Strings(h.names)
	}
	h.checks[name] = check
	return h
}

// ServeHTTP answers 200 when every check passes, 503 otherwise
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	results := make(map[string]string, len(h.names))

	for _, name := range h.names {
		if err := h.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      status,
		"service":     "alphaforge-api",
		"config_hash": h.configHash,
		"checks":      results,
	})
}

package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// ModelState reports whether the served model is available
type ModelState interface {
	Loaded() bool
}

// Handler provides health check endpoints
type Handler struct {
	state       ModelState
	serviceName string
	version     string
	startTime   time.Time
}

// New creates a new health check handler
func New(state ModelState, serviceName, version string) *Handler {
	return &Handler{
		state:       state,
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
	}
}

// Status is the health check response body
type Status struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Version     string `json:"version"`
	ModelLoaded bool   `json:"model_loaded"`
	Uptime      string `json:"uptime"`
	Timestamp   string `json:"timestamp"`
}

// HandleHealth always succeeds and reflects the current model load state.
// It never invokes the classifier.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, http.StatusOK)
}

// HandleLiveness returns 200 OK if the process is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness returns 200 when the model is loaded, 503 otherwise
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !h.state.Loaded() {
		status = http.StatusServiceUnavailable
	}
	h.writeStatus(w, status)
}

// HandlePing answers the serving-protocol compatibility probe
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "pong",
	})
}

func (h *Handler) writeStatus(w http.ResponseWriter, code int) {
	loaded := h.state.Loaded()

	status := "healthy"
	if !loaded {
		status = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Status{
		Status:      status,
		Service:     h.serviceName,
		Version:     h.version,
		ModelLoaded: loaded,
		Uptime:      time.Since(h.startTime).String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

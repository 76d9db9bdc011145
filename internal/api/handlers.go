package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"mlserve/internal/services/prediction"
	"mlserve/pkg/errors"
	"mlserve/pkg/logger"
)

// predictRequest is the body of a single prediction call
type predictRequest struct {
	Features []float64 `json:"features"`
}

// batchRequest is the body of a batch prediction call
type batchRequest struct {
	Predictions []predictRequest `json:"predictions"`
}

type featuresResponse struct {
	Features []string `json:"features"`
	Count    int      `json:"count"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Handlers maps transport requests onto the prediction service and internal
// outcomes onto HTTP status codes
type Handlers struct {
	service *prediction.Service
	log     *logger.Logger
}

// NewHandlers creates the prediction endpoint handlers
func NewHandlers(service *prediction.Service, log *logger.Logger) *Handlers {
	return &Handlers{service: service, log: log}
}

// HandlePredict serves POST /predict
func (h *Handlers) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Predict(req.Features)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleBatchPredict serves POST /batch-predict
func (h *Handlers) HandleBatchPredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	items := make([][]float64, len(req.Predictions))
	for i, p := range req.Predictions {
		items[i] = p.Features
	}

	result, err := h.service.PredictBatch(items)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleInvocations serves POST /invocations, the legacy tabular format
func (h *Handlers) HandleInvocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.service.PredictTabular(raw)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleMetadata serves GET /model/metadata
func (h *Handlers) HandleMetadata(w http.ResponseWriter, r *http.Request) {
	if !h.service.Loaded() {
		h.writeServiceError(w, errors.ErrModelNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Metadata())
}

// HandleFeatures serves GET /model/features
func (h *Handlers) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	if !h.service.Loaded() {
		h.writeServiceError(w, errors.ErrModelNotLoaded)
		return
	}

	meta := h.service.Metadata()
	writeJSON(w, http.StatusOK, featuresResponse{
		Features: meta.FeatureNames(),
		Count:    meta.NFeatures,
	})
}

// writeServiceError maps the serving error taxonomy onto status codes:
// not-loaded -> 503, shape/batch-size violations -> 422, inference and
// normalization failures -> 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var (
		shapeErr *errors.ShapeError
		batchErr *errors.BatchSizeError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrModelNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.As(err, &shapeErr), errors.As(err, &batchErr):
		status = http.StatusUnprocessableEntity
	}

	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

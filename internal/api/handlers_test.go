package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlserve/internal/domain/model"
	"mlserve/internal/metrics"
	"mlserve/internal/ml"
	"mlserve/internal/services/prediction"
	"mlserve/pkg/logger"
)

type stubClassifier struct {
	predictFn func(features []float64) (int, []float64, error)
}

func (s *stubClassifier) Predict(features []float64) (int, []float64, error) {
	return s.predictFn(features)
}

func (s *stubClassifier) Descriptor() ml.Descriptor { return ml.Descriptor{} }
func (s *stubClassifier) Close()                    {}

func testMetadata() *model.Metadata {
	return &model.Metadata{
		Name:      "RandomForestClassifier",
		Version:   "1.0.0",
		Framework: "scikit-learn",
		Classes:   []string{"malignant", "benign"},
		NFeatures: 30,
	}
}

func newTestHandlers(loaded bool) *Handlers {
	var svc *prediction.Service
	if loaded {
		stub := &stubClassifier{
			predictFn: func([]float64) (int, []float64, error) {
				return 1, []float64{0.25, 0.75}, nil
			},
		}
		svc = prediction.NewService(stub, testMetadata(), metrics.New(), logger.Get())
	} else {
		svc = prediction.NewService(nil, nil, metrics.New(), logger.Get())
	}
	return NewHandlers(svc, logger.Get())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandlePredict(t *testing.T) {
	h := newTestHandlers(true)

	rec := postJSON(t, h.HandlePredict, "/predict", predictRequest{Features: make([]float64, 30)})
	require.Equal(t, http.StatusOK, rec.Code)

	var result prediction.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Prediction)
	assert.Equal(t, 0.75, result.Probability)
	assert.Equal(t, 30, result.FeaturesCount)
}

func TestHandlePredict_ShapeMismatch(t *testing.T) {
	h := newTestHandlers(true)

	rec := postJSON(t, h.HandlePredict, "/predict", predictRequest{Features: make([]float64, 29)})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "expected 30 features, got 29")
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandlePredict_NotLoaded(t *testing.T) {
	h := newTestHandlers(false)

	rec := postJSON(t, h.HandlePredict, "/predict", predictRequest{Features: make([]float64, 30)})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePredict_InferenceFailure(t *testing.T) {
	stub := &stubClassifier{
		predictFn: func([]float64) (int, []float64, error) {
			return 0, nil, assert.AnError
		},
	}
	svc := prediction.NewService(stub, testMetadata(), metrics.New(), logger.Get())
	h := NewHandlers(svc, logger.Get())

	rec := postJSON(t, h.HandlePredict, "/predict", predictRequest{Features: make([]float64, 30)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlePredict_BadBody(t *testing.T) {
	h := newTestHandlers(true)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandlePredict(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePredict_MethodNotAllowed(t *testing.T) {
	h := newTestHandlers(true)

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	rec := httptest.NewRecorder()
	h.HandlePredict(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBatchPredict(t *testing.T) {
	h := newTestHandlers(true)

	body := batchRequest{Predictions: []predictRequest{
		{Features: make([]float64, 30)},
		{Features: make([]float64, 29)},
		{Features: make([]float64, 30)},
	}}

	rec := postJSON(t, h.HandleBatchPredict, "/batch-predict", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result prediction.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Predictions, 2)
}

func TestHandleBatchPredict_EmptyBatch(t *testing.T) {
	h := newTestHandlers(true)

	rec := postJSON(t, h.HandleBatchPredict, "/batch-predict", batchRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleInvocations(t *testing.T) {
	h := newTestHandlers(true)

	body := map[string]interface{}{"instances": [][]float64{make([]float64, 30)}}
	rec := postJSON(t, h.HandleInvocations, "/invocations", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result prediction.TabularResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Predictions, 1)
	require.Len(t, result.Probabilities, 1)
	assert.Len(t, result.Probabilities[0], 2)
}

func TestHandleInvocations_BadEnvelope(t *testing.T) {
	h := newTestHandlers(true)

	rec := postJSON(t, h.HandleInvocations, "/invocations", map[string]string{"foo": "bar"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleMetadata(t *testing.T) {
	h := newTestHandlers(true)

	req := httptest.NewRequest(http.MethodGet, "/model/metadata", nil)
	rec := httptest.NewRecorder()
	h.HandleMetadata(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meta model.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "RandomForestClassifier", meta.Name)
	assert.Equal(t, []string{"malignant", "benign"}, meta.Classes)
	assert.Equal(t, 30, meta.NFeatures)

	// Identity fields are stable across repeated calls
	rec2 := httptest.NewRecorder()
	h.HandleMetadata(rec2, httptest.NewRequest(http.MethodGet, "/model/metadata", nil))
	assert.JSONEq(t, rec.Body.String(), rec2.Body.String())
}

func TestHandleMetadata_NotLoaded(t *testing.T) {
	h := newTestHandlers(false)

	rec := httptest.NewRecorder()
	h.HandleMetadata(rec, httptest.NewRequest(http.MethodGet, "/model/metadata", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleFeatures(t *testing.T) {
	h := newTestHandlers(true)

	rec := httptest.NewRecorder()
	h.HandleFeatures(rec, httptest.NewRequest(http.MethodGet, "/model/features", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp featuresResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Count)
	require.Len(t, resp.Features, 30)
	assert.Equal(t, "feature_0", resp.Features[0])
	assert.Equal(t, "feature_29", resp.Features[29])
}

package prediction

import (
	"bytes"
	"encoding/json"
	"time"

	"mlserve/internal/domain/model"
	"mlserve/internal/metrics"
	"mlserve/internal/ml"
	"mlserve/pkg/errors"
	"mlserve/pkg/logger"
)

// Result is a single immutable prediction outcome
type Result struct {
	Prediction    int       `json:"prediction"`
	Probability   float64   `json:"probability"`
	Confidence    float64   `json:"confidence"`
	FeaturesCount int       `json:"features_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// BatchResult aggregates the outcomes of one batch request. Predictions
// holds only the items that succeeded, in input order; Successful + Failed
// always equals TotalProcessed.
type BatchResult struct {
	Predictions    []Result  `json:"predictions"`
	TotalProcessed int       `json:"total_processed"`
	Successful     int       `json:"successful"`
	Failed         int       `json:"failed"`
	Timestamp      time.Time `json:"timestamp"`
}

// TabularResult is the legacy endpoint response: one predicted class and
// one full probability vector per input row.
type TabularResult struct {
	Predictions   []int       `json:"predictions"`
	Probabilities [][]float64 `json:"probabilities"`
}

// Service orchestrates validation, classification and metrics recording
// for single, batch and legacy tabular prediction requests
type Service struct {
	classifier ml.Classifier
	meta       *model.Metadata
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewService creates a new prediction service
func NewService(classifier ml.Classifier, meta *model.Metadata, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		classifier: classifier,
		meta:       meta,
		metrics:    m,
		log:        log,
	}
}

// Loaded reports whether a classifier is available
func (s *Service) Loaded() bool {
	return s.classifier != nil && s.meta != nil
}

// Metadata returns the served model's metadata record
func (s *Service) Metadata() *model.Metadata {
	return s.meta
}

// Predict runs a single prediction. A shape mismatch is rejected before the
// classifier is invoked; a classifier fault surfaces as a typed inference
// failure, never a panic. Both record an error outcome before returning.
func (s *Service) Predict(features []float64) (*Result, error) {
	if !s.Loaded() {
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, errors.ErrModelNotLoaded
	}

	if err := ValidateVector(features, s.meta.NFeatures); err != nil {
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, err
	}

	result, err := s.infer(features)
	if err != nil {
		s.log.Errorf("Prediction error: %v", err)
		s.metrics.FailedPredictions.Inc()
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, err
	}

	s.metrics.RecordRequest(metrics.StatusSuccess)
	return result, nil
}

// PredictBatch processes each item independently: a failed item is counted
// and omitted from the result list while the remaining items still run.
// The relative order of successful results matches the input order.
func (s *Service) PredictBatch(items [][]float64) (*BatchResult, error) {
	if !s.Loaded() {
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, errors.ErrModelNotLoaded
	}

	if err := ValidateBatch(len(items)); err != nil {
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, err
	}

	s.metrics.BatchSize.Observe(float64(len(items)))

	results := make([]Result, 0, len(items))
	failed := 0

	for i, features := range items {
		result, err := s.predictItem(features)
		if err != nil {
			s.log.Warnf("Batch item %d failed: %v", i, err)
			s.metrics.FailedPredictions.Inc()
			failed++
			continue
		}
		results = append(results, *result)
	}

	// One outcome per batch request, not per item
	s.metrics.RecordRequest(metrics.StatusSuccess)

	return &BatchResult{
		Predictions:    results,
		TotalProcessed: len(items),
		Successful:     len(results),
		Failed:         failed,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// predictItem is the per-item unit of batch processing. It returns an
// explicit error value instead of letting failures cross the batch loop.
func (s *Service) predictItem(features []float64) (*Result, error) {
	if err := ValidateVector(features, s.meta.NFeatures); err != nil {
		return nil, err
	}
	return s.infer(features)
}

// PredictTabular serves the legacy tabular format. Unlike PredictBatch it
// deliberately does not isolate per-row failures: any normalization or
// inference error fails the whole call with a single aggregate error. The
// source system treats the two paths differently and that asymmetry is
// preserved here.
func (s *Service) PredictTabular(raw json.RawMessage) (*TabularResult, error) {
	if !s.Loaded() {
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, errors.ErrModelNotLoaded
	}

	rows, err := normalizeTabular(raw)
	if err != nil {
		s.log.Errorf("Tabular normalization error: %v", err)
		s.metrics.FailedPredictions.Inc()
		s.metrics.RecordRequest(metrics.StatusError)
		return nil, err
	}

	result := &TabularResult{
		Predictions:   make([]int, 0, len(rows)),
		Probabilities: make([][]float64, 0, len(rows)),
	}

	for _, row := range rows {
		classIndex, probs, err := s.classifier.Predict(row)
		if err != nil {
			s.log.Errorf("Tabular inference error: %v", err)
			s.metrics.FailedPredictions.Inc()
			s.metrics.RecordRequest(metrics.StatusError)
			return nil, errors.NewInferenceError(err)
		}
		result.Predictions = append(result.Predictions, classIndex)
		result.Probabilities = append(result.Probabilities, probs)
	}

	s.metrics.SuccessfulPredictions.Inc()
	s.metrics.RecordRequest(metrics.StatusSuccess)
	return result, nil
}

// infer runs one classifier call, recording latency and the success counter.
// Any classifier fault is wrapped as an inference failure.
func (s *Service) infer(features []float64) (*Result, error) {
	start := time.Now()

	classIndex, probs, err := s.classifier.Predict(features)
	if err != nil {
		return nil, errors.NewInferenceError(err)
	}
	if len(probs) != len(s.meta.Classes) {
		return nil, errors.NewInferenceError(errors.Newf(
			"probability vector length %d does not match %d classes", len(probs), len(s.meta.Classes)))
	}
	if classIndex < 0 || classIndex >= len(probs) {
		return nil, errors.NewInferenceError(errors.Newf(
			"class index %d outside probability vector of length %d", classIndex, len(probs)))
	}

	s.metrics.RecordPrediction(time.Since(start))

	return &Result{
		Prediction:    classIndex,
		Probability:   probs[classIndex],
		Confidence:    maxProbability(probs),
		FeaturesCount: len(features),
		Timestamp:     time.Now().UTC(),
	}, nil
}

func maxProbability(probs []float64) float64 {
	max := 0.0
	for _, p := range probs {
		if p > max {
			max = p
		}
	}
	return max
}

// tabularEnvelope covers the two object-shaped legacy encodings
type tabularEnvelope struct {
	DataframeSplit *struct {
		Columns []string    `json:"columns"`
		Data    [][]float64 `json:"data"`
	} `json:"dataframe_split"`
	Instances [][]float64 `json:"instances"`
	Columns   []string    `json:"columns"`
	Data      [][]float64 `json:"data"`
}

// normalizeTabular converts any of the three accepted legacy input shapes
// (dataframe_split / columns+data envelope, instances envelope, bare row
// list) to a list of feature rows. Empty input is rejected.
func normalizeTabular(raw json.RawMessage) ([][]float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewNormalizationError("empty body", errors.ErrEmptyInput)
	}

	var rows [][]float64

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, errors.NewNormalizationError("invalid row list", err)
		}
	} else {
		var envelope tabularEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, errors.NewNormalizationError("invalid envelope", err)
		}

		switch {
		case envelope.DataframeSplit != nil:
			rows = envelope.DataframeSplit.Data
		case envelope.Instances != nil:
			rows = envelope.Instances
		case envelope.Data != nil:
			rows = envelope.Data
		default:
			return nil, errors.NewNormalizationError("unrecognized envelope", nil)
		}
	}

	if len(rows) == 0 {
		return nil, errors.NewNormalizationError("no data provided", errors.ErrEmptyInput)
	}

	return rows, nil
}

package prediction

import (
	"mlserve/pkg/errors"
)

// Batch size bounds. The cap keeps per-request latency and memory bounded.
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// ValidateVector checks that a feature vector has the length the model was
// trained with. Pure and side-effect free; runs before any metrics are
// recorded and before the classifier is invoked.
func ValidateVector(features []float64, expected int) error {
	if len(features) != expected {
		return errors.NewShapeError(expected, len(features))
	}
	return nil
}

// ValidateBatch checks that a batch size is within [MinBatchSize, MaxBatchSize]
func ValidateBatch(size int) error {
	if size < MinBatchSize || size > MaxBatchSize {
		return errors.NewBatchSizeError(size, MinBatchSize, MaxBatchSize)
	}
	return nil
}

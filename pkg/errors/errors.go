package errors

import (
	"errors"
	"fmt"
)

// Serving error taxonomy. Every failure the prediction path can produce maps
// onto exactly one of these, and each is counted by the metrics aggregator
// before it reaches the caller.

var (
	// ErrModelNotLoaded indicates the classifier or its metadata is unavailable
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrEmptyInput indicates a request carried no rows to predict on
	ErrEmptyInput = errors.New("no data provided")

	// ErrInternal indicates an unexpected internal fault
	ErrInternal = errors.New("internal error")
)

// ShapeError reports a feature vector whose length does not match the
// feature count the model was trained with. Always a client error.
type ShapeError struct {
	Expected int
	Actual   int
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	return fmt.Sprintf("expected %d features, got %d", e.Expected, e.Actual)
}

// NewShapeError creates a new shape mismatch error
func NewShapeError(expected, actual int) *ShapeError {
	return &ShapeError{Expected: expected, Actual: actual}
}

// BatchSizeError reports a batch outside the allowed [Min, Max] range.
type BatchSizeError struct {
	Size int
	Min  int
	Max  int
}

// Error implements the error interface
func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("batch size %d out of range [%d, %d]", e.Size, e.Min, e.Max)
}

// NewBatchSizeError creates a new batch size error
func NewBatchSizeError(size, min, max int) *BatchSizeError {
	return &BatchSizeError{Size: size, Min: min, Max: max}
}

// InferenceError wraps a failure raised by the classifier during
// computation. Recorded as a failed prediction, never fatal to the process.
type InferenceError struct {
	Err error
}

// Error implements the error interface
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

// Unwrap returns the underlying cause
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// NewInferenceError wraps err as an inference failure
func NewInferenceError(err error) *InferenceError {
	return &InferenceError{Err: err}
}

// NormalizationError indicates the legacy tabular endpoint could not
// interpret its input envelope.
type NormalizationError struct {
	Reason string
	Err    error
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot normalize input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot normalize input: %s", e.Reason)
}

// Unwrap returns the underlying cause
func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// NewNormalizationError creates a new normalization error
func NewNormalizationError(reason string, err error) *NormalizationError {
	return &NormalizationError{Reason: reason, Err: err}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

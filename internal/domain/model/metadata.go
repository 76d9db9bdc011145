package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"mlserve/internal/ml"
	"mlserve/pkg/errors"
	"mlserve/pkg/logger"
)

// Documented fallbacks, applied when neither the metadata record nor the
// artifact itself declares a dimension.
const (
	fallbackFeatureCount = 30
	fallbackName         = "UnknownModel"
	fallbackVersion      = "1.0.0"
	fallbackFramework    = "scikit-learn"
)

var fallbackClasses = []string{"malignant", "benign"}

// Metadata describes the served model. Loaded once at startup and read-only
// for the lifetime of the process.
type Metadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Framework   string   `json:"framework"`
	TrainedDate string   `json:"trained_date"`
	Accuracy    float64  `json:"accuracy"`
	F1Score     float64  `json:"f1_score"`
	Classes     []string `json:"classes"`
	NFeatures   int      `json:"n_features"`
}

// Load reads the metadata record produced by the training pipeline. A
// missing record is not fatal: defaults are synthesized from the classifier
// descriptor (or the documented fallbacks) and a warning is logged. An
// unparseable record is an error.
//
// Dimensions declared by the artifact itself take precedence over the
// record, the record over the fallbacks.
func Load(path string, descriptor ml.Descriptor, log *logger.Logger) (*Metadata, error) {
	var meta Metadata

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, errors.Wrapf(err, "failed to parse model metadata %s", path)
		}
	case os.IsNotExist(err):
		log.Warnf("Metadata file not found at %s, using inferred metadata", path)
	default:
		return nil, errors.Wrapf(err, "failed to read model metadata %s", path)
	}

	applyDefaults(&meta, descriptor, log)
	return &meta, nil
}

func applyDefaults(meta *Metadata, descriptor ml.Descriptor, log *logger.Logger) {
	if descriptor.FeatureCount > 0 {
		meta.NFeatures = descriptor.FeatureCount
	} else if meta.NFeatures <= 0 {
		log.Warnf("Could not determine feature count from model or metadata, defaulting to %d",
			fallbackFeatureCount)
		meta.NFeatures = fallbackFeatureCount
	}

	if descriptor.NumClasses > 0 && descriptor.NumClasses != len(meta.Classes) {
		classes := make([]string, descriptor.NumClasses)
		for i := range classes {
			classes[i] = fmt.Sprintf("class_%d", i)
		}
		meta.Classes = classes
	} else if len(meta.Classes) == 0 {
		log.Warnf("Could not determine classes from model or metadata, defaulting to %v",
			fallbackClasses)
		meta.Classes = append([]string(nil), fallbackClasses...)
	}

	if meta.Name == "" {
		meta.Name = fallbackName
	}
	if meta.Version == "" {
		meta.Version = fallbackVersion
	}
	if meta.Framework == "" {
		meta.Framework = fallbackFramework
	}
	if meta.TrainedDate == "" {
		meta.TrainedDate = time.Now().Format(time.RFC3339)
	}
}

// FeatureNames returns the positional feature names the model expects
func (m *Metadata) FeatureNames() []string {
	names := make([]string, m.NFeatures)
	for i := range names {
		names[i] = fmt.Sprintf("feature_%d", i)
	}
	return names
}

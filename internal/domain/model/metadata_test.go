package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlserve/internal/ml"
	"mlserve/pkg/logger"
)

func writeMetadata(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeMetadata(t, `{
		"name": "RandomForestClassifier",
		"version": "2.1.0",
		"framework": "scikit-learn",
		"trained_date": "2026-08-01T12:00:00Z",
		"accuracy": 0.958,
		"f1_score": 0.964,
		"classes": ["malignant", "benign"],
		"n_features": 30
	}`)

	meta, err := Load(path, ml.Descriptor{}, logger.Get())
	require.NoError(t, err)

	assert.Equal(t, "RandomForestClassifier", meta.Name)
	assert.Equal(t, "2.1.0", meta.Version)
	assert.Equal(t, 0.958, meta.Accuracy)
	assert.Equal(t, 0.964, meta.F1Score)
	assert.Equal(t, []string{"malignant", "benign"}, meta.Classes)
	assert.Equal(t, 30, meta.NFeatures)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	meta, err := Load(path, ml.Descriptor{}, logger.Get())
	require.NoError(t, err)

	// Documented fallbacks
	assert.Equal(t, 30, meta.NFeatures)
	assert.Equal(t, []string{"malignant", "benign"}, meta.Classes)
	assert.Equal(t, "UnknownModel", meta.Name)
	assert.Equal(t, "1.0.0", meta.Version)
	assert.Equal(t, "scikit-learn", meta.Framework)
	assert.NotEmpty(t, meta.TrainedDate)
}

func TestLoad_MissingFileWithDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	meta, err := Load(path, ml.Descriptor{FeatureCount: 22, NumClasses: 7}, logger.Get())
	require.NoError(t, err)

	assert.Equal(t, 22, meta.NFeatures)
	require.Len(t, meta.Classes, 7)
	assert.Equal(t, "class_0", meta.Classes[0])
	assert.Equal(t, "class_6", meta.Classes[6])
}

func TestLoad_DescriptorOverridesRecord(t *testing.T) {
	// The artifact's declared dimensions win over the metadata record
	path := writeMetadata(t, `{"n_features": 10, "classes": ["a", "b", "c"]}`)

	meta, err := Load(path, ml.Descriptor{FeatureCount: 30, NumClasses: 2}, logger.Get())
	require.NoError(t, err)

	assert.Equal(t, 30, meta.NFeatures)
	assert.Equal(t, []string{"class_0", "class_1"}, meta.Classes)
}

func TestLoad_DescriptorAgreesWithRecord(t *testing.T) {
	// When the widths match, the record's class names are kept
	path := writeMetadata(t, `{"n_features": 30, "classes": ["malignant", "benign"]}`)

	meta, err := Load(path, ml.Descriptor{FeatureCount: 30, NumClasses: 2}, logger.Get())
	require.NoError(t, err)

	assert.Equal(t, []string{"malignant", "benign"}, meta.Classes)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := writeMetadata(t, `{not json`)

	_, err := Load(path, ml.Descriptor{}, logger.Get())
	require.Error(t, err)
}

func TestFeatureNames(t *testing.T) {
	meta := &Metadata{NFeatures: 3}
	assert.Equal(t, []string{"feature_0", "feature_1", "feature_2"}, meta.FeatureNames())
}

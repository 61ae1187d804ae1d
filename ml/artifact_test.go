package ml

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitPair(t *testing.T, seed int64) (*RandomForest, *StandardScaler) {
	t.Helper()
	features, labels := syntheticWeather(200, 4)
	scaler := &StandardScaler{}
	require.NoError(t, scaler.Fit(features))
	scaled, err := scaler.TransformAll(features)
	require.NoError(t, err)

	cfg := smallForestConfig()
	cfg.Seed = seed
	forest := NewRandomForest(cfg)
	require.NoError(t, forest.Train(context.Background(), scaled, labels))
	return forest, scaler
}

func TestSaveLoadArtifactsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "models", "rain.bin")
	scalerPath := filepath.Join(dir, "models", "scaler.bin")

	forest, scaler := fitPair(t, 42)
	saved, err := SaveArtifacts(modelPath, scalerPath, forest, scaler)
	require.NoError(t, err)
	assert.Len(t, saved.ModelFingerprint, 64)
	assert.Equal(t, FeatureNames(), saved.FeatureNames)

	model, loadedScaler, loaded, err := LoadArtifacts(modelPath, scalerPath)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
	assert.Equal(t, scaler.Mean, loadedScaler.Mean)
	assert.Equal(t, scaler.Scale, loadedScaler.Scale)
	assert.Equal(t, forest.Trees, model.Trees)

	row := []float64{0.1, -0.3, 1.2, 0, 0.5}
	want, err := forest.PredictProba(row)
	require.NoError(t, err)
	got, err := model.PredictProba(row)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveArtifactsIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	for _, run := range []string{"a", "b"} {
		forest, scaler := fitPair(t, 42)
		_, err := SaveArtifacts(filepath.Join(dir, run+"-model.bin"), filepath.Join(dir, run+"-scaler.bin"), forest, scaler)
		require.NoError(t, err)
	}
	for _, name := range []string{"model.bin", "scaler.bin"} {
		a, err := os.ReadFile(filepath.Join(dir, "a-"+name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dir, "b-"+name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestLoadArtifactsMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, _, _, err := LoadArtifacts(filepath.Join(dir, "model.bin"), filepath.Join(dir, "scaler.bin"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "scaler.bin")
}

func TestLoadArtifactsRejectsForeignScaler(t *testing.T) {
	dir := t.TempDir()
	forest, _ := fitPair(t, 42)

	other := &StandardScaler{}
	require.NoError(t, other.Fit([][]float64{{1, 2, 3, 4, 5}, {2, 3, 4, 5, 6}}))

	modelPath := filepath.Join(dir, "model.bin")
	scalerPath := filepath.Join(dir, "scaler.bin")
	_, err := SaveArtifacts(modelPath, scalerPath, forest, other)
	require.NoError(t, err)

	_, scaler := fitPair(t, 42)
	_, err = SaveArtifacts(filepath.Join(dir, "unused.bin"), scalerPath, forest, scaler)
	require.NoError(t, err)

	_, _, _, err = LoadArtifacts(modelPath, scalerPath)
	assert.ErrorIs(t, err, ErrArtifactMismatch)
}

func TestLoadArtifactsSwappedPaths(t *testing.T) {
	dir := t.TempDir()
	forest, scaler := fitPair(t, 42)
	modelPath := filepath.Join(dir, "model.bin")
	scalerPath := filepath.Join(dir, "scaler.bin")
	_, err := SaveArtifacts(modelPath, scalerPath, forest, scaler)
	require.NoError(t, err)

	_, _, _, err = LoadArtifacts(scalerPath, modelPath)
	assert.ErrorIs(t, err, ErrArtifactMismatch)
}

func TestLoadArtifactsCorrupt(t *testing.T) {
	dir := t.TempDir()
	forest, scaler := fitPair(t, 42)
	modelPath := filepath.Join(dir, "model.bin")
	scalerPath := filepath.Join(dir, "scaler.bin")
	_, err := SaveArtifacts(modelPath, scalerPath, forest, scaler)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(modelPath, []byte("not zstd"), 0o644))
	_, _, _, err = LoadArtifacts(modelPath, scalerPath)
	assert.ErrorIs(t, err, ErrArtifactCorrupt)
}

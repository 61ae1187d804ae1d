package ml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	proba [NumClasses]float64
	err   error
}

func (f *fakeModel) PredictProba([]float64) ([NumClasses]float64, error) {
	return f.proba, f.err
}

func (f *fakeModel) Predict(features []float64) (int, float64, error) {
	label := Argmax(f.proba)
	return label, f.proba[label], f.err
}

func identityScaler() *StandardScaler {
	return &StandardScaler{Mean: make([]float64, 5), Scale: []float64{1, 1, 1, 1, 1}}
}

func TestPredictorBranchesOnArgmax(t *testing.T) {
	cases := []struct {
		name  string
		proba [NumClasses]float64
		label int
		pct   float64
	}{
		{"rain", [NumClasses]float64{0.2, 0.8}, 1, 80},
		{"dry", [NumClasses]float64{0.9, 0.1}, 0, 10},
		{"tie is dry", [NumClasses]float64{0.5, 0.5}, 0, 50},
		{"certain rain", [NumClasses]float64{0, 1}, 1, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPredictor(&fakeModel{proba: tc.proba}, identityScaler(), ArtifactInfo{})
			got, err := p.Predict(DefaultFeatures())
			require.NoError(t, err)
			assert.Equal(t, tc.label, got.Label)
			assert.Equal(t, tc.label == LabelRain, got.Rain)
			assert.InDelta(t, tc.pct, got.Probability, 1e-9)
			assert.Equal(t, Argmax(got.ClassProbabilities), got.Label)
		})
	}
}

func TestPredictorWithTrainedPair(t *testing.T) {
	dir := t.TempDir()
	forest, scaler := fitPair(t, 42)
	_, err := SaveArtifacts(filepath.Join(dir, "m.bin"), filepath.Join(dir, "s.bin"), forest, scaler)
	require.NoError(t, err)

	p, err := LoadModel(filepath.Join(dir, "m.bin"), filepath.Join(dir, "s.bin"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.Info().ScalerFingerprint)

	input := WeatherFeatures{Temperature: 12, Humidity: 0.95, Pressure: 0.995, WindSpeed: 3, Sunshine: 0}
	first, err := p.Predict(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Predict(input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.GreaterOrEqual(t, first.Probability, 0.0)
	assert.LessOrEqual(t, first.Probability, 100.0)
	assert.Equal(t, Argmax(first.ClassProbabilities), first.Label)
}

func TestLoadModelMissing(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "m.bin"), filepath.Join(t.TempDir(), "s.bin"))
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

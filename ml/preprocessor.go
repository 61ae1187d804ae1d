package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature on its training mean and divides by its
// population standard deviation. It is fitted once on the training split and
// then only applied.
type StandardScaler struct {
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	NSamples int       `json:"n_samples"`
}

var ErrScalerNotFitted = errors.New("scaler not fitted")

func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("features have no columns")
	}

	mean := make([]float64, width)
	scale := make([]float64, width)
	column := make([]float64, len(features))
	for j := 0; j < width; j++ {
		for i, row := range features {
			if len(row) != width {
				return fmt.Errorf("%w: row %d has %d values, want %d", ErrFeatureLength, i, len(row), width)
			}
			if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				return fmt.Errorf("row %d feature %d is not finite", i, j)
			}
			column[i] = row[j]
		}
		m, std := stat.PopMeanStdDev(column, nil)
		mean[j] = m
		// constant columns are left unscaled
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		scale[j] = std
	}

	s.Mean = mean
	s.Scale = scale
	s.NSamples = len(features)
	return nil
}

func (s *StandardScaler) Fitted() bool {
	return len(s.Mean) > 0 && len(s.Mean) == len(s.Scale)
}

// Transform returns a scaled copy of row.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrScalerNotFitted
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(row), len(s.Mean))
	}
	scaled := make([]float64, len(row))
	for j, v := range row {
		scaled[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return scaled, nil
}

func (s *StandardScaler) TransformAll(features [][]float64) ([][]float64, error) {
	scaled := make([][]float64, len(features))
	for i, row := range features {
		v, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		scaled[i] = v
	}
	return scaled, nil
}

package ml

import "math"

// SnapFeatures clamps each reading into its input bounds and rounds it onto
// the input's step grid, the values a slider can actually produce.
func SnapFeatures(f WeatherFeatures) WeatherFeatures {
	v := FeatureVector(f)
	for i, spec := range inputSpecs {
		v[i] = SnapToStep(v[i], spec.Min, spec.Max, spec.Step)
	}
	snapped, _ := FeaturesFromVector(v)
	return snapped
}

// SnapToStep rounds value to min + k*step, clamped to [min, max].
func SnapToStep(value, min, max, step float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	value = Clamp(value, min, max)
	if step <= 0 {
		return value
	}
	steps := math.Round((value - min) / step)
	snapped := min + steps*step
	// strip accumulated float noise such as 1013.0000000000001
	snapped = math.Round(snapped*1e6) / 1e6
	return Clamp(snapped, min, max)
}

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Fraction maps value onto [0, 1] relative to [min, max].
func Fraction(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return Clamp((value-min)/(max-min), 0, 1)
}

// Argmax returns the index of the largest probability. Ties resolve to the
// lower class.
func Argmax(proba [NumClasses]float64) int {
	best := 0
	for c := 1; c < NumClasses; c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best
}

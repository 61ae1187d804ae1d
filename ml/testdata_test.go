package ml

import "math/rand"

// syntheticWeather produces readings where rain is likely with high humidity,
// low pressure and little sunshine.
func syntheticWeather(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := range features {
		temp := -5 + rng.Float64()*30
		humidity := 0.4 + rng.Float64()*0.6
		pressure := 0.99 + rng.Float64()*0.05
		wind := rng.Float64() * 8
		sunshine := rng.Float64() * 14
		features[i] = []float64{temp, humidity, pressure, wind, sunshine}

		score := 3*(humidity-0.7) - 40*(pressure-1.015) - 0.15*(sunshine-5) + 0.3*rng.NormFloat64()
		if score > 0 {
			labels[i] = 1
		}
	}
	return features, labels
}

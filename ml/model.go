package ml

import "context"

// Classifier is what the predictor needs from a fitted model.
type Classifier interface {
	PredictProba(features []float64) ([NumClasses]float64, error)
	Predict(features []float64) (int, float64, error)
}

type MLModel interface {
	Classifier
	Train(ctx context.Context, features [][]float64, labels []int) error
}

var (
	_ MLModel    = (*RandomForest)(nil)
	_ Classifier = (*DecisionTree)(nil)
)

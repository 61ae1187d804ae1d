package ml

import (
	"fmt"
	"math"
)

// Prediction is the outcome for one set of readings. Probability is the
// positive (rain) class in percent.
type Prediction struct {
	Features           WeatherFeatures     `json:"features"`
	Label              int                 `json:"label"`
	Rain               bool                `json:"rain"`
	Probability        float64             `json:"probability"`
	ClassProbabilities [NumClasses]float64 `json:"class_probabilities"`
}

// Predictor applies a fitted scaler and classifier pair. It never refits and
// holds no mutable state, so one instance serves concurrent callers.
type Predictor struct {
	model  Classifier
	scaler *StandardScaler
	info   ArtifactInfo
}

func NewPredictor(model Classifier, scaler *StandardScaler, info ArtifactInfo) *Predictor {
	return &Predictor{model: model, scaler: scaler, info: info}
}

// LoadModel reads the artifact pair from disk.
func LoadModel(modelPath, scalerPath string) (*Predictor, error) {
	model, scaler, info, err := LoadArtifacts(modelPath, scalerPath)
	if err != nil {
		return nil, err
	}
	return NewPredictor(model, scaler, info), nil
}

func (p *Predictor) Info() ArtifactInfo {
	return p.info
}

func (p *Predictor) Predict(f WeatherFeatures) (Prediction, error) {
	scaled, err := p.scaler.Transform(FeatureVector(f))
	if err != nil {
		return Prediction{}, fmt.Errorf("scale features: %w", err)
	}
	proba, err := p.model.PredictProba(scaled)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	label := Argmax(proba)
	return Prediction{
		Features:           f,
		Label:              label,
		Rain:               label == LabelRain,
		Probability:        Clamp(proba[LabelRain]*100, 0, 100),
		ClassProbabilities: proba,
	}, nil
}

// RoundedProbability is the percentage as displayed, without decimals.
func (p Prediction) RoundedProbability() int {
	return int(math.Round(p.Probability))
}

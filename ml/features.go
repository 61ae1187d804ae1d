package ml

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// NumClasses is fixed: 0 means no rain, 1 means rain.
const NumClasses = 2

const (
	LabelDry  = 0
	LabelRain = 1
)

// WeatherFeatures is one set of the five readings a prediction is made from.
// Field order matches FeatureVector and must never change: artifacts store
// parameters positionally.
type WeatherFeatures struct {
	Temperature float64 `json:"temperature" validate:"gte=-20,lte=40"`
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`
	Pressure    float64 `json:"pressure" validate:"gte=950,lte=1050"`
	WindSpeed   float64 `json:"wind_speed" validate:"gte=0,lte=50"`
	Sunshine    float64 `json:"sunshine" validate:"gte=0,lte=24"`
}

// InputSpec describes one reading: the dataset column it is trained from and
// the bounds and step of the interactive input.
type InputSpec struct {
	Name    string  `json:"name"`
	Column  string  `json:"column"`
	Unit    string  `json:"unit"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// Wind and sunshine come from other stations because Basel does not report them.
var inputSpecs = []InputSpec{
	{Name: "temperature", Column: "BASEL_temp_mean", Unit: "°C", Min: -20, Max: 40, Step: 0.5, Default: 15},
	{Name: "humidity", Column: "BASEL_humidity", Unit: "%", Min: 0, Max: 100, Step: 1, Default: 65},
	{Name: "pressure", Column: "BASEL_pressure", Unit: "hPa", Min: 950, Max: 1050, Step: 0.1, Default: 1013},
	{Name: "wind_speed", Column: "DE_BILT_wind_speed", Unit: "km/h", Min: 0, Max: 50, Step: 0.5, Default: 10},
	{Name: "sunshine", Column: "HEATHROW_sunshine", Unit: "hours", Min: 0, Max: 24, Step: 0.1, Default: 5},
}

// LabelColumn is the precipitation column the binary label is derived from.
const LabelColumn = "BASEL_precipitation"

var ErrFeatureLength = errors.New("feature vector length mismatch")

var validate = validator.New()

// InputSpecs returns the specs in feature order.
func InputSpecs() []InputSpec {
	return append([]InputSpec(nil), inputSpecs...)
}

// FeatureNames returns the dataset columns in feature order.
func FeatureNames() []string {
	names := make([]string, len(inputSpecs))
	for i, spec := range inputSpecs {
		names[i] = spec.Column
	}
	return names
}

func FeatureVector(f WeatherFeatures) []float64 {
	return []float64{
		f.Temperature,
		f.Humidity,
		f.Pressure,
		f.WindSpeed,
		f.Sunshine,
	}
}

func FeaturesFromVector(v []float64) (WeatherFeatures, error) {
	if len(v) != len(inputSpecs) {
		return WeatherFeatures{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(v), len(inputSpecs))
	}
	return WeatherFeatures{
		Temperature: v[0],
		Humidity:    v[1],
		Pressure:    v[2],
		WindSpeed:   v[3],
		Sunshine:    v[4],
	}, nil
}

// DefaultFeatures returns the initial input values.
func DefaultFeatures() WeatherFeatures {
	v := make([]float64, len(inputSpecs))
	for i, spec := range inputSpecs {
		v[i] = spec.Default
	}
	f, _ := FeaturesFromVector(v)
	return f
}

// ValidateFeatures checks every reading against its input bounds.
func ValidateFeatures(f WeatherFeatures) error {
	return validate.Struct(f)
}

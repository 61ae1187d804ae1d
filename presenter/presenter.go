// Package presenter derives the display values shown next to a prediction.
// It holds no model state: everything is computed from the prediction and
// the readings it was made from.
package presenter

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"weathersense/ml"
)

// View is a prediction plus everything derived from it for display.
type View struct {
	ml.Prediction
	Outcome  string         `json:"outcome"`
	Headline string         `json:"headline"`
	Percent  int            `json:"percent"`
	UV       *UVEstimate    `json:"uv,omitempty"`
	Gauges   []Gauge        `json:"gauges"`
	Factors  []Factor       `json:"factors"`
	Seasonal []SeasonalStat `json:"seasonal"`
}

type UVEstimate struct {
	Index int    `json:"index"`
	Risk  string `json:"risk"`
}

// Gauge is a reading placed on its display scale. Fill is in [0,1].
type Gauge struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Fill  float64 `json:"fill"`
}

type Factor struct {
	Name       string `json:"name"`
	Effect     string `json:"effect"`
	Current    string `json:"current"`
	Favourable string `json:"favourable"`
}

type SeasonalStat struct {
	Metric  string  `json:"metric"`
	Today   float64 `json:"today"`
	January float64 `json:"january"`
	July    float64 `json:"july"`
}

const (
	OutcomeRain = "rain"
	OutcomeDry  = "no_rain"

	HeadlineRain = "Rain Expected"
	HeadlineDry  = "Clear Skies"

	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// Sunshine above this many hours on a dry day gets a UV estimate.
const uvSunshineThreshold = 4

type gaugeScale struct {
	name     string
	unit     string
	min, max float64
	value    func(ml.WeatherFeatures) float64
}

// The sunshine gauge tops out at 12 hours even though inputs go to 24.
var gaugeScales = []gaugeScale{
	{"temperature", "°C", -20, 40, func(f ml.WeatherFeatures) float64 { return f.Temperature }},
	{"humidity", "%", 0, 100, func(f ml.WeatherFeatures) float64 { return f.Humidity }},
	{"wind_speed", "km/h", 0, 50, func(f ml.WeatherFeatures) float64 { return f.WindSpeed }},
	{"sunshine", "hrs", 0, 12, func(f ml.WeatherFeatures) float64 { return f.Sunshine }},
}

var factorRows = []struct {
	name, effect, unit, favourable string
	value                          func(ml.WeatherFeatures) float64
}{
	{"temperature", "Colder temps increase rain chance", "°C", "10-25°C", func(f ml.WeatherFeatures) float64 { return f.Temperature }},
	{"humidity", ">70% humidity favors precipitation", "%", "30-60%", func(f ml.WeatherFeatures) float64 { return f.Humidity }},
	{"wind", "Strong winds may bring storms", " km/h", "5-15 km/h", func(f ml.WeatherFeatures) float64 { return f.WindSpeed }},
	{"pressure", "Lower pressure often means rain", " hPa", "1010-1020 hPa", func(f ml.WeatherFeatures) float64 { return f.Pressure }},
	{"sunshine", "Less sunshine means higher rain risk", " hrs", "6+ hrs", func(f ml.WeatherFeatures) float64 { return f.Sunshine }},
}

// Long-run Basel averages for the two extreme months.
var seasonalAverages = []struct {
	metric        string
	january, july float64
	value         func(ml.WeatherFeatures) float64
}{
	{"temperature", 2.1, 19.5, func(f ml.WeatherFeatures) float64 { return f.Temperature }},
	{"humidity", 85, 72, func(f ml.WeatherFeatures) float64 { return f.Humidity }},
	{"wind_speed", 12.3, 10.1, func(f ml.WeatherFeatures) float64 { return f.WindSpeed }},
	{"sunshine", 2.8, 7.6, func(f ml.WeatherFeatures) float64 { return f.Sunshine }},
}

// Build derives the view for p.
func Build(p ml.Prediction) View {
	v := View{
		Prediction: p,
		Outcome:    OutcomeDry,
		Headline:   HeadlineDry,
		Percent:    p.RoundedProbability(),
		Gauges:     Gauges(p.Features),
		Factors:    Factors(p.Features),
		Seasonal:   Seasonal(p.Features),
	}
	if p.Rain {
		v.Outcome = OutcomeRain
		v.Headline = HeadlineRain
	}
	if uv, ok := EstimateUV(p.Label, p.Features); ok {
		v.UV = &uv
	}
	return v
}

// EstimateUV returns an estimate only for a dry prediction with more than
// four hours of sunshine. Halves round to even.
func EstimateUV(label int, f ml.WeatherFeatures) (UVEstimate, bool) {
	if label != ml.LabelDry || f.Sunshine <= uvSunshineThreshold {
		return UVEstimate{}, false
	}
	index := int(math.RoundToEven(f.Sunshine/12*8 + f.Temperature/40*2))
	index = min(10, index)
	risk := RiskModerate
	if index >= 6 {
		risk = RiskHigh
	}
	return UVEstimate{Index: index, Risk: risk}, true
}

func Gauges(f ml.WeatherFeatures) []Gauge {
	gauges := make([]Gauge, len(gaugeScales))
	for i, s := range gaugeScales {
		value := s.value(f)
		gauges[i] = Gauge{
			Name:  Label(s.name),
			Unit:  s.unit,
			Value: value,
			Min:   s.min,
			Max:   s.max,
			Fill:  ml.Fraction(value, s.min, s.max),
		}
	}
	return gauges
}

func Factors(f ml.WeatherFeatures) []Factor {
	factors := make([]Factor, len(factorRows))
	for i, row := range factorRows {
		factors[i] = Factor{
			Name:       Label(row.name),
			Effect:     row.effect,
			Current:    formatReading(row.value(f)) + row.unit,
			Favourable: row.favourable,
		}
	}
	return factors
}

func Seasonal(f ml.WeatherFeatures) []SeasonalStat {
	stats := make([]SeasonalStat, len(seasonalAverages))
	for i, avg := range seasonalAverages {
		stats[i] = SeasonalStat{
			Metric:  Label(avg.metric),
			Today:   avg.value(f),
			January: avg.january,
			July:    avg.july,
		}
	}
	return stats
}

// Label turns a snake_case input name into a display label. A Caser keeps
// state, so each call gets its own.
func Label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func formatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

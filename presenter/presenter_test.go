package presenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathersense/ml"
)

func readings(temp, humidity, pressure, wind, sunshine float64) ml.WeatherFeatures {
	return ml.WeatherFeatures{
		Temperature: temp,
		Humidity:    humidity,
		Pressure:    pressure,
		WindSpeed:   wind,
		Sunshine:    sunshine,
	}
}

func TestEstimateUV(t *testing.T) {
	tests := []struct {
		name     string
		label    int
		features ml.WeatherFeatures
		want     UVEstimate
		ok       bool
	}{
		{"moderate", ml.LabelDry, readings(20, 50, 1015, 5, 6), UVEstimate{Index: 5, Risk: RiskModerate}, true},
		{"high", ml.LabelDry, readings(40, 50, 1015, 5, 12), UVEstimate{Index: 10, Risk: RiskHigh}, true},
		{"capped at ten", ml.LabelDry, readings(40, 50, 1015, 5, 24), UVEstimate{Index: 10, Risk: RiskHigh}, true},
		{"half rounds to even", ml.LabelDry, readings(0, 50, 1015, 5, 6.75), UVEstimate{Index: 4, Risk: RiskModerate}, true},
		{"six is high", ml.LabelDry, readings(20, 50, 1015, 5, 7.5), UVEstimate{Index: 6, Risk: RiskHigh}, true},
		{"rain day", ml.LabelRain, readings(20, 50, 1015, 5, 10), UVEstimate{}, false},
		{"sunshine at threshold", ml.LabelDry, readings(20, 50, 1015, 5, 4), UVEstimate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := EstimateUV(tt.label, tt.features)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGaugesClampFill(t *testing.T) {
	gauges := Gauges(readings(10, 65, 1013, 60, 18))
	require.Len(t, gauges, 4)

	assert.Equal(t, "Temperature", gauges[0].Name)
	assert.InDelta(t, 0.5, gauges[0].Fill, 1e-12)
	assert.Equal(t, -20.0, gauges[0].Min)
	assert.Equal(t, 40.0, gauges[0].Max)

	assert.InDelta(t, 0.65, gauges[1].Fill, 1e-12)

	assert.Equal(t, "Wind Speed", gauges[2].Name)
	assert.Equal(t, 1.0, gauges[2].Fill)

	assert.Equal(t, "Sunshine", gauges[3].Name)
	assert.Equal(t, 12.0, gauges[3].Max)
	assert.Equal(t, 1.0, gauges[3].Fill)
}

func TestFactors(t *testing.T) {
	factors := Factors(readings(15.5, 65, 1013.2, 10, 5))
	require.Len(t, factors, 5)

	got := make(map[string]Factor, len(factors))
	for _, f := range factors {
		got[f.Name] = f
	}
	assert.Equal(t, "15.5°C", got["Temperature"].Current)
	assert.Equal(t, "65%", got["Humidity"].Current)
	assert.Equal(t, "10 km/h", got["Wind"].Current)
	assert.Equal(t, "1013.2 hPa", got["Pressure"].Current)
	assert.Equal(t, "5 hrs", got["Sunshine"].Current)
	assert.Equal(t, "1010-1020 hPa", got["Pressure"].Favourable)
	assert.Equal(t, "6+ hrs", got["Sunshine"].Favourable)
}

func TestSeasonal(t *testing.T) {
	stats := Seasonal(readings(15, 65, 1013, 10, 5))
	require.Len(t, stats, 4)
	assert.Equal(t, SeasonalStat{Metric: "Temperature", Today: 15, January: 2.1, July: 19.5}, stats[0])
	assert.Equal(t, SeasonalStat{Metric: "Sunshine", Today: 5, January: 2.8, July: 7.6}, stats[3])
}

func TestBuild(t *testing.T) {
	dry := ml.Prediction{
		Features:           readings(20, 50, 1015, 5, 6),
		Label:              ml.LabelDry,
		Probability:        12.6,
		ClassProbabilities: [ml.NumClasses]float64{0.874, 0.126},
	}
	v := Build(dry)
	assert.Equal(t, OutcomeDry, v.Outcome)
	assert.Equal(t, HeadlineDry, v.Headline)
	assert.Equal(t, 13, v.Percent)
	require.NotNil(t, v.UV)
	assert.Equal(t, 5, v.UV.Index)

	wet := dry
	wet.Label = ml.LabelRain
	wet.Rain = true
	v = Build(wet)
	assert.Equal(t, OutcomeRain, v.Outcome)
	assert.Equal(t, HeadlineRain, v.Headline)
	assert.Nil(t, v.UV)
	assert.Len(t, v.Gauges, 4)
	assert.Len(t, v.Factors, 5)
	assert.Len(t, v.Seasonal, 4)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Wind Speed", Label("wind_speed"))
	assert.Equal(t, "Pressure", Label("pressure"))
}

func TestWriteText(t *testing.T) {
	v := Build(ml.Prediction{
		Features:           readings(20, 50, 1015, 5, 6),
		Label:              ml.LabelDry,
		Probability:        21.4,
		ClassProbabilities: [ml.NumClasses]float64{0.786, 0.214},
	})
	var b strings.Builder
	require.NoError(t, WriteText(&b, v))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "Clear Skies: 21% chance of rain\n"))
	assert.Contains(t, out, "UV index estimate: 5/10 (Moderate risk)")
	assert.Contains(t, out, "1015 hPa")
	assert.Contains(t, out, "January avg")
	assert.Contains(t, out, "19.5")
}

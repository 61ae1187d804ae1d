package pipeline

import (
	"fmt"
	"math"

	"weathersense/ml"
)

// Record is one dataset row reduced to the model's features and the
// precipitation amount its label is derived from.
type Record struct {
	Row           int
	Features      []float64
	Precipitation float64
}

// ValidationRule rejects records the trainer must not see. Any violation
// aborts training.
type ValidationRule interface {
	Name() string
	Check(rec Record) error
}

type nonNegativePrecipitationRule struct{}

func (nonNegativePrecipitationRule) Name() string { return "non_negative_precipitation" }

func (nonNegativePrecipitationRule) Check(rec Record) error {
	if rec.Precipitation < 0 {
		return &MalformedValueError{
			Column: ml.LabelColumn,
			Row:    rec.Row,
			Value:  fmt.Sprint(rec.Precipitation),
		}
	}
	return nil
}

// DefaultRules returns the rules BuildTrainingSet applies.
func DefaultRules() []ValidationRule {
	return []ValidationRule{nonNegativePrecipitationRule{}}
}

// TrainingSet is the feature matrix in ml.FeatureNames order plus labels.
type TrainingSet struct {
	Features [][]float64
	Labels   []int
	Columns  []string
}

// BuildTrainingSet checks that every feature column and the precipitation
// column exist, parses them and derives the rain label.
func BuildTrainingSet(d *Dataset, rules ...ValidationRule) (*TrainingSet, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	featureNames := ml.FeatureNames()
	required := append(append([]string(nil), featureNames...), ml.LabelColumn)
	if err := d.RequireColumns(required...); err != nil {
		return nil, err
	}

	columns := make([][]float64, len(featureNames))
	for j, name := range featureNames {
		values, err := d.FloatColumn(name)
		if err != nil {
			return nil, err
		}
		columns[j] = values
	}
	precipitation, err := d.FloatColumn(ml.LabelColumn)
	if err != nil {
		return nil, err
	}

	features := make([][]float64, d.Rows())
	for i := range features {
		row := make([]float64, len(featureNames))
		for j := range columns {
			row[j] = columns[j][i]
		}
		rec := Record{Row: i + 1, Features: row, Precipitation: precipitation[i]}
		for _, rule := range rules {
			if err := rule.Check(rec); err != nil {
				return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
			}
		}
		features[i] = row
	}

	labels, err := ml.GenerateLabels(precipitation)
	if err != nil {
		return nil, err
	}
	return &TrainingSet{Features: features, Labels: labels, Columns: featureNames}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

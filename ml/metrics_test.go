package ml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	actual := []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	predicted := []int{0, 0, 0, 1, 1, 1, 1, 1, 0, 0}

	e, err := Evaluate(actual, predicted)
	require.NoError(t, err)

	assert.Equal(t, ConfusionMatrix{{3, 1}, {2, 4}}, e.Confusion)
	assert.InDelta(t, 0.7, e.Accuracy, 1e-12)

	assert.InDelta(t, 3.0/5.0, e.Classes[0].Precision, 1e-12)
	assert.InDelta(t, 3.0/4.0, e.Classes[0].Recall, 1e-12)
	assert.Equal(t, 4, e.Classes[0].Support)
	assert.InDelta(t, 4.0/5.0, e.Classes[1].Precision, 1e-12)
	assert.InDelta(t, 4.0/6.0, e.Classes[1].Recall, 1e-12)
	assert.Equal(t, 6, e.Classes[1].Support)

	f1 := func(p, r float64) float64 { return 2 * p * r / (p + r) }
	assert.InDelta(t, f1(0.8, 4.0/6.0), e.Classes[1].F1, 1e-12)
	assert.InDelta(t, (e.Classes[0].F1+e.Classes[1].F1)/2, e.MacroAvg.F1, 1e-12)
	assert.InDelta(t, 0.4*e.Classes[0].Recall+0.6*e.Classes[1].Recall, e.WeightedAvg.Recall, 1e-12)
}

func TestEvaluateZeroDivision(t *testing.T) {
	e, err := Evaluate([]int{0, 0, 0}, []int{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.Accuracy)
	assert.Equal(t, ClassMetrics{}, e.Classes[1])
}

func TestEvaluateErrors(t *testing.T) {
	_, err := Evaluate([]int{0}, []int{0, 1})
	assert.Error(t, err)
	_, err = Evaluate(nil, nil)
	assert.Error(t, err)
	_, err = Evaluate([]int{2}, []int{0})
	assert.Error(t, err)
}

func TestReportLayout(t *testing.T) {
	e, err := Evaluate([]int{0, 1, 1, 0}, []int{0, 1, 0, 0})
	require.NoError(t, err)

	report := e.Report()
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "precision")
	assert.Contains(t, lines[0], "support")
	assert.True(t, strings.HasPrefix(lines[2], strings.Repeat(" ", 11)+"0"))
	assert.Contains(t, lines[5], "accuracy")
	assert.Contains(t, lines[5], "0.75")
	assert.Contains(t, report, "weighted avg")

	assert.Equal(t, "[[   2    0]\n [   1    1]]\n", e.Confusion.String())
}

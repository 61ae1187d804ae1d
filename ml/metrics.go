package ml

import (
	"errors"
	"fmt"
	"strings"
)

// ConfusionMatrix is indexed [actual][predicted].
type ConfusionMatrix [NumClasses][NumClasses]int

type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Evaluation struct {
	Accuracy    float64                  `json:"accuracy"`
	Confusion   ConfusionMatrix          `json:"confusion"`
	Classes     [NumClasses]ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics             `json:"macro_avg"`
	WeightedAvg ClassMetrics             `json:"weighted_avg"`
	Total       int                      `json:"total"`
}

// Evaluate compares predictions against the true labels. Undefined ratios
// (no predicted or no actual members of a class) are reported as 0.
func Evaluate(actual, predicted []int) (Evaluation, error) {
	if len(actual) != len(predicted) {
		return Evaluation{}, errors.New("prediction and classes are not equal length")
	}
	if len(actual) == 0 {
		return Evaluation{}, errors.New("nothing to evaluate")
	}

	var e Evaluation
	e.Total = len(actual)
	correct := 0
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a < 0 || a >= NumClasses || p < 0 || p >= NumClasses {
			return Evaluation{}, fmt.Errorf("label out of range at row %d", i)
		}
		e.Confusion[a][p]++
		if a == p {
			correct++
		}
	}
	e.Accuracy = float64(correct) / float64(e.Total)

	for c := 0; c < NumClasses; c++ {
		tp := e.Confusion[c][c]
		var predictedC, actualC int
		for k := 0; k < NumClasses; k++ {
			predictedC += e.Confusion[k][c]
			actualC += e.Confusion[c][k]
		}
		m := ClassMetrics{
			Precision: ratio(tp, predictedC),
			Recall:    ratio(tp, actualC),
			Support:   actualC,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		e.Classes[c] = m

		e.MacroAvg.Precision += m.Precision / NumClasses
		e.MacroAvg.Recall += m.Recall / NumClasses
		e.MacroAvg.F1 += m.F1 / NumClasses

		w := float64(m.Support) / float64(e.Total)
		e.WeightedAvg.Precision += m.Precision * w
		e.WeightedAvg.Recall += m.Recall * w
		e.WeightedAvg.F1 += m.F1 * w
	}
	e.MacroAvg.Support = e.Total
	e.WeightedAvg.Support = e.Total
	return e, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (m ConfusionMatrix) String() string {
	var b strings.Builder
	for i, row := range m {
		if i == 0 {
			b.WriteString("[[")
		} else {
			b.WriteString(" [")
		}
		for j, v := range row {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%4d", v)
		}
		b.WriteString("]")
		if i == len(m)-1 {
			b.WriteString("]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Report renders the per-class precision/recall/f1/support table.
func (e Evaluation) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for c, m := range e.Classes {
		writeReportRow(&b, fmt.Sprint(c), m)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", e.Accuracy, e.Total)
	writeReportRow(&b, "macro avg", e.MacroAvg)
	writeReportRow(&b, "weighted avg", e.WeightedAvg)
	return b.String()
}

func writeReportRow(b *strings.Builder, name string, m ClassMetrics) {
	fmt.Fprintf(b, "%12s %10.2f %10.2f %10.2f %10d\n", name, m.Precision, m.Recall, m.F1, m.Support)
}

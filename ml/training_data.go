package ml

import (
	"errors"
	"fmt"
	"math"
)

// GenerateLabels derives the rain label from daily precipitation amounts:
// 1 when the amount is strictly positive, else 0.
func GenerateLabels(precipitation []float64) ([]int, error) {
	if len(precipitation) == 0 {
		return nil, errors.New("precipitation is empty")
	}
	labels := make([]int, len(precipitation))
	for i, amount := range precipitation {
		if math.IsNaN(amount) {
			return nil, fmt.Errorf("precipitation row %d is NaN", i)
		}
		if amount > 0 {
			labels[i] = LabelRain
		} else {
			labels[i] = LabelDry
		}
	}
	return labels, nil
}

// ClassBalance counts how many labels fall in each class.
func ClassBalance(labels []int) [NumClasses]int {
	var counts [NumClasses]int
	for _, label := range labels {
		if label >= 0 && label < NumClasses {
			counts[label]++
		}
	}
	return counts
}

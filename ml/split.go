package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Split is a shuffled train/test partition of a labeled dataset.
type Split struct {
	TrainX [][]float64
	TrainY []int
	TestX  [][]float64
	TestY  []int
}

// TrainTestSplit shuffles row indices with seed and puts the first
// ceil(testRatio*n) of them in the test set, the rest in the train set.
func TrainTestSplit(features [][]float64, labels []int, testRatio float64, seed int64) (Split, error) {
	if len(features) != len(labels) {
		return Split{}, errors.New("features and labels size mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("test ratio %.3f outside (0, 1)", testRatio)
	}
	n := len(features)
	nTest := int(math.Ceil(testRatio * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return Split{}, fmt.Errorf("cannot split %d rows with test ratio %.2f", n, testRatio)
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)

	s := Split{
		TrainX: make([][]float64, 0, nTrain),
		TrainY: make([]int, 0, nTrain),
		TestX:  make([][]float64, 0, nTest),
		TestY:  make([]int, 0, nTest),
	}
	for i, idx := range indices {
		if i < nTest {
			s.TestX = append(s.TestX, features[idx])
			s.TestY = append(s.TestY, labels[idx])
		} else {
			s.TrainX = append(s.TrainX, features[idx])
			s.TrainY = append(s.TrainY, labels[idx])
		}
	}
	return s, nil
}

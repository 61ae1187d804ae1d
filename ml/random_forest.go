package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestConfig holds the ensemble hyper-parameters. MaxFeatures 0 means
// floor(sqrt(n_features)).
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"`
	Bootstrap       bool  `json:"bootstrap"`
	Seed            int64 `json:"seed"`
	// Workers bounds concurrent tree fitting; it never changes the result.
	Workers int `json:"-"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// RandomForest averages the class distributions of bagged CART trees.
type RandomForest struct {
	Config    ForestConfig   `json:"config"`
	NFeatures int            `json:"n_features"`
	Trees     []DecisionTree `json:"trees"`
}

func NewRandomForest(cfg ForestConfig) *RandomForest {
	return &RandomForest{Config: cfg}
}

// Train fits every tree. Each tree gets its own RNG seeded from a master
// sequence drawn up front, so the fitted forest depends only on the data and
// Config.Seed, not on Workers or scheduling.
func (rf *RandomForest) Train(ctx context.Context, features [][]float64, labels []int) error {
	if rf.Config.Trees <= 0 {
		return errors.New("forest needs at least one tree")
	}
	if len(features) == 0 || len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])

	treeCfg := TreeConfig{
		MaxDepth:        rf.Config.MaxDepth,
		MinSamplesSplit: rf.Config.MinSamplesSplit,
		MinSamplesLeaf:  rf.Config.MinSamplesLeaf,
		MaxFeatures:     rf.Config.MaxFeatures,
	}
	if treeCfg.MaxFeatures <= 0 {
		treeCfg.MaxFeatures = max(1, int(math.Sqrt(float64(width))))
	}

	master := rand.New(rand.NewSource(rf.Config.Seed))
	seeds := make([]int64, rf.Config.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	workers := rf.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]DecisionTree, rf.Config.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			var sample []int
			if rf.Config.Bootstrap {
				sample = bootstrapSample(rng, len(features))
			}
			if err := trees[i].Train(features, labels, sample, treeCfg, rng); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rf.Trees = trees
	rf.NFeatures = width
	return nil
}

// PredictProba returns the mean class distribution over all trees.
func (rf *RandomForest) PredictProba(features []float64) ([NumClasses]float64, error) {
	var proba [NumClasses]float64
	if len(rf.Trees) == 0 {
		return proba, errors.New("model not trained")
	}
	if len(features) != rf.NFeatures {
		return proba, fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), rf.NFeatures)
	}
	for i := range rf.Trees {
		p, err := rf.Trees[i].PredictProba(features)
		if err != nil {
			return proba, fmt.Errorf("tree %d: %w", i, err)
		}
		for c := range proba {
			proba[c] += p[c]
		}
	}
	n := float64(len(rf.Trees))
	for c := range proba {
		proba[c] /= n
	}
	return proba, nil
}

// Predict returns the argmax label and its probability.
func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	label := Argmax(proba)
	return label, proba[label], nil
}

func bootstrapSample(rng *rand.Rand, n int) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}

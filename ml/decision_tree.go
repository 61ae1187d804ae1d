package ml

import (
	"cmp"
	"errors"
	"math/rand"
	"slices"
)

// DecisionTree is a binary CART classifier stored as a flat node slice; node 0
// is the root. Leaves carry the class distribution of the training rows that
// reached them.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int                 `json:"feature_idx"`
	Threshold  float64             `json:"threshold"`
	LeftChild  int                 `json:"left_child"`
	RightChild int                 `json:"right_child"`
	Value      [NumClasses]float64 `json:"value"`
	Samples    int                 `json:"samples"`
	IsLeaf     bool                `json:"is_leaf"`
}

// TreeConfig bounds tree growth. MaxDepth 0 grows until leaves are pure or too
// small to split. MaxFeatures 0 considers every feature at every split.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
}

// Train fits the tree on rows selected by sample (duplicates allowed, which
// is how bootstrap weights are expressed); a nil sample uses every row. rng
// picks candidate features and may be nil when MaxFeatures is 0.
func (dt *DecisionTree) Train(features [][]float64, labels []int, sample []int, cfg TreeConfig, rng *rand.Rand) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	for _, label := range labels {
		if label < 0 || label >= NumClasses {
			return errors.New("label out of range")
		}
	}
	width := len(features[0])
	for _, row := range features {
		if len(row) != width {
			return ErrFeatureLength
		}
	}

	if sample == nil {
		sample = make([]int, len(features))
		for i := range sample {
			sample[i] = i
		}
	}
	if len(sample) == 0 {
		return errors.New("sample is empty")
	}

	cfg = normalizeTreeConfig(cfg, width)
	if cfg.MaxFeatures < width && rng == nil {
		return errors.New("rng required for feature subsampling")
	}

	b := &treeBuilder{
		features: features,
		labels:   labels,
		cfg:      cfg,
		rng:      rng,
		width:    width,
	}
	b.build(append([]int(nil), sample...), 0)
	dt.Nodes = b.nodes
	return nil
}

// PredictProba walks to a leaf and returns its class distribution.
func (dt *DecisionTree) PredictProba(features []float64) ([NumClasses]float64, error) {
	var zero [NumClasses]float64
	if len(dt.Nodes) == 0 {
		return zero, errors.New("model not trained")
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return zero, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return zero, errors.New("invalid tree state")
		}
	}
	return zero, errors.New("invalid tree state: cycle")
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	label := Argmax(proba)
	return label, proba[label], nil
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int {
	if len(dt.Nodes) == 0 {
		return 0
	}
	var walk func(idx int) int
	walk = func(idx int) int {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return 0
		}
		return 1 + max(walk(node.LeftChild), walk(node.RightChild))
	}
	return walk(0)
}

func normalizeTreeConfig(cfg TreeConfig, width int) TreeConfig {
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	if cfg.MaxFeatures <= 0 || cfg.MaxFeatures > width {
		cfg.MaxFeatures = width
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return cfg
}

type treeBuilder struct {
	features [][]float64
	labels   []int
	cfg      TreeConfig
	rng      *rand.Rand
	width    int
	nodes    []TreeNode
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

// build appends the subtree for rows and returns the index of its root.
func (b *treeBuilder) build(rows []int, depth int) int {
	counts := b.classCounts(rows)
	pos := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      proportions(counts, len(rows)),
		Samples:    len(rows),
		IsLeaf:     true,
	})

	if b.shouldStop(rows, counts, depth) {
		return pos
	}
	best, ok := b.findBestSplit(rows, counts)
	if !ok {
		return pos
	}

	left, right := b.partition(rows, best)
	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)

	node := &b.nodes[pos]
	node.FeatureIdx = best.feature
	node.Threshold = best.threshold
	node.LeftChild = leftIdx
	node.RightChild = rightIdx
	node.IsLeaf = false
	return pos
}

func (b *treeBuilder) shouldStop(rows []int, counts [NumClasses]int, depth int) bool {
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return true
	}
	if len(rows) < b.cfg.MinSamplesSplit || len(rows) < 2*b.cfg.MinSamplesLeaf {
		return true
	}
	return isPure(counts)
}

// findBestSplit scans candidate features in random order until MaxFeatures
// non-constant ones have been evaluated, keeping the split with the lowest
// weighted gini impurity.
func (b *treeBuilder) findBestSplit(rows []int, counts [NumClasses]int) (split, bool) {
	order := b.featureOrder()
	best := split{feature: -1}
	evaluated := 0
	sorted := make([]int, len(rows))

	for _, f := range order {
		if evaluated >= b.cfg.MaxFeatures {
			break
		}
		copy(sorted, rows)
		slices.SortFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.features[a][f], b.features[c][f])
		})
		if b.features[sorted[0]][f] == b.features[sorted[len(sorted)-1]][f] {
			continue
		}
		evaluated++

		if s, ok := b.bestThreshold(sorted, f, counts); ok {
			if best.feature == -1 || s.impurity < best.impurity {
				best = s
			}
		}
	}
	return best, best.feature != -1
}

func (b *treeBuilder) bestThreshold(sorted []int, f int, counts [NumClasses]int) (split, bool) {
	n := len(sorted)
	var left [NumClasses]int
	right := counts
	best := split{feature: -1}

	for p := 0; p < n-1; p++ {
		label := b.labels[sorted[p]]
		left[label]++
		right[label]--

		current := b.features[sorted[p]][f]
		next := b.features[sorted[p+1]][f]
		if current == next {
			continue
		}
		nl, nr := p+1, n-p-1
		if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
			continue
		}

		impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
		if best.feature == -1 || impurity < best.impurity {
			threshold := current + (next-current)/2
			if threshold >= next {
				threshold = current
			}
			best = split{feature: f, threshold: threshold, impurity: impurity}
		}
	}
	return best, best.feature != -1
}

func (b *treeBuilder) featureOrder() []int {
	if b.cfg.MaxFeatures >= b.width {
		order := make([]int, b.width)
		for i := range order {
			order[i] = i
		}
		return order
	}
	return b.rng.Perm(b.width)
}

func (b *treeBuilder) partition(rows []int, s split) (left, right []int) {
	left = make([]int, 0, len(rows))
	right = make([]int, 0, len(rows))
	for _, r := range rows {
		if b.features[r][s.feature] <= s.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func (b *treeBuilder) classCounts(rows []int) [NumClasses]int {
	var counts [NumClasses]int
	for _, r := range rows {
		counts[b.labels[r]]++
	}
	return counts
}

func proportions(counts [NumClasses]int, total int) [NumClasses]float64 {
	var p [NumClasses]float64
	if total == 0 {
		return p
	}
	for c, n := range counts {
		p[c] = float64(n) / float64(total)
	}
	return p
}

func gini(counts [NumClasses]int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, n := range counts {
		prob := float64(n) / float64(total)
		impurity -= prob * prob
	}
	return impurity
}

func isPure(counts [NumClasses]int) bool {
	nonZero := 0
	for _, n := range counts {
		if n > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

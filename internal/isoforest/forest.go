// Package isoforest implements an isolation forest: an unsupervised
// ensemble that scores points by how few random partitions are needed
// to separate them from the rest of the data.
package isoforest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Defaults for the scoring contract.
const (
	DefaultContamination = 0.05
	DefaultTrees         = 100
	DefaultSampleSize    = 256
	DefaultSeed          = 42
)

var (
	// ErrEmptyInput is returned when Fit is given fewer than two rows.
	ErrEmptyInput = errors.New("isolation forest requires at least two rows")

	// ErrNaNInput is returned when the input matrix still contains NaN
	// after imputation. Fatal: the forest never degrades or retries.
	ErrNaNInput = errors.New("input matrix contains NaN")

	// ErrNotFitted is returned when scores are requested before Fit.
	ErrNotFitted = errors.New("forest not fitted")
)

// Config holds the forest parameters.
type Config struct {
	Contamination float64 // expected anomalous fraction, in (0,1)
	Trees         int     // ensemble size
	SampleSize    int     // per-tree subsample, capped at the row count
	Seed          int64   // random seed for reproducibility
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Contamination: DefaultContamination,
		Trees:         DefaultTrees,
		SampleSize:    DefaultSampleSize,
		Seed:          DefaultSeed,
	}
}

// Validate checks config bounds.
func (c Config) Validate() error {
	if c.Contamination <= 0 || c.Contamination >= 1 {
		return fmt.Errorf("contamination must be in (0,1), got %v", c.Contamination)
	}
	if c.Trees <= 0 {
		return fmt.Errorf("trees must be positive, got %d", c.Trees)
	}
	if c.SampleSize <= 1 {
		return fmt.Errorf("sample size must be at least 2, got %d", c.SampleSize)
	}
	return nil
}

// node is one node of an isolation tree. Leaves have left == nil.
type node struct {
	feature int     // split feature index
	split   float64 // split value
	left    *node
	right   *node
	size    int // external node: number of samples that ended here
}

// Forest is a fitted isolation forest. Fit once, then read the decision
// and score sequence for the training matrix. For a fixed matrix and
// config the output is reproducible bit for bit.
type Forest struct {
	cfg       Config
	trees     []*node
	sample    int     // subsample size actually used
	threshold float64 // decision boundary on the anomaly score
	scores    []float64
	flags     []bool
	fitted    bool
}

// New creates a Forest with the given config.
func New(cfg Config) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Forest{cfg: cfg}, nil
}

// Fit builds the ensemble on m and computes per-row anomaly scores and
// decisions. The decision threshold is the (1 - contamination) quantile
// of the fit-set scores, so the flagged fraction approximates the
// requested contamination.
func (f *Forest) Fit(m [][]float64) error {
	n := len(m)
	if n < 2 {
		return ErrEmptyInput
	}
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) {
				return ErrNaNInput
			}
		}
	}

	f.sample = f.cfg.SampleSize
	if f.sample > n {
		f.sample = n
	}
	heightLimit := int(math.Ceil(math.Log2(float64(f.sample))))

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	f.trees = make([]*node, f.cfg.Trees)
	for t := range f.trees {
		idx := rng.Perm(n)[:f.sample]
		f.trees[t] = buildTree(m, idx, 0, heightLimit, rng)
	}

	f.scores = make([]float64, n)
	for i, row := range m {
		f.scores[i] = f.score(row)
	}

	sorted := make([]float64, n)
	copy(sorted, f.scores)
	sort.Float64s(sorted)
	f.threshold = quantile(sorted, 1-f.cfg.Contamination)

	f.flags = make([]bool, n)
	for i, s := range f.scores {
		f.flags[i] = s > f.threshold
	}

	f.fitted = true
	return nil
}

// Scores returns the per-row anomaly scores of the fit matrix, in input
// order. Higher means more anomalous. Comparable across rows from the
// same fit only.
func (f *Forest) Scores() ([]float64, error) {
	if !f.fitted {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(f.scores))
	copy(out, f.scores)
	return out, nil
}

// Flags returns the per-row anomaly decisions of the fit matrix.
func (f *Forest) Flags() ([]bool, error) {
	if !f.fitted {
		return nil, ErrNotFitted
	}
	out := make([]bool, len(f.flags))
	copy(out, f.flags)
	return out, nil
}

// Threshold returns the fitted decision boundary.
func (f *Forest) Threshold() (float64, error) {
	if !f.fitted {
		return 0, ErrNotFitted
	}
	return f.threshold, nil
}

// Score computes the anomaly score of a single vector against the
// fitted ensemble: 2^(-E[h(x)] / c(sample)).
func (f *Forest) Score(x []float64) (float64, error) {
	if !f.fitted {
		return 0, ErrNotFitted
	}
	return f.score(x), nil
}

func (f *Forest) score(x []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += pathLength(t, x, 0)
	}
	avg := sum / float64(len(f.trees))
	return math.Pow(2, -avg/avgPathLength(f.sample))
}

// buildTree grows one isolation tree over m[idx] by recursive random
// splits, up to the height limit.
func buildTree(m [][]float64, idx []int, depth, heightLimit int, rng *rand.Rand) *node {
	if depth >= heightLimit || len(idx) <= 1 {
		return &node{size: len(idx)}
	}

	// Only features with spread can split; a constant subsample terminates.
	feats := splittableFeatures(m, idx)
	if len(feats) == 0 {
		return &node{size: len(idx)}
	}
	feature := feats[rng.Intn(len(feats))]

	lo, hi := columnRange(m, idx, feature)
	split := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if m[i][feature] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{size: len(idx)}
	}

	return &node{
		feature: feature,
		split:   split,
		left:    buildTree(m, left, depth+1, heightLimit, rng),
		right:   buildTree(m, right, depth+1, heightLimit, rng),
	}
}

func splittableFeatures(m [][]float64, idx []int) []int {
	var feats []int
	for j := range m[idx[0]] {
		lo, hi := columnRange(m, idx, j)
		if hi > lo {
			feats = append(feats, j)
		}
	}
	return feats
}

func columnRange(m [][]float64, idx []int, j int) (lo, hi float64) {
	lo, hi = m[idx[0]][j], m[idx[0]][j]
	for _, i := range idx[1:] {
		v := m[i][j]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// pathLength traverses one tree and returns the isolation depth of x,
// with the average-path-length adjustment for unresolved leaves.
func pathLength(t *node, x []float64, depth int) float64 {
	if t.left == nil {
		return float64(depth) + avgPathLength(t.size)
	}
	if x[t.feature] < t.split {
		return pathLength(t.left, x, depth+1)
	}
	return pathLength(t.right, x, depth+1)
}

// eulerGamma is the Euler-Mascheroni constant used in the harmonic
// number approximation.
const eulerGamma = 0.5772156649

// avgPathLength is c(n): the average path length of an unsuccessful
// BST search over n points, used to normalize isolation depths.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		h := math.Log(float64(n-1)) + eulerGamma
		return 2*h - 2*float64(n-1)/float64(n)
	}
}

// quantile returns the p-quantile of a sorted slice using linear
// interpolation between closest ranks.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

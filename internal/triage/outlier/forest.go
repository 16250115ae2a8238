// Package outlier implements an isolation forest: anomalies isolate in fewer
// random splits than dense-cluster points, so short average path lengths mark
// outliers. Scores follow the decision-function convention (lower = more
// anomalous) and the flag threshold is calibrated from the training corpus at
// the configured contamination rate.
package outlier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Euler–Mascheroni constant, used in the average unsuccessful-search path
// length of a binary tree.
const eulerGamma = 0.5772156649

// Options are the fit-time hyperparameters.
type Options struct {
	Trees         int     // Number of isolation trees
	SampleSize    int     // Subsample size per tree, capped at the corpus size
	Contamination float64 // Expected outlier fraction, calibrates the flag offset
	Seed          int64   // RNG seed so identical corpora fit identical forests
}

// Node is one isolation-tree node. Internal nodes carry a split; leaves carry
// the count of training points that reached them. The layout marshals to JSON
// so fitted forests persist across restarts.
type Node struct {
	SplitFeature int     `json:"f"`
	SplitValue   float64 `json:"v"`
	Left         *Node   `json:"l,omitempty"`
	Right        *Node   `json:"r,omitempty"`
	Size         int     `json:"n"`
}

func (n *Node) leaf() bool { return n.Left == nil }

// Forest is a fitted isolation forest.
type Forest struct {
	Trees      []*Node `json:"trees"`
	Dims       int     `json:"dims"`
	SampleSize int     `json:"sample_size"`
	Offset     float64 `json:"offset"` // Contamination quantile of training scores
}

// Fit trains a forest on the standardized corpus. All rows must share one
// dimensionality. The same corpus, options, and seed always produce the same
// forest.
func Fit(data [][]float64, opts Options) (*Forest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("fit forest: empty corpus")
	}
	if opts.Trees <= 0 {
		return nil, fmt.Errorf("fit forest: trees must be positive, got %d", opts.Trees)
	}
	if opts.Contamination <= 0 || opts.Contamination >= 0.5 {
		return nil, fmt.Errorf("fit forest: contamination must be in (0, 0.5), got %v", opts.Contamination)
	}
	dims := len(data[0])
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("fit forest: ragged corpus (row %d length %d, want %d)", i, len(row), dims)
		}
	}

	sampleSize := opts.SampleSize
	if sampleSize <= 0 || sampleSize > len(data) {
		sampleSize = len(data)
	}
	// avgPathLength(1) is zero, which would divide the score by zero.
	if sampleSize < 2 {
		return nil, fmt.Errorf("fit forest: need at least 2 samples, got %d", sampleSize)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sampleSize))))
	if heightLimit < 1 {
		heightLimit = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	f := &Forest{
		Trees:      make([]*Node, 0, opts.Trees),
		Dims:       dims,
		SampleSize: sampleSize,
	}
	for t := 0; t < opts.Trees; t++ {
		sample := make([][]float64, sampleSize)
		for i, idx := range rng.Perm(len(data))[:sampleSize] {
			sample[i] = data[idx]
		}
		f.Trees = append(f.Trees, buildTree(sample, 0, heightLimit, rng))
	}

	// Calibrate the outlier offset: the contamination quantile of the
	// corpus's own scores, so roughly that fraction of training points
	// would be flagged.
	scores := make([]float64, len(data))
	for i, row := range data {
		scores[i] = f.score(row)
	}
	sort.Float64s(scores)
	q := int(opts.Contamination * float64(len(scores)))
	if q >= len(scores) {
		q = len(scores) - 1
	}
	f.Offset = scores[q]

	return f, nil
}

func buildTree(points [][]float64, depth, limit int, rng *rand.Rand) *Node {
	if depth >= limit || len(points) <= 1 {
		return &Node{Size: len(points)}
	}

	// Candidate features are those not constant across the node's points.
	dims := len(points[0])
	var splittable []int
	for q := 0; q < dims; q++ {
		lo, hi := points[0][q], points[0][q]
		for _, p := range points[1:] {
			if p[q] < lo {
				lo = p[q]
			}
			if p[q] > hi {
				hi = p[q]
			}
		}
		if hi > lo {
			splittable = append(splittable, q)
		}
	}
	if len(splittable) == 0 {
		return &Node{Size: len(points)}
	}

	q := splittable[rng.Intn(len(splittable))]
	lo, hi := points[0][q], points[0][q]
	for _, p := range points[1:] {
		if p[q] < lo {
			lo = p[q]
		}
		if p[q] > hi {
			hi = p[q]
		}
	}
	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, p := range points {
		if p[q] < split {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &Node{Size: len(points)}
	}

	return &Node{
		SplitFeature: q,
		SplitValue:   split,
		Left:         buildTree(left, depth+1, limit, rng),
		Right:        buildTree(right, depth+1, limit, rng),
	}
}

// avgPathLength is c(n), the average path length of an unsuccessful search in
// a binary search tree over n points. Leaves holding several points extend the
// path by this estimate.
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

func pathLength(v []float64, n *Node, depth float64) float64 {
	for !n.leaf() {
		if v[n.SplitFeature] < n.SplitValue {
			n = n.Left
		} else {
			n = n.Right
		}
		depth++
	}
	return depth + avgPathLength(n.Size)
}

// score computes 0.5 − s(v), where s is the isolation score
// 2^(−E[h(v)]/c(sampleSize)). Deep average paths (ordinary points) land near
// 0; short paths (isolated points) approach −0.5.
func (f *Forest) score(v []float64) float64 {
	var total float64
	for _, tree := range f.Trees {
		total += pathLength(v, tree, 0)
	}
	mean := total / float64(len(f.Trees))
	s := math.Pow(2, -mean/avgPathLength(f.SampleSize))
	return 0.5 - s
}

// Score evaluates one vector against the fitted forest. The vector must have
// the forest's dimensionality. Lower scores are more anomalous; the flag is
// raised when the score falls below the calibrated offset. Scoring never
// mutates the forest, so it is safe from any number of goroutines.
func (f *Forest) Score(v []float64) (bool, float64) {
	s := f.score(v)
	return s < f.Offset, s
}

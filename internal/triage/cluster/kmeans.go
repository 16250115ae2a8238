// Package cluster implements k-means over standardized feature vectors.
// A point far from every learned centroid is an outlier; "far" is a
// threshold computed from the training distance distribution at fit time.
package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// Options are the fit-time hyperparameters.
type Options struct {
	K       int     // Number of centroids, capped at the corpus size
	MaxIter int     // Lloyd iteration cap
	Sigma   float64 // Threshold multiplier: mean + sigma·stddev of training distances
	Seed    int64   // RNG seed for the k-means++ init
}

// Model is a fitted set of centroids with its calibrated distance threshold.
// The layout marshals to JSON so fitted models persist across restarts.
type Model struct {
	Centroids [][]float64 `json:"centroids"`
	Threshold float64     `json:"threshold"`
	Dims      int         `json:"dims"`
}

// Fit runs seeded k-means++ initialization followed by Lloyd iterations, then
// calibrates the outlier threshold as mean + sigma·stddev of every training
// point's distance to its nearest centroid. The same corpus, options, and
// seed always produce the same model.
func Fit(data [][]float64, opts Options) (*Model, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("fit kmeans: empty corpus")
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("fit kmeans: k must be positive, got %d", opts.K)
	}
	if opts.Sigma <= 0 {
		return nil, fmt.Errorf("fit kmeans: sigma must be positive, got %v", opts.Sigma)
	}
	dims := len(data[0])
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("fit kmeans: ragged corpus (row %d length %d, want %d)", i, len(row), dims)
		}
	}

	k := opts.K
	if k > len(data) {
		k = len(data)
	}
	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := seedCentroids(data, k, rng)

	assign := make([]int, len(data))
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range data {
			best, _ := nearest(p, centroids)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range data {
			c := assign[i]
			counts[c]++
			for j, v := range p {
				sums[c][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			next := make([]float64, dims)
			for j := range next {
				next[j] = sums[c][j] / float64(counts[c])
			}
			centroids[c] = next
		}
	}

	// Distance threshold from the training distribution.
	dists := make([]float64, len(data))
	var mean float64
	for i, p := range data {
		_, d := nearest(p, centroids)
		dists[i] = d
		mean += d
	}
	mean /= float64(len(dists))
	var variance float64
	for _, d := range dists {
		diff := d - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(len(dists)))

	return &Model{
		Centroids: centroids,
		Threshold: mean + opts.Sigma*stddev,
		Dims:      dims,
	}, nil
}

// seedCentroids is the k-means++ init: the first centroid is a uniform pick,
// each subsequent one is sampled proportional to squared distance from the
// nearest centroid chosen so far.
func seedCentroids(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(data[rng.Intn(len(data))]))

	for len(centroids) < k {
		weights := make([]float64, len(data))
		var total float64
		for i, p := range data {
			_, d := nearest(p, centroids)
			weights[i] = d * d
			total += weights[i]
		}
		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, cloneVec(data[rng.Intn(len(data))]))
			continue
		}
		target := rng.Float64() * total
		var acc float64
		pick := len(data) - 1
		for i, w := range weights {
			acc += w
			if acc >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, cloneVec(data[pick]))
	}
	return centroids
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for i, c := range centroids {
		if d := euclidean(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Nearest returns the index of the closest centroid and the Euclidean
// distance to it. The vector must have the model's dimensionality.
func (m *Model) Nearest(v []float64) (int, float64) {
	return nearest(v, m.Centroids)
}

// Score evaluates one vector: distance to the nearest centroid, flagged when
// it exceeds the calibrated threshold. Scoring never mutates the model, so it
// is safe from any number of goroutines.
func (m *Model) Score(v []float64) (bool, float64) {
	_, d := nearest(v, m.Centroids)
	return d > m.Threshold, d
}

package feature

import (
	"fmt"
	"math"
)

// Scaler standardizes vectors to zero mean and unit variance per dimension,
// matching how the outlier and cluster models are trained. It serializes
// with the model snapshot so scoring uses the training-time statistics.
type Scaler struct {
	Means   []float64 `json:"means"`
	Stddevs []float64 `json:"stddevs"`
}

// FitScaler computes per-dimension mean and population standard deviation
// over the training matrix. Dimensions with zero variance get a stddev of 1
// so Transform leaves them centered but unscaled.
func FitScaler(data [][]float64) (Scaler, error) {
	if len(data) == 0 {
		return Scaler{}, fmt.Errorf("fit scaler: empty training matrix")
	}
	dims := len(data[0])
	means := make([]float64, dims)
	stddevs := make([]float64, dims)

	for _, row := range data {
		if len(row) != dims {
			return Scaler{}, fmt.Errorf("fit scaler: ragged matrix (row length %d, want %d)", len(row), dims)
		}
		for i, v := range row {
			means[i] += v
		}
	}
	n := float64(len(data))
	for i := range means {
		means[i] /= n
	}

	for _, row := range data {
		for i, v := range row {
			d := v - means[i]
			stddevs[i] += d * d
		}
	}
	for i := range stddevs {
		stddevs[i] = math.Sqrt(stddevs[i] / n)
		if stddevs[i] == 0 {
			stddevs[i] = 1
		}
	}

	return Scaler{Means: means, Stddevs: stddevs}, nil
}

// Transform standardizes one vector in place-safe fashion, returning a new
// slice. The input length must match the fitted dimensionality.
func (s Scaler) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.Means) {
		return nil, fmt.Errorf("transform: vector length %d does not match scaler dimensionality %d",
			len(v), len(s.Means))
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - s.Means[i]) / s.Stddevs[i]
	}
	return out, nil
}

// TransformAll standardizes a whole matrix, reusing Transform per row.
func (s Scaler) TransformAll(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		t, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

package triage

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wardwatch/wardwatch/internal/triage/cluster"
	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/internal/triage/outlier"
	"github.com/wardwatch/wardwatch/pkg/roles"
)

// CorpusProvider supplies the training matrix for a retrain job. The default
// implementation reads the telemetry store; tests inject fixed corpora.
type CorpusProvider interface {
	FetchTrainingVectors(ctx context.Context, window time.Duration) ([][]float64, error)
}

// readingCorpus builds training vectors from a ReadingProvider. Missing
// fields are filled with the corpus's own per-field means (two passes), so
// sparse readings do not drag dimensions toward zero.
type readingCorpus struct {
	provider roles.ReadingProvider
	schema   feature.Schema
}

func newReadingCorpus(provider roles.ReadingProvider, schema feature.Schema) *readingCorpus {
	return &readingCorpus{provider: provider, schema: schema}
}

// FetchTrainingVectors implements CorpusProvider.
func (rc *readingCorpus) FetchTrainingVectors(ctx context.Context, window time.Duration) ([][]float64, error) {
	since := time.Now().Add(-window)
	readings, err := rc.provider.ReadingsSince(ctx, "", since)
	if err != nil {
		return nil, fmt.Errorf("fetch training readings: %w", err)
	}
	if len(readings) == 0 {
		return nil, nil
	}

	// First pass: per-field means over observed values only.
	sums := make([]float64, rc.schema.Len())
	counts := make([]int, rc.schema.Len())
	for _, r := range readings {
		for i, field := range rc.schema.Fields {
			if v, ok := r.Fields[field]; ok {
				sums[i] += v
				counts[i]++
			}
		}
	}
	fill := make([]float64, rc.schema.Len())
	for i := range fill {
		if counts[i] > 0 {
			fill[i] = sums[i] / float64(counts[i])
		}
	}

	// Second pass: vectors with mean fill. Readings sharing no schema
	// fields are skipped rather than failing the whole corpus.
	vectors := make([][]float64, 0, len(readings))
	for _, r := range readings {
		vec, err := feature.Build(r, rc.schema, fill)
		if err != nil {
			continue
		}
		vectors = append(vectors, vec.Values)
	}
	return vectors, nil
}

// trainer guards the single-flight retrain job and fits model snapshots.
type trainer struct {
	cfg     TriageConfig
	running atomic.Bool
}

func newTrainer(cfg TriageConfig) *trainer {
	return &trainer{cfg: cfg}
}

// tryAcquire claims the retrain slot. Returns false when a job is running.
func (t *trainer) tryAcquire() bool { return t.running.CompareAndSwap(false, true) }

// release frees the retrain slot.
func (t *trainer) release() { t.running.Store(false) }

// isRunning reports whether a retrain job is in flight.
func (t *trainer) isRunning() bool { return t.running.Load() }

// fit trains a complete snapshot on the corpus: scaler, isolation forest,
// and cluster model, all on the same standardized matrix. The context
// cancels between fit phases. The returned snapshot carries Version 0 until
// persisted.
func (t *trainer) fit(ctx context.Context, schema feature.Schema, data [][]float64) (*ModelSnapshot, error) {
	if len(data) < t.cfg.MinTrainingSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrCorpusTooSmall, len(data), t.cfg.MinTrainingSamples)
	}

	scaler, err := feature.FitScaler(data)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(data)
	if err != nil {
		return nil, fmt.Errorf("standardize corpus: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrain cancelled: %w", err)
	}
	forest, err := outlier.Fit(scaled, outlier.Options{
		Trees:         t.cfg.Trees,
		SampleSize:    t.cfg.SampleSize,
		Contamination: t.cfg.Contamination,
		Seed:          t.cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("fit outlier model: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrain cancelled: %w", err)
	}
	clusters, err := cluster.Fit(scaled, cluster.Options{
		K:     t.cfg.Clusters,
		Sigma: t.cfg.ClusterSigma,
		Seed:  t.cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("fit cluster model: %w", err)
	}

	return &ModelSnapshot{
		TrainedAt: time.Now().UTC(),
		Samples:   len(data),
		Schema:    schema,
		Scaler:    scaler,
		Forest:    forest,
		Clusters:  clusters,
	}, nil
}

package triage

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/wardwatch/wardwatch/internal/triage/cluster"
	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/internal/triage/outlier"
)

// ModelSnapshot is one immutable generation of trained model state: the
// scaler, the isolation forest, and the cluster model, all fit on the same
// corpus against the same schema. Snapshots are never mutated after
// construction; retraining builds a new one and swaps the handle.
type ModelSnapshot struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Samples   int       `json:"samples"`

	Schema   feature.Schema  `json:"-"`
	Scaler   feature.Scaler  `json:"-"`
	Forest   *outlier.Forest `json:"-"`
	Clusters *cluster.Model  `json:"-"`
}

// modelHandle is the atomic snapshot pointer. Detection loads it once per
// call and scores against that generation even if a retrain lands mid-call;
// nil means never trained.
type modelHandle struct {
	p atomic.Pointer[ModelSnapshot]
}

func (h *modelHandle) load() *ModelSnapshot     { return h.p.Load() }
func (h *modelHandle) swap(next *ModelSnapshot) { h.p.Store(next) }

// snapshotParams is the serialized parameter blob persisted in triage_models
// so a restart reloads the last trained generation.
type snapshotParams struct {
	Scaler   feature.Scaler  `json:"scaler"`
	Forest   *outlier.Forest `json:"forest"`
	Clusters *cluster.Model  `json:"clusters"`
}

// marshalParams serializes the snapshot's fitted parameters.
func (s *ModelSnapshot) marshalParams() ([]byte, error) {
	raw, err := json.Marshal(snapshotParams{
		Scaler:   s.Scaler,
		Forest:   s.Forest,
		Clusters: s.Clusters,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal model params: %w", err)
	}
	return raw, nil
}

// restoreSnapshot rebuilds a snapshot from its persisted row.
func restoreSnapshot(version int, trainedAt time.Time, samples int, schemaName string, params []byte) (*ModelSnapshot, error) {
	schema, ok := feature.SchemaByName(schemaName)
	if !ok {
		return nil, fmt.Errorf("restore model: unknown schema %q", schemaName)
	}
	var p snapshotParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("restore model: unmarshal params: %w", err)
	}
	if p.Forest == nil || p.Clusters == nil {
		return nil, fmt.Errorf("restore model: params missing fitted models")
	}
	if len(p.Scaler.Means) != schema.Len() {
		return nil, fmt.Errorf("restore model: scaler dimensionality %d does not match schema %q length %d",
			len(p.Scaler.Means), schemaName, schema.Len())
	}
	return &ModelSnapshot{
		Version:   version,
		TrainedAt: trainedAt,
		Samples:   samples,
		Schema:    schema,
		Scaler:    p.Scaler,
		Forest:    p.Forest,
		Clusters:  p.Clusters,
	}, nil
}

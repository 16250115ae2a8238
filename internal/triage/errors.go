package triage

import "errors"

// Sentinel errors returned by the detection pipeline. Handlers map them to
// problem+json responses; callers match with errors.Is.
var (
	// ErrModelUnavailable means no trained model snapshot exists. Detection
	// degrades to rule-based fallback instead of surfacing this to callers;
	// it is returned only where a model is strictly required.
	ErrModelUnavailable = errors.New("no trained model available")

	// ErrAlertNotFound means no unresolved alert matches the device id and
	// timestamp. Resolution never mutates anything on a miss.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrRetrainInProgress means a retrain job is already running; only one
	// runs at a time.
	ErrRetrainInProgress = errors.New("retrain already in progress")

	// ErrCorpusTooSmall means the training window held fewer readings than
	// the configured minimum. The previous model stays active.
	ErrCorpusTooSmall = errors.New("training corpus below minimum sample count")
)

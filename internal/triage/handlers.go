package triage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wardwatch/wardwatch/internal/triage/feature"
	"github.com/wardwatch/wardwatch/internal/triage/rules"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/detect", Handler: m.handleDetect},
		{Method: "GET", Path: "/detect/{device_id}", Handler: m.handleDetectDevice},
		{Method: "GET", Path: "/anomalies", Handler: m.handleListAnomalies},
		{Method: "GET", Path: "/alerts/active", Handler: m.handleActiveAlerts},
		{Method: "PUT", Path: "/alerts/{device_id}/{timestamp}/resolve", Handler: m.handleResolveAlert},
		{Method: "POST", Path: "/train", Handler: m.handleTrain},
		{Method: "GET", Path: "/model/status", Handler: m.handleModelStatus},
		{Method: "GET", Path: "/statistics", Handler: m.handleStatistics},
	}
}

// modelStatusResponse describes the currently active model generation.
type modelStatusResponse struct {
	Status         string      `json:"status"`
	Version        int         `json:"version,omitempty"`
	TrainedAt      *time.Time  `json:"trained_at,omitempty"`
	Samples        int         `json:"samples,omitempty"`
	Schema         string      `json:"schema,omitempty"`
	RetrainRunning bool        `json:"retrain_running"`
	Thresholds     rules.Table `json:"thresholds"`
}

// resolveRequest is the optional body for alert resolution.
type resolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// handleDetect classifies a submitted reading.
//
//	@Summary		Detect anomalies in a reading
//	@Description	Runs the full detection pipeline on the submitted reading and returns the fused decision. The reading is recorded and may trigger an alert.
//	@Tags			triage
//	@Accept			json
//	@Produce		json
//	@Param			reading body vitals.Reading true "Reading to classify"
//	@Success		200 {object} vitals.DetectionResult
//	@Failure		400 {object} map[string]any
//	@Failure		500 {object} map[string]any
//	@Router			/triage/detect [post]
func (m *Module) handleDetect(w http.ResponseWriter, r *http.Request) {
	var reading vitals.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := m.Detect(r.Context(), reading)
	if err != nil {
		if errors.Is(err, vitals.ErrInvalidReading) || errors.Is(err, feature.ErrSchemaMismatch) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDetectDevice re-runs detection on a device's latest stored reading.
//
//	@Summary		Detect on latest reading
//	@Description	Fetches the device's most recent stored reading and runs the detection pipeline on it.
//	@Tags			triage
//	@Produce		json
//	@Param			device_id path string true "Device ID"
//	@Success		200 {object} vitals.DetectionResult
//	@Failure		404 {object} map[string]any
//	@Failure		503 {object} map[string]any
//	@Router			/triage/detect/{device_id} [get]
func (m *Module) handleDetectDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}
	if m.readings == nil {
		writeError(w, http.StatusServiceUnavailable, "telemetry provider unavailable")
		return
	}

	reading, err := m.readings.LatestReading(r.Context(), deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch latest reading")
		return
	}
	if reading == nil {
		writeError(w, http.StatusNotFound, "no readings recorded for device "+deviceID)
		return
	}

	result, err := m.Detect(r.Context(), *reading)
	if err != nil {
		if errors.Is(err, vitals.ErrInvalidReading) || errors.Is(err, feature.ErrSchemaMismatch) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListAnomalies returns recorded detection decisions.
//
//	@Summary		List anomaly records
//	@Description	Returns recorded detection decisions, newest first, filtered by device, time window, and severity.
//	@Tags			triage
//	@Produce		json
//	@Param			device query string false "Filter by device ID"
//	@Param			hours query int false "Look-back window in hours" default(24)
//	@Param			severity query string false "Filter by severity level" Enums(NORMAL, LOW, MEDIUM, HIGH, CRITICAL)
//	@Param			limit query int false "Maximum results" default(50)
//	@Success		200 {array} vitals.AnomalyRecord
//	@Failure		400 {object} map[string]any
//	@Failure		500 {object} map[string]any
//	@Router			/triage/anomalies [get]
func (m *Module) handleListAnomalies(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	severity := r.URL.Query().Get("severity")
	if severity != "" && !vitals.ValidSeverity(severity) {
		writeError(w, http.StatusBadRequest, "unknown severity level "+strconv.Quote(severity))
		return
	}

	hours := parseHours(r, 24)
	filter := AnomalyFilter{
		DeviceID: r.URL.Query().Get("device"),
		Since:    time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Severity: vitals.Severity(severity),
		Limit:    parseLimit(r, 50),
	}

	records, err := m.store.ListAnomalies(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list anomalies")
		return
	}
	if records == nil {
		records = []vitals.AnomalyRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleActiveAlerts returns unresolved alerts.
//
//	@Summary		Active alerts
//	@Description	Returns all unresolved alerts, most severe first.
//	@Tags			triage
//	@Produce		json
//	@Success		200 {array} vitals.AlertRecord
//	@Failure		500 {object} map[string]any
//	@Router			/triage/alerts/active [get]
func (m *Module) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := m.ActiveAlerts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list active alerts")
		return
	}
	if alerts == nil {
		alerts = []vitals.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// handleResolveAlert marks a matching unresolved alert as resolved.
//
//	@Summary		Resolve an alert
//	@Description	Resolves the unresolved alert identified by device and reading timestamp. Resolving is idempotent per alert; an already-resolved or unknown alert returns 404.
//	@Tags			triage
//	@Accept			json
//	@Produce		json
//	@Param			device_id path string true "Device ID"
//	@Param			timestamp path string true "Reading timestamp (RFC 3339)"
//	@Param			request body resolveRequest false "Resolver identity"
//	@Success		200 {object} vitals.AlertRecord
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Router			/triage/alerts/{device_id}/{timestamp}/resolve [put]
func (m *Module) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}
	ts, err := time.Parse(time.RFC3339Nano, r.PathValue("timestamp"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp, expected RFC 3339")
		return
	}

	var req resolveRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	if req.ResolvedBy == "" {
		req.ResolvedBy = "system"
	}

	alert, err := m.ResolveAlert(r.Context(), deviceID, ts, req.ResolvedBy)
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve alert")
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// handleTrain starts a background retraining job.
//
//	@Summary		Retrain detection models
//	@Description	Starts a background job that refits the outlier and cluster models on recent readings. Returns 409 if a job is already running.
//	@Tags			triage
//	@Produce		json
//	@Success		202 {object} map[string]any
//	@Failure		409 {object} map[string]any
//	@Failure		503 {object} map[string]any
//	@Router			/triage/train [post]
func (m *Module) handleTrain(w http.ResponseWriter, r *http.Request) {
	if err := m.StartRetrain(); err != nil {
		if errors.Is(err, ErrRetrainInProgress) {
			writeError(w, http.StatusConflict, "a retraining job is already running")
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "training_started"})
}

// handleModelStatus reports the active model generation.
//
//	@Summary		Model status
//	@Description	Returns the active model generation and the rule thresholds in force, or untrained when no model has been fitted.
//	@Tags			triage
//	@Produce		json
//	@Success		200 {object} modelStatusResponse
//	@Router			/triage/model/status [get]
func (m *Module) handleModelStatus(w http.ResponseWriter, r *http.Request) {
	resp := modelStatusResponse{
		Status:         "untrained",
		RetrainRunning: m.trainer.isRunning(),
		Thresholds:     m.cfg.Thresholds,
	}
	if snap := m.model.load(); snap != nil {
		resp.Status = vitals.ModelStatusActive
		resp.Version = snap.Version
		trainedAt := snap.TrainedAt
		resp.TrainedAt = &trainedAt
		resp.Samples = snap.Samples
		resp.Schema = snap.Schema.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatistics summarizes detection activity over a window.
//
//	@Summary		Detection statistics
//	@Description	Returns detection counts, severity distribution, per-device anomaly counts, and engine status over the look-back window.
//	@Tags			triage
//	@Produce		json
//	@Param			hours query int false "Look-back window in hours" default(24)
//	@Success		200 {object} triage.Statistics
//	@Failure		500 {object} map[string]any
//	@Router			/triage/statistics [get]
func (m *Module) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	hours := parseHours(r, 24)
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	stats, err := m.store.Statistics(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	stats.WindowHours = hours
	stats.EngineStatus = vitals.ModelStatusFallback
	if snap := m.model.load(); snap != nil {
		stats.EngineStatus = vitals.ModelStatusActive
		stats.Model = snap
	}
	writeJSON(w, http.StatusOK, stats)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	title := http.StatusText(status)
	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://wardwatch.dev/problems/" + slug,
		"title":  title,
		"status": status,
		"detail": detail,
	})
}

func parseLimit(r *http.Request, defaultLimit int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return defaultLimit
}

func parseHours(r *http.Request, defaultHours int) int {
	if s := r.URL.Query().Get("hours"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 8760 {
			return n
		}
	}
	return defaultHours
}

package telemetry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/vitals"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/readings", Handler: m.handleIngestReading},
		{Method: "GET", Path: "/readings/{device_id}", Handler: m.handleDeviceReadings},
		{Method: "GET", Path: "/devices", Handler: m.handleListDevices},
		{Method: "GET", Path: "/devices/{device_id}", Handler: m.handleGetDevice},
	}
}

// handleIngestReading accepts one device reading.
//
//	@Summary		Ingest reading
//	@Description	Validates and stores one reading, then fans it out to the detection pipeline. Missing timestamps default to the current time.
//	@Tags			telemetry
//	@Accept			json
//	@Produce		json
//	@Param			reading body vitals.Reading true "Device reading"
//	@Success		202 {object} StoredReading "Reading accepted"
//	@Failure		400 {object} map[string]any
//	@Failure		500 {object} map[string]any
//	@Router			/telemetry/readings [post]
func (m *Module) handleIngestReading(w http.ResponseWriter, r *http.Request) {
	var reading vitals.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := m.Ingest(r.Context(), reading)
	if err != nil {
		if errors.Is(err, vitals.ErrInvalidReading) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m.logger.Error("failed to ingest reading",
			zap.String("device_id", reading.DeviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}
	writeJSON(w, http.StatusAccepted, rec)
}

// handleDeviceReadings returns a device's recent readings, newest first.
//
//	@Summary		List device readings
//	@Description	Returns the device's stored readings within the lookback window, newest first.
//	@Tags			telemetry
//	@Produce		json
//	@Param			device_id path string true "Device ID"
//	@Param			limit query int false "Max results (capped at 500)" default(100)
//	@Param			hours query int false "Lookback window in hours" default(24)
//	@Success		200 {array} StoredReading
//	@Failure		503 {object} map[string]any
//	@Router			/telemetry/readings/{device_id} [get]
func (m *Module) handleDeviceReadings(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	limit := queryInt(r, "limit", 100)
	if limit > 500 {
		limit = 500
	}
	hours := queryInt(r, "hours", 24)
	if hours > 8760 {
		hours = 8760
	}

	readings, err := m.store.ListReadings(r.Context(), ListReadingsOptions{
		DeviceID: deviceID,
		Since:    time.Now().UTC().Add(-time.Duration(hours) * time.Hour),
		Limit:    limit,
	})
	if err != nil {
		m.logger.Error("failed to list readings",
			zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list readings")
		return
	}
	if readings == nil {
		readings = []StoredReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleListDevices returns the device inventory.
//
//	@Summary		List devices
//	@Description	Returns every device that has ever reported, most recently seen first.
//	@Tags			telemetry
//	@Produce		json
//	@Success		200 {array} DeviceSummary
//	@Failure		503 {object} map[string]any
//	@Router			/telemetry/devices [get]
func (m *Module) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	devices, err := m.store.Devices(r.Context())
	if err != nil {
		m.logger.Error("failed to list devices", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []DeviceSummary{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns one device's inventory row.
//
//	@Summary		Get device
//	@Description	Returns the inventory entry for one device.
//	@Tags			telemetry
//	@Produce		json
//	@Param			device_id path string true "Device ID"
//	@Success		200 {object} DeviceSummary
//	@Failure		404 {object} map[string]any
//	@Failure		503 {object} map[string]any
//	@Router			/telemetry/devices/{device_id} [get]
func (m *Module) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	device, err := m.store.GetDevice(r.Context(), deviceID)
	if err != nil {
		m.logger.Error("failed to get device",
			zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get device")
		return
	}
	if device == nil {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem detail response.
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

// queryInt extracts an integer query parameter with a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}

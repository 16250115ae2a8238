package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wardwatch/wardwatch/internal/testutil"
	"github.com/wardwatch/wardwatch/pkg/plugin"
	"github.com/wardwatch/wardwatch/pkg/vitals"
	"go.uber.org/zap"
)

func postReading(t *testing.T, m *Module, r vitals.Reading) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal reading: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/readings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	m.handleIngestReading(w, req)
	return w
}

func TestHandleIngestReading_Accepted(t *testing.T) {
	m := newTestModule(t)

	w := postReading(t, m, testutil.NewReading(testutil.WithDevice("bed-1")))
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var rec StoredReading
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if rec.ID == "" || rec.DeviceID != "bed-1" {
		t.Errorf("response = %+v, want assigned id for bed-1", rec)
	}
}

func TestHandleIngestReading_InvalidJSON(t *testing.T) {
	m := newTestModule(t)

	req := httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	m.handleIngestReading(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleIngestReading_InvalidReading(t *testing.T) {
	m := newTestModule(t)

	w := postReading(t, m, vitals.Reading{Fields: map[string]float64{vitals.FieldHeartRate: 72}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "device id") {
		t.Errorf("body = %s, want detail naming the missing device id", w.Body.String())
	}
}

func TestHandleDeviceReadings_NewestFirst(t *testing.T) {
	m := newTestModule(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		w := postReading(t, m, testutil.NewReading(
			testutil.WithDevice("bed-1"),
			testutil.WithTimestamp(base.Add(time.Duration(i)*time.Minute)),
		))
		if w.Code != http.StatusAccepted {
			t.Fatalf("seed reading %d: status %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/readings/bed-1?limit=2", nil)
	req.SetPathValue("device_id", "bed-1")
	w := httptest.NewRecorder()
	m.handleDeviceReadings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var readings []StoredReading
	if err := json.Unmarshal(w.Body.Bytes(), &readings); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("len = %d, want 2", len(readings))
	}
	if !readings[0].Timestamp.After(readings[1].Timestamp) {
		t.Error("readings not ordered newest first")
	}
}

func TestHandleDeviceReadings_UnknownDeviceIsEmpty(t *testing.T) {
	m := newTestModule(t)

	req := httptest.NewRequest(http.MethodGet, "/readings/ghost", nil)
	req.SetPathValue("device_id", "ghost")
	w := httptest.NewRecorder()
	m.handleDeviceReadings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestHandleDeviceReadings_NilStore(t *testing.T) {
	m := New()
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/readings/bed-1", nil)
	req.SetPathValue("device_id", "bed-1")
	w := httptest.NewRecorder()
	m.handleDeviceReadings(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleListDevices(t *testing.T) {
	m := newTestModule(t)

	postReading(t, m, testutil.NewReading(testutil.WithDevice("bed-1")))
	postReading(t, m, testutil.NewEnvironmentReading(testutil.WithDevice("room-9")))

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	w := httptest.NewRecorder()
	m.handleListDevices(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var devices []DeviceSummary
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("len = %d, want 2", len(devices))
	}
}

func TestHandleGetDevice(t *testing.T) {
	m := newTestModule(t)

	postReading(t, m, testutil.NewEnvironmentReading(testutil.WithDevice("room-9")))

	req := httptest.NewRequest(http.MethodGet, "/devices/room-9", nil)
	req.SetPathValue("device_id", "room-9")
	w := httptest.NewRecorder()
	m.handleGetDevice(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var d DeviceSummary
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if d.Kind != KindRoomSensor {
		t.Errorf("kind = %q, want %q", d.Kind, KindRoomSensor)
	}
}

func TestHandleGetDevice_NotFound(t *testing.T) {
	m := newTestModule(t)

	req := httptest.NewRequest(http.MethodGet, "/devices/ghost", nil)
	req.SetPathValue("device_id", "ghost")
	w := httptest.NewRecorder()
	m.handleGetDevice(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 100},
		{"limit=25", 25},
		{"limit=abc", 100},
		{"limit=-5", 100},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/readings/bed-1?"+tt.query, nil)
		if got := queryInt(req, "limit", 100); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

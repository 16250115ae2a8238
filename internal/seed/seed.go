// Package seed fills an empty database with a small demo ward: six bedside
// monitors and three room sensors, each with several hours of plausible
// readings. The history is enough for the detection models to train on, and
// it includes one deteriorating patient and one room losing ventilation so a
// first detection run has something to find.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/wardwatch/wardwatch/internal/telemetry"
	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// Ingester is the slice of the Telemetry module the seeder writes through.
// Going through Ingest keeps seeded readings on the same validation and
// inventory path as live ones.
type Ingester interface {
	Ingest(ctx context.Context, r vitals.Reading) (*telemetry.StoredReading, error)
	LatestReading(ctx context.Context, deviceID string) (*vitals.Reading, error)
}

// Window is how much reading history the seeder generates per device.
const Window = 6 * time.Hour

// Reporting cadence. Rooms report less often than bedside monitors, which
// keeps both well inside the default staleness threshold.
const (
	monitorInterval = time.Minute
	roomInterval    = 5 * time.Minute
)

// The scripted episodes at the tail of the history.
const (
	deterioratingBed    = "bed-3"
	deteriorationWindow = 30 * time.Minute

	stuffyRoom  = "room-2"
	stuffyStart = time.Hour
)

// Summary reports what one seed run wrote.
type Summary struct {
	Devices  int
	Readings int
	Skipped  bool // demo data was already present
}

// SeedDemoWard populates the database with the demo ward. It is idempotent:
// when the first demo bed has already reported, a previous run is assumed to
// have seeded everything and the data is left alone.
func SeedDemoWard(ctx context.Context, ing Ingester) (*Summary, error) {
	existing, err := ing.LatestReading(ctx, "bed-1")
	if err != nil {
		return nil, fmt.Errorf("check existing data: %w", err)
	}
	if existing != nil {
		return &Summary{Skipped: true}, nil
	}

	now := time.Now().UTC().Truncate(time.Minute)
	sum := &Summary{}

	for _, bed := range demoBeds() {
		n, err := seedMonitor(ctx, ing, bed, now)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", bed.id, err)
		}
		sum.Devices++
		sum.Readings += n
	}

	for _, room := range demoRooms() {
		n, err := seedRoomSensor(ctx, ing, room, now)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", room.id, err)
		}
		sum.Devices++
		sum.Readings += n
	}

	return sum, nil
}

// vitalProfile is one patient's resting baseline. Values sit inside the
// default normal bands so the generated history reads as healthy.
type vitalProfile struct {
	heartRate float64
	systolic  float64
	diastolic float64
	temp      float64
	oxygen    float64
	respRate  float64
	glucose   float64
}

type bedSeed struct {
	id      string
	profile vitalProfile
}

// demoBeds returns six patients with distinct but unremarkable baselines.
func demoBeds() []bedSeed {
	return []bedSeed{
		{"bed-1", vitalProfile{heartRate: 72, systolic: 118, diastolic: 76, temp: 36.8, oxygen: 98, respRate: 15, glucose: 95}},
		{"bed-2", vitalProfile{heartRate: 64, systolic: 134, diastolic: 86, temp: 36.5, oxygen: 96.5, respRate: 14, glucose: 108}},
		{"bed-3", vitalProfile{heartRate: 78, systolic: 122, diastolic: 80, temp: 37.0, oxygen: 97, respRate: 17, glucose: 112}},
		{"bed-4", vitalProfile{heartRate: 62, systolic: 106, diastolic: 68, temp: 36.4, oxygen: 99, respRate: 13, glucose: 88}},
		{"bed-5", vitalProfile{heartRate: 88, systolic: 112, diastolic: 72, temp: 36.9, oxygen: 96.5, respRate: 19, glucose: 126}},
		{"bed-6", vitalProfile{heartRate: 69, systolic: 124, diastolic: 82, temp: 36.7, oxygen: 97, respRate: 16, glucose: 118}},
	}
}

// roomProfile is one room's baseline environment.
type roomProfile struct {
	temp       float64
	humidity   float64
	airQuality float64
	co2        float64
	noise      float64
}

type roomSeed struct {
	id      string
	profile roomProfile
}

func demoRooms() []roomSeed {
	return []roomSeed{
		{"room-1", roomProfile{temp: 22.0, humidity: 45, airQuality: 20, co2: 520, noise: 38}},
		{"room-2", roomProfile{temp: 22.8, humidity: 48, airQuality: 28, co2: 640, noise: 42}},
		{"room-3", roomProfile{temp: 21.4, humidity: 52, airQuality: 17, co2: 480, noise: 35}},
	}
}

func seedMonitor(ctx context.Context, ing Ingester, bed bedSeed, now time.Time) (int, error) {
	var n int
	for t := now.Add(-Window); !t.After(now); t = t.Add(monitorInterval) {
		fields := monitorFields(bed.profile, t)
		if bed.id == deterioratingBed {
			if remaining := now.Sub(t); remaining < deteriorationWindow {
				deteriorate(fields, 1-remaining.Minutes()/deteriorationWindow.Minutes())
			}
		}
		if _, err := ing.Ingest(ctx, vitals.Reading{DeviceID: bed.id, Timestamp: t, Fields: fields}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func seedRoomSensor(ctx context.Context, ing Ingester, room roomSeed, now time.Time) (int, error) {
	var n int
	for t := now.Add(-Window); !t.After(now); t = t.Add(roomInterval) {
		fields := roomFields(room.profile, t)
		if room.id == stuffyRoom {
			if remaining := now.Sub(t); remaining < stuffyStart {
				stuffUp(fields, 1-remaining.Minutes()/stuffyStart.Minutes())
			}
		}
		if _, err := ing.Ingest(ctx, vitals.Reading{DeviceID: room.id, Timestamp: t, Fields: fields}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// monitorFields generates one vitals snapshot: baseline plus measurement
// jitter plus a mild circadian swing on heart rate.
func monitorFields(p vitalProfile, t time.Time) map[string]float64 {
	return map[string]float64{
		vitals.FieldHeartRate:       round1(p.heartRate + circadian(t)*3 + jitter(2.5)),
		vitals.FieldSystolicBP:      round1(p.systolic + jitter(4)),
		vitals.FieldDiastolicBP:     round1(p.diastolic + jitter(3)),
		vitals.FieldTemperature:     round2(p.temp + jitter(0.1)),
		vitals.FieldOxygenLevel:     math.Min(round1(p.oxygen+jitter(0.7)), 100),
		vitals.FieldRespiratoryRate: round1(p.respRate + jitter(1.2)),
		vitals.FieldGlucose:         round1(p.glucose + jitter(6)),
	}
}

// roomFields generates one environment snapshot. Light level follows the
// time of day so seeded history looks plausible when plotted.
func roomFields(p roomProfile, t time.Time) map[string]float64 {
	return map[string]float64{
		vitals.FieldRoomTemperature: round2(p.temp + circadian(t)*0.8 + jitter(0.3)),
		vitals.FieldHumidity:        round1(p.humidity + jitter(2)),
		vitals.FieldAirQuality:      math.Max(round1(p.airQuality+jitter(4)), 0),
		vitals.FieldCO2Level:        math.Max(round1(p.co2+jitter(25)), 350),
		vitals.FieldNoiseLevel:      math.Max(round1(p.noise+jitter(3)), 20),
		vitals.FieldLightLevel:      math.Max(round1(220+circadian(t)*200+jitter(15)), 5),
	}
}

// deteriorate pushes a patient's vitals toward respiratory distress: heart
// rate climbs past the critical line while oxygen saturation falls through
// it. progress runs 0..1 over the deterioration window.
func deteriorate(fields map[string]float64, progress float64) {
	fields[vitals.FieldHeartRate] += progress * 55
	fields[vitals.FieldOxygenLevel] -= progress * 12
	fields[vitals.FieldRespiratoryRate] += progress * 10
}

// stuffUp raises CO2, particulates, and humidity the way a full room does
// when it loses ventilation. progress runs 0..1 over the final hour.
func stuffUp(fields map[string]float64, progress float64) {
	fields[vitals.FieldCO2Level] += progress * 760
	fields[vitals.FieldAirQuality] += progress * 55
	fields[vitals.FieldHumidity] += progress * 16
}

// jitter returns a normally distributed offset with the given deviation.
func jitter(sd float64) float64 {
	return rand.NormFloat64() * sd //nolint:gosec // G404: demo data uses weak RNG intentionally
}

// circadian maps the time of day onto a -1..1 swing peaking mid-afternoon.
func circadian(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	return math.Sin((h - 10) / 24 * 2 * math.Pi)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

package triage

import (
	"sync"

	"github.com/wardwatch/wardwatch/pkg/vitals"
)

// deviceHistory is one device's bounded reading window, oldest first.
// Its mutex serializes the read-modify-write of every detection call for
// that device; calls for different devices never contend.
type deviceHistory struct {
	mu       sync.Mutex
	readings []vitals.Reading
}

// historyManager owns the per-device rolling windows.
type historyManager struct {
	mu      sync.RWMutex
	devices map[string]*deviceHistory
	window  int
}

func newHistoryManager(window int) *historyManager {
	return &historyManager{
		devices: make(map[string]*deviceHistory),
		window:  window,
	}
}

func (hm *historyManager) getOrCreate(deviceID string) *deviceHistory {
	hm.mu.RLock()
	h, ok := hm.devices[deviceID]
	hm.mu.RUnlock()
	if ok {
		return h
	}

	hm.mu.Lock()
	defer hm.mu.Unlock()
	// Double-check after acquiring write lock
	if h, ok = hm.devices[deviceID]; ok {
		return h
	}
	h = &deviceHistory{}
	hm.devices[deviceID] = h
	return h
}

// record appends the reading to its device's window, evicting the oldest
// entry on overflow, and returns a copy of the window including the new
// reading. The copy is safe to read without further locking.
func (hm *historyManager) record(r vitals.Reading) []vitals.Reading {
	h := hm.getOrCreate(r.DeviceID)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.readings = append(h.readings, r)
	if len(h.readings) > hm.window {
		h.readings = h.readings[len(h.readings)-hm.window:]
	}

	out := make([]vitals.Reading, len(h.readings))
	copy(out, h.readings)
	return out
}

// count returns the number of devices with recorded history.
func (hm *historyManager) count() int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return len(hm.devices)
}

package source

import (
	"sync"
	"testing"
	"time"

	"github.com/motioncore/sensorsync/internal/types"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []types.RawEvent
}

func (h *recordingHandler) OnEvent(ev types.RawEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHandler) OnAccuracyChanged(types.SensorInfo, int) {}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestSimServiceSourceLookup(t *testing.T) {
	svc := NewSimService(map[types.SensorType]float64{
		types.Gyroscope: 100,
	})
	defer svc.Close()

	if !svc.Reachable() {
		t.Error("simulated service should always be reachable")
	}
	src := svc.Source(types.Gyroscope)
	if src == nil {
		t.Fatal("configured source should exist")
	}
	if !src.Available() {
		t.Error("simulated source should be available")
	}
	if got := src.Identity().TypeCode; got != 4 {
		t.Errorf("gyroscope identity type code = %d, want 4", got)
	}
	if svc.Source(types.Magnetometer) != nil {
		t.Error("unconfigured source should be nil")
	}
}

func TestSimSourceDelivery(t *testing.T) {
	svc := NewSimService(map[types.SensorType]float64{
		types.Accelerometer: 500,
	})
	defer svc.Close()

	src := svc.Source(types.Accelerometer)
	h := &recordingHandler{}
	if !src.Register(h, time.Millisecond) {
		t.Fatal("Register() should succeed")
	}
	// Double registration is rejected while active.
	if src.Register(h, time.Millisecond) {
		t.Error("Register() on an already registered source should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.count() < 3 {
		t.Fatalf("expected at least 3 deliveries, got %d", h.count())
	}

	src.Unregister()
	n := h.count()
	time.Sleep(50 * time.Millisecond)
	// The dispatch queue may still drain events generated before the
	// unregistration took effect, but generation itself must stop.
	if grew := h.count() - n; grew > 2 {
		t.Errorf("deliveries kept growing after Unregister(): +%d", grew)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, ev := range h.events {
		if ev.Sensor == nil || ev.Sensor.TypeCode != 1 {
			t.Fatalf("event %d has wrong identity: %+v", i, ev.Sensor)
		}
		if len(ev.Values) != 3 {
			t.Fatalf("event %d has %d components, want 3", i, len(ev.Values))
		}
		if i > 0 && ev.Timestamp < h.events[i-1].Timestamp {
			t.Errorf("event %d timestamp decreased", i)
		}
	}
}

func TestWaveformShape(t *testing.T) {
	// Accelerometer output stays around gravity; gyroscope around zero.
	for i := 0; i < 100; i++ {
		elapsed := float64(i) * 0.01
		acc := waveform(types.Accelerometer, elapsed)
		if acc[0] < 8 || acc[0] > 11 {
			t.Fatalf("accelerometer waveform out of range: %v", acc[0])
		}
		gyr := waveform(types.Gyroscope, elapsed)
		if gyr[0] < -1 || gyr[0] > 1 {
			t.Fatalf("gyroscope waveform out of range: %v", gyr[0])
		}
	}
}

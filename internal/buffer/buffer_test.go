package buffer

import (
	"testing"

	"github.com/motioncore/sensorsync/internal/types"
)

func sample(t types.SensorType, ts int64) types.Measurement {
	return types.Measurement{Type: t, Timestamp: ts, Values: [3]float64{1, 2, 3}}
}

func TestNewestEmptyAndMissing(t *testing.T) {
	w := New([]types.SensorType{types.Accelerometer})

	if _, ok := w.Newest(types.Accelerometer); ok {
		t.Error("Newest() on empty queue should report no data")
	}
	// A type the buffer was never created for behaves like an empty
	// queue, not an error.
	if _, ok := w.Newest(types.Gyroscope); ok {
		t.Error("Newest() on missing queue should report no data")
	}
}

func TestPushAndNewest(t *testing.T) {
	w := New([]types.SensorType{types.Accelerometer})

	w.Push(types.Accelerometer, sample(types.Accelerometer, 10))
	w.Push(types.Accelerometer, sample(types.Accelerometer, 20))

	m, ok := w.Newest(types.Accelerometer)
	if !ok {
		t.Fatal("Newest() should find pushed data")
	}
	if m.Timestamp != 20 {
		t.Errorf("Newest() timestamp = %d, want 20", m.Timestamp)
	}
	if w.Len(types.Accelerometer) != 2 {
		t.Errorf("Len() = %d, want 2 (peek must not remove)", w.Len(types.Accelerometer))
	}
}

func TestTrimWindowInvariant(t *testing.T) {
	tracked := []types.SensorType{types.Accelerometer, types.Gyroscope}

	tests := []struct {
		name    string
		latest  int64
		window  int64
		pushed  map[types.SensorType][]int64
		wantLen map[types.SensorType]int
	}{
		{
			name:   "trims across all types, not just the updated one",
			latest: 100,
			window: 30,
			pushed: map[types.SensorType][]int64{
				types.Accelerometer: {50, 69, 70, 100},
				types.Gyroscope:     {40, 80},
			},
			wantLen: map[types.SensorType]int{
				types.Accelerometer: 2,
				types.Gyroscope:     1,
			},
		},
		{
			name:   "boundary sample exactly at latest-window is retained",
			latest: 100,
			window: 30,
			pushed: map[types.SensorType][]int64{
				types.Accelerometer: {70},
			},
			wantLen: map[types.SensorType]int{
				types.Accelerometer: 1,
				types.Gyroscope:     0,
			},
		},
		{
			name:   "everything older than the window is dropped",
			latest: 1000,
			window: 1,
			pushed: map[types.SensorType][]int64{
				types.Accelerometer: {1, 2, 3},
				types.Gyroscope:     {4},
			},
			wantLen: map[types.SensorType]int{
				types.Accelerometer: 0,
				types.Gyroscope:     0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tracked)
			for typ, stamps := range tt.pushed {
				for _, ts := range stamps {
					w.Push(typ, sample(typ, ts))
				}
			}

			w.Trim(tt.latest, tt.window)

			for typ, want := range tt.wantLen {
				if got := w.Len(typ); got != want {
					t.Errorf("Len(%s) = %d, want %d", typ, got, want)
				}
				for _, m := range w.Samples(typ) {
					if m.Timestamp < tt.latest-tt.window {
						t.Errorf("retained %s sample at %d violates window [%d, ...]",
							typ, m.Timestamp, tt.latest-tt.window)
					}
				}
			}
		})
	}
}

func TestSamplesOrdered(t *testing.T) {
	w := New([]types.SensorType{types.Gyroscope})
	for _, ts := range []int64{1, 5, 9} {
		w.Push(types.Gyroscope, sample(types.Gyroscope, ts))
	}

	got := w.Samples(types.Gyroscope)
	if len(got) != 3 {
		t.Fatalf("Samples() len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp < got[i-1].Timestamp {
			t.Errorf("Samples() out of order at %d: %d < %d", i, got[i].Timestamp, got[i-1].Timestamp)
		}
	}
}

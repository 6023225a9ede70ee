package buffer

import (
	"github.com/motioncore/sensorsync/internal/types"
)

// Windowed holds one FIFO queue of measurements per tracked sensor type.
// Arrival order is assumed to be timestamp order per stream; the buffer
// never reorders. Memory is bounded by Trim, not by a fixed capacity.
type Windowed struct {
	queues map[types.SensorType][]types.Measurement
}

// New creates an empty windowed buffer for the given tracked types.
func New(tracked []types.SensorType) *Windowed {
	queues := make(map[types.SensorType][]types.Measurement, len(tracked))
	for _, t := range tracked {
		queues[t] = nil
	}
	return &Windowed{queues: queues}
}

// Push appends a measurement to the queue for the given type, creating
// the queue if it does not exist yet.
func (w *Windowed) Push(t types.SensorType, m types.Measurement) {
	w.queues[t] = append(w.queues[t], m)
}

// Trim discards, from the front of every tracked queue, each entry whose
// timestamp is older than latest minus windowNanos. After Trim every
// retained entry satisfies timestamp >= latest - windowNanos.
func (w *Windowed) Trim(latest, windowNanos int64) {
	cutoff := latest - windowNanos
	for t, q := range w.queues {
		i := 0
		for i < len(q) && q[i].Timestamp < cutoff {
			i++
		}
		if i > 0 {
			// Reuse the backing array so steady-state trimming does
			// not grow the allocation.
			w.queues[t] = append(q[:0], q[i:]...)
		}
	}
}

// Newest returns the most recently pushed measurement for the given
// type. A missing queue is equivalent to an empty one.
func (w *Windowed) Newest(t types.SensorType) (types.Measurement, bool) {
	q := w.queues[t]
	if len(q) == 0 {
		return types.Measurement{}, false
	}
	return q[len(q)-1], true
}

// Samples returns the retained measurements for the given type in
// insertion order. The returned slice is owned by the buffer and must
// not be mutated or retained by the caller.
func (w *Windowed) Samples(t types.SensorType) []types.Measurement {
	return w.queues[t]
}

// Len returns the number of retained measurements for the given type.
func (w *Windowed) Len(t types.SensorType) int {
	return len(w.queues[t])
}

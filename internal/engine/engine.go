package engine

import (
	"github.com/motioncore/sensorsync/internal/buffer"
	"github.com/motioncore/sensorsync/internal/types"
)

// maxFitSamples bounds the polynomial interpolation order: three points
// give a quadratic fit, which is enough for jittery sample alignment.
const maxFitSamples = 3

// Engine aligns the secondary streams to the primary stream's latest
// event timestamp and produces one SyncedMeasurement per attempt.
type Engine struct {
	buf         *buffer.Windowed
	primary     types.SensorType
	secondaries []types.SensorType
	interpolate bool
}

// New creates a sync engine over the given buffer. The primary type
// drives emission; every secondary must have at least one buffered
// sample for an attempt to succeed.
func New(buf *buffer.Windowed, primary types.SensorType, secondaries []types.SensorType, interpolate bool) *Engine {
	return &Engine{
		buf:         buf,
		primary:     primary,
		secondaries: secondaries,
		interpolate: interpolate,
	}
}

// TrySync attempts to build one synchronized measurement at the given
// target timestamp (the primary sample's event timestamp). It fails,
// with no side effects on the buffer, when any tracked stream has no
// buffered sample yet. Successful attempts never evict samples; window
// trimming is the only eviction.
func (e *Engine) TrySync(target int64) (types.SyncedMeasurement, bool) {
	primary, ok := e.buf.Newest(e.primary)
	if !ok {
		return types.SyncedMeasurement{}, false
	}
	for _, t := range e.secondaries {
		if _, ok := e.buf.Newest(t); !ok {
			return types.SyncedMeasurement{}, false
		}
	}

	out := types.SyncedMeasurement{
		Timestamp:    target,
		Measurements: make(map[types.SensorType]types.Measurement, len(e.secondaries)+1),
	}
	// The primary slot is the sample that triggered this attempt; it is
	// already at the target timestamp and is used verbatim.
	out.Measurements[e.primary] = primary

	for _, t := range e.secondaries {
		newest, _ := e.buf.Newest(t)
		if !e.interpolate {
			// Zero-order hold: keep the sample's true capture time.
			out.Measurements[t] = newest
			continue
		}
		out.Measurements[t] = e.interpolated(t, newest, target)
	}
	return out, true
}

// interpolated builds the secondary slot for the sync instant. With a
// single retained sample this is the sample itself with its timestamp
// rewritten to target; with more, a polynomial fit across the newest
// retained samples is evaluated at target.
func (e *Engine) interpolated(t types.SensorType, newest types.Measurement, target int64) types.Measurement {
	m := newest
	m.Timestamp = target

	samples := e.buf.Samples(t)
	if len(samples) < 2 {
		return m
	}
	points := samples
	if len(points) > maxFitSamples {
		points = points[len(points)-maxFitSamples:]
	}
	values, ok := fitAt(points, target, false)
	if !ok {
		return m
	}
	m.Values = values
	if m.HasBias {
		if bias, ok := fitAt(points, target, true); ok {
			m.Bias = bias
		}
	}
	return m
}

// fitAt evaluates the Lagrange polynomial through the given samples at
// the target timestamp, componentwise. It reports failure when two
// samples share a timestamp, in which case the caller falls back to the
// zero-order hold copy.
func fitAt(points []types.Measurement, target int64, bias bool) ([3]float64, bool) {
	var out [3]float64
	// Offset timestamps by the first point to keep the float64
	// arithmetic well conditioned for nanosecond clocks.
	t0 := points[0].Timestamp
	x := float64(target - t0)
	for i := range points {
		li := 1.0
		xi := float64(points[i].Timestamp - t0)
		for j := range points {
			if j == i {
				continue
			}
			xj := float64(points[j].Timestamp - t0)
			if xi == xj {
				return out, false
			}
			li *= (x - xj) / (xi - xj)
		}
		v := points[i].Values
		if bias {
			v = points[i].Bias
		}
		for k := 0; k < 3; k++ {
			out[k] += li * v[k]
		}
	}
	return out, true
}

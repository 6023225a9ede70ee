package source

import (
	"time"

	"github.com/motioncore/sensorsync/internal/types"
)

// Handler receives raw events and accuracy changes from a registered
// source. All deliveries for all sources of one service happen serially
// on a single goroutine; handlers need no internal locking.
type Handler interface {
	OnEvent(ev types.RawEvent)
	OnAccuracyChanged(sensor types.SensorInfo, rawAccuracy int)
}

// Source is one physical sensor stream.
type Source interface {
	// Identity returns the hardware identity reported with events.
	Identity() types.SensorInfo
	// Available reports whether the underlying sensor exists on this
	// device.
	Available() bool
	// Register attaches a handler at the requested sampling period and
	// reports whether registration succeeded.
	Register(h Handler, samplingPeriod time.Duration) bool
	// Unregister detaches the handler; no deliveries happen after it
	// returns.
	Unregister()
}

// Service models the platform sensor service: a reachability check plus
// source lookup per tracked type.
type Service interface {
	// Reachable reports whether the sensor service can be talked to at
	// all. Both start and stop of a collector are gated on it.
	Reachable() bool
	// Source returns the source for the given type, or nil when the
	// device has none.
	Source(t types.SensorType) Source
}

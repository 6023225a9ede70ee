package collector

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/motioncore/sensorsync/internal/buffer"
	"github.com/motioncore/sensorsync/internal/decoder"
	"github.com/motioncore/sensorsync/internal/engine"
	"github.com/motioncore/sensorsync/internal/source"
	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// Listener receives each synchronized measurement as it is emitted. It
// is invoked on the delivery goroutine and must not block.
type Listener func(types.SyncedMeasurement)

// AccuracyListener receives accuracy changes for one tracked sensor
// role.
type AccuracyListener func(t types.SensorType, accuracy types.Accuracy)

// Options configures a Collector.
type Options struct {
	// Primary is the tracked type whose events drive emission.
	Primary types.SensorType
	// Secondaries are the remaining tracked types, aligned to the
	// primary's timestamp at emission time.
	Secondaries []types.SensorType
	// WindowNanos bounds how old a buffered sample may be relative to
	// the latest observed event. Must be positive.
	WindowNanos int64
	// SamplingPeriod is the rate hint passed through to every source.
	SamplingPeriod time.Duration
	// Interpolate rewrites secondary timestamps to the sync instant
	// and, when history allows, fits the values to it; otherwise the
	// zero-order hold keeps each sample's true capture time.
	Interpolate bool
	// PlatformVersion gates which raw sensor type codes are decoded.
	PlatformVersion int
	// Listener, when set, is notified on every successful emission.
	Listener Listener
}

// Collector routes decoded events from one hardware source per tracked
// type into the sync engine and exposes the running/stopped state
// machine.
//
// Buffer and engine state is owned by the delivery goroutine: hardware
// events for every tracked sensor must arrive serially, and hosts that
// deliver on multiple goroutines must serialize externally. The state
// flag and emission counters are atomic so that status surfaces (the
// HTTP stats endpoint) may read them from other goroutines.
type Collector struct {
	svc  source.Service
	dec  *decoder.Decoder
	buf  *buffer.Windowed
	eng  *engine.Engine
	opts Options

	order      []types.SensorType
	registered map[types.SensorType]source.Source
	identities map[types.SensorInfo]types.SensorType

	listener     Listener
	accListeners map[types.SensorType]AccuracyListener

	running        atomic.Bool
	startTimestamp atomic.Int64
	processed      atomic.Uint64
	mostRecent     atomic.Int64
}

// New validates the configuration and creates a stopped collector.
// Configuration errors are rejected eagerly, never clamped.
func New(svc source.Service, opts Options) (*Collector, error) {
	if svc == nil {
		return nil, fmt.Errorf("sensor service is required")
	}
	if opts.WindowNanos <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", opts.WindowNanos)
	}
	if !opts.Primary.Valid() {
		return nil, fmt.Errorf("invalid primary sensor type: %q", opts.Primary)
	}
	seen := map[types.SensorType]struct{}{opts.Primary: {}}
	for _, t := range opts.Secondaries {
		if !t.Valid() {
			return nil, fmt.Errorf("invalid secondary sensor type: %q", t)
		}
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("duplicate tracked sensor type: %q", t)
		}
		seen[t] = struct{}{}
	}

	// Registration order is fixed: primary first, then secondaries in
	// configuration order.
	order := make([]types.SensorType, 0, len(opts.Secondaries)+1)
	order = append(order, opts.Primary)
	order = append(order, opts.Secondaries...)

	buf := buffer.New(order)
	return &Collector{
		svc:          svc,
		dec:          decoder.New(opts.PlatformVersion, order),
		buf:          buf,
		eng:          engine.New(buf, opts.Primary, opts.Secondaries, opts.Interpolate),
		opts:         opts,
		order:        order,
		listener:     opts.Listener,
		accListeners: make(map[types.SensorType]AccuracyListener),
	}, nil
}

// Start transitions the collector from Stopped to Running. It returns
// false, leaving the collector stopped and unregistered, when it is
// already running, the sensor service is unreachable, any required
// sensor is unavailable, or a registration fails. Registration is
// all-or-nothing: sources registered before a failure are rolled back.
//
// The start timestamp is taken from referenceTimestamp when given,
// otherwise from a monotonic clock snapshot, and is recorded regardless
// of whether the rest of the call succeeds.
func (c *Collector) Start(referenceTimestamp ...int64) bool {
	if c.running.Load() {
		return false
	}
	if len(referenceTimestamp) > 0 {
		c.startTimestamp.Store(referenceTimestamp[0])
	} else {
		c.startTimestamp.Store(time.Now().UnixNano())
	}

	if !c.svc.Reachable() {
		logger.Global.Warn("sensor service unreachable, collector not started")
		return false
	}
	sources := make(map[types.SensorType]source.Source, len(c.order))
	for _, t := range c.order {
		src := c.svc.Source(t)
		if src == nil || !src.Available() {
			logger.Global.Warn("required sensor unavailable", "sensor", string(t))
			return false
		}
		sources[t] = src
	}

	registered := make(map[types.SensorInfo]types.SensorType, len(c.order))
	for i, t := range c.order {
		src := sources[t]
		if !src.Register(c, c.opts.SamplingPeriod) {
			logger.Global.Warn("sensor registration failed, rolling back",
				"sensor", string(t))
			for _, prev := range c.order[:i] {
				sources[prev].Unregister()
			}
			return false
		}
		registered[src.Identity()] = t
	}

	c.registered = sources
	c.identities = registered
	c.running.Store(true)
	logger.Global.Info("collector started",
		"primary", string(c.opts.Primary),
		"tracked", len(c.order),
		"window_ns", c.opts.WindowNanos,
		"interpolate", c.opts.Interpolate)
	return true
}

// Stop unregisters every source and resets the emission counters. It is
// a no-op when the sensor service is unreachable. Buffered samples are
// retained; the window trims them as new events arrive after a restart.
func (c *Collector) Stop() {
	if !c.svc.Reachable() {
		return
	}
	for _, src := range c.registered {
		src.Unregister()
	}
	c.registered = nil
	c.identities = nil
	c.processed.Store(0)
	c.mostRecent.Store(0)
	c.running.Store(false)
	logger.Global.Info("collector stopped")
}

// OnEvent routes one raw event: decode, buffer, trim, and, for the
// primary stream only, attempt a synchronized emission. Undecodable
// events and failed attempts are absorbed silently.
func (c *Collector) OnEvent(ev types.RawEvent) {
	m, ok := c.dec.Decode(ev)
	if !ok {
		return
	}
	c.buf.Push(m.Type, m)
	c.buf.Trim(m.Timestamp, c.opts.WindowNanos)
	if m.Type != c.opts.Primary {
		return
	}
	synced, ok := c.eng.TrySync(m.Timestamp)
	if !ok {
		return
	}
	c.processed.Add(1)
	c.mostRecent.Store(m.Timestamp)
	if c.listener != nil {
		c.listener(synced)
	}
}

// OnAccuracyChanged resolves the reporting hardware identity to its
// tracked role and forwards the mapped accuracy to that role's
// listener. Unknown identities and unrecognized accuracy codes are
// ignored.
func (c *Collector) OnAccuracyChanged(sensor types.SensorInfo, rawAccuracy int) {
	t, ok := c.identities[sensor]
	if !ok {
		return
	}
	accuracy, ok := types.MapAccuracy(rawAccuracy)
	if !ok {
		return
	}
	if l := c.accListeners[t]; l != nil {
		l(t, accuracy)
	}
}

// SetListener replaces the measurement listener. A nil listener
// disables notification without affecting buffering or counters.
func (c *Collector) SetListener(l Listener) { c.listener = l }

// SetAccuracyListener replaces the accuracy listener for one tracked
// role.
func (c *Collector) SetAccuracyListener(t types.SensorType, l AccuracyListener) {
	c.accListeners[t] = l
}

// Running reports whether the collector is in the Running state. Safe
// to call from any goroutine.
func (c *Collector) Running() bool { return c.running.Load() }

// StartTimestamp returns the timestamp recorded by the most recent
// Start attempt, successful or not. Safe to call from any goroutine.
func (c *Collector) StartTimestamp() int64 { return c.startTimestamp.Load() }

// ProcessedCount returns the number of synchronized measurements
// emitted since the last start. Safe to call from any goroutine.
func (c *Collector) ProcessedCount() uint64 { return c.processed.Load() }

// MostRecentTimestamp returns the timestamp of the last emission, or 0.
// Safe to call from any goroutine.
func (c *Collector) MostRecentTimestamp() int64 { return c.mostRecent.Load() }

// Available reports whether the device has a usable source for the
// given tracked type.
func (c *Collector) Available(t types.SensorType) bool {
	if !c.svc.Reachable() {
		return false
	}
	src := c.svc.Source(t)
	return src != nil && src.Available()
}

// Tracked returns the tracked types in registration order.
func (c *Collector) Tracked() []types.SensorType {
	out := make([]types.SensorType, len(c.order))
	copy(out, c.order)
	return out
}

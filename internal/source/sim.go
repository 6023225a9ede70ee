package source

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// SimService is an in-process sensor service producing synthetic
// waveforms, used to run the pipeline end-to-end without hardware.
// Every registered source feeds a single dispatch goroutine so that
// handlers observe the serial delivery the collector expects.
type SimService struct {
	mu      sync.Mutex
	sources map[types.SensorType]*SimSource
	events  chan func()
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSimService creates a simulated service with one source per entry
// in rates (sensor type -> sampling rate in Hz). Types absent from
// rates have no source and report as unavailable.
func NewSimService(rates map[types.SensorType]float64) *SimService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SimService{
		sources: make(map[types.SensorType]*SimSource, len(rates)),
		events:  make(chan func(), 1024),
		cancel:  cancel,
	}
	for t, hz := range rates {
		s.sources[t] = newSimSource(s, t, hz)
	}
	s.wg.Add(1)
	go s.dispatch(ctx)
	return s
}

// Reachable always succeeds for the simulator.
func (s *SimService) Reachable() bool { return true }

// Source returns the simulated source for the given type, or nil.
func (s *SimService) Source(t types.SensorType) Source {
	src, ok := s.sources[t]
	if !ok {
		// A typed nil would still compare non-nil as an interface.
		return nil
	}
	return src
}

// Close stops all generators and the dispatch goroutine.
func (s *SimService) Close() {
	for _, src := range s.sources {
		src.Unregister()
	}
	s.cancel()
	s.wg.Wait()
}

func (s *SimService) dispatch(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.events:
			fn()
		}
	}
}

// deliver enqueues a callback for serial execution, dropping it when
// the dispatch queue is saturated.
func (s *SimService) deliver(fn func()) {
	select {
	case s.events <- fn:
	default:
		logger.Global.Warn("simulated delivery queue full, dropping event")
	}
}

// SimSource generates a deterministic sinusoid per axis at a fixed
// rate. Its identity carries the raw platform type code so decoded
// events classify back to the simulated type.
type SimSource struct {
	svc  *SimService
	info types.SensorInfo
	kind types.SensorType
	hz   float64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSimSource(svc *SimService, t types.SensorType, hz float64) *SimSource {
	return &SimSource{
		svc: svc,
		info: types.SensorInfo{
			Name:     "sim-" + string(t),
			Vendor:   "sensorsync",
			TypeCode: simTypeCode(t),
		},
		kind: t,
		hz:   hz,
	}
}

// simTypeCode maps a sensor type back to its calibrated raw platform
// code so decoded events classify to the simulated type.
func simTypeCode(t types.SensorType) int {
	switch t {
	case types.Accelerometer:
		return 1
	case types.Magnetometer:
		return 2
	case types.Gyroscope:
		return 4
	case types.Gravity:
		return 9
	}
	return 0
}

func (s *SimSource) Identity() types.SensorInfo { return s.info }

func (s *SimSource) Available() bool { return true }

func (s *SimSource) Register(h Handler, samplingPeriod time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return false
	}
	period := samplingPeriod
	if s.hz > 0 {
		period = time.Duration(float64(time.Second) / s.hz)
	}
	if period <= 0 {
		period = 10 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx, h, period)
	return true
}

func (s *SimSource) Unregister() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
}

func (s *SimSource) run(ctx context.Context, h Handler, period time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	start := time.Now()
	reportedAccuracy := false
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(start).Seconds()
			ev := types.RawEvent{
				Sensor:    &s.info,
				Timestamp: now.UnixNano(),
				Accuracy:  3,
				Values:    waveform(s.kind, elapsed),
			}
			s.svc.deliver(func() { h.OnEvent(ev) })
			if !reportedAccuracy {
				reportedAccuracy = true
				info := s.info
				s.svc.deliver(func() { h.OnAccuracyChanged(info, 3) })
			}
		}
	}
}

// waveform produces three phase-shifted sinusoids roughly shaped like
// the simulated sensor's physical signal.
func waveform(t types.SensorType, elapsed float64) []float64 {
	var amp, freq, offset float64
	switch t {
	case types.Accelerometer, types.Gravity:
		amp, freq, offset = 0.8, 0.5, 9.81
	case types.Gyroscope:
		amp, freq, offset = 0.3, 1.2, 0
	case types.Magnetometer:
		amp, freq, offset = 5.0, 0.1, 42.0
	default:
		amp, freq, offset = 1.0, 1.0, 0
	}
	out := make([]float64, 3)
	for i := range out {
		phase := float64(i) * 2 * math.Pi / 3
		out[i] = offset + amp*math.Sin(2*math.Pi*freq*elapsed+phase)
	}
	return out
}

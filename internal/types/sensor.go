package types

// SensorType identifies one tracked sensor stream. The set of tracked
// types is fixed per collector instance; one of them is designated the
// primary stream whose events drive synchronized emission.
type SensorType string

const (
	Accelerometer SensorType = "accelerometer"
	Gyroscope     SensorType = "gyroscope"
	Gravity       SensorType = "gravity"
	Magnetometer  SensorType = "magnetometer"
)

// Valid reports whether t is one of the recognized sensor types.
func (t SensorType) Valid() bool {
	switch t {
	case Accelerometer, Gyroscope, Gravity, Magnetometer:
		return true
	}
	return false
}

// Accuracy is the reported confidence level of a sensor stream.
type Accuracy int

const (
	AccuracyUnreliable Accuracy = iota
	AccuracyLow
	AccuracyMedium
	AccuracyHigh
)

// MapAccuracy converts a raw platform accuracy code into an Accuracy.
// Unrecognized codes are rejected rather than clamped.
func MapAccuracy(raw int) (Accuracy, bool) {
	switch raw {
	case 0:
		return AccuracyUnreliable, true
	case 1:
		return AccuracyLow, true
	case 2:
		return AccuracyMedium, true
	case 3:
		return AccuracyHigh, true
	}
	return 0, false
}

func (a Accuracy) String() string {
	switch a {
	case AccuracyUnreliable:
		return "unreliable"
	case AccuracyLow:
		return "low"
	case AccuracyMedium:
		return "medium"
	case AccuracyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Measurement is a single decoded sensor reading. It is a value type:
// copies are independent and mutating one never affects another.
type Measurement struct {
	Type      SensorType `json:"type"`
	Timestamp int64      `json:"timestamp"` // monotonic, nanoseconds
	Accuracy  Accuracy   `json:"accuracy"`
	Values    [3]float64 `json:"values"`
	Bias      [3]float64 `json:"bias,omitempty"`
	HasBias   bool       `json:"has_bias,omitempty"`
}

// SyncedMeasurement is the composite emitted once every tracked stream
// could be aligned to a common instant. Timestamp always equals the
// primary sample's event timestamp that triggered the emission. The
// measurement map is built fresh per emission and never aliases
// buffer-owned storage, so consumers may retain it indefinitely.
type SyncedMeasurement struct {
	Timestamp    int64                      `json:"timestamp"`
	Measurements map[SensorType]Measurement `json:"measurements"`
}

// SensorInfo is the hardware identity reported by an event source.
type SensorInfo struct {
	Name     string `json:"name"`
	Vendor   string `json:"vendor"`
	TypeCode int    `json:"type_code"`
}

// RawEvent is one undecoded platform event as delivered by a hardware
// event source. Sensor is nil when the event carries no identity.
type RawEvent struct {
	Sensor    *SensorInfo
	Timestamp int64
	Accuracy  int
	Values    []float64
}

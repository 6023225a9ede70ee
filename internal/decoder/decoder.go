package decoder

import (
	"github.com/motioncore/sensorsync/internal/types"
)

// Raw platform sensor type codes. The uncalibrated variants report a
// 3-axis value plus a 3-axis bias estimate.
const (
	codeAccelerometer      = 1
	codeMagnetometer       = 2
	codeGyroscope          = 4
	codeGravity            = 9
	codeMagnetometerUncal  = 14
	codeGyroscopeUncal     = 16
	codeAccelerometerUncal = 35
)

// Platform versions that introduced the gated codes.
const (
	versionGravity           = 9
	versionUncalibrated      = 18
	versionAccelUncalibrated = 26
)

// Classify maps a raw platform sensor type code to a SensorType. It is
// pure and total: codes that do not exist on the given platform version
// are reported as unrecognized, never as a different type.
func Classify(code, platformVersion int) (types.SensorType, bool) {
	switch code {
	case codeAccelerometer:
		return types.Accelerometer, true
	case codeMagnetometer:
		return types.Magnetometer, true
	case codeGyroscope:
		return types.Gyroscope, true
	case codeGravity:
		if platformVersion >= versionGravity {
			return types.Gravity, true
		}
	case codeMagnetometerUncal:
		if platformVersion >= versionUncalibrated {
			return types.Magnetometer, true
		}
	case codeGyroscopeUncal:
		if platformVersion >= versionUncalibrated {
			return types.Gyroscope, true
		}
	case codeAccelerometerUncal:
		if platformVersion >= versionAccelUncalibrated {
			return types.Accelerometer, true
		}
	}
	return "", false
}

// hasBias reports whether the raw code carries a bias triple after the
// value triple.
func hasBias(code int) bool {
	switch code {
	case codeMagnetometerUncal, codeGyroscopeUncal, codeAccelerometerUncal:
		return true
	}
	return false
}

// Decoder converts raw platform events into typed measurements for one
// collector's tracked type set.
type Decoder struct {
	platformVersion int
	tracked         map[types.SensorType]struct{}
}

// New creates a decoder that recognizes only the given tracked types.
func New(platformVersion int, tracked []types.SensorType) *Decoder {
	set := make(map[types.SensorType]struct{}, len(tracked))
	for _, t := range tracked {
		set[t] = struct{}{}
	}
	return &Decoder{platformVersion: platformVersion, tracked: set}
}

// Decode converts one raw event into a measurement. It fails when the
// event carries no hardware identity, its raw type code is unrecognized
// or untracked, its accuracy code is unknown, or it carries fewer value
// components than the type requires.
func (d *Decoder) Decode(ev types.RawEvent) (types.Measurement, bool) {
	if ev.Sensor == nil {
		return types.Measurement{}, false
	}
	t, ok := Classify(ev.Sensor.TypeCode, d.platformVersion)
	if !ok {
		return types.Measurement{}, false
	}
	if _, ok := d.tracked[t]; !ok {
		return types.Measurement{}, false
	}
	accuracy, ok := types.MapAccuracy(ev.Accuracy)
	if !ok {
		return types.Measurement{}, false
	}

	withBias := hasBias(ev.Sensor.TypeCode)
	need := 3
	if withBias {
		need = 6
	}
	if len(ev.Values) < need {
		return types.Measurement{}, false
	}

	m := types.Measurement{
		Type:      t,
		Timestamp: ev.Timestamp,
		Accuracy:  accuracy,
		HasBias:   withBias,
	}
	copy(m.Values[:], ev.Values[:3])
	if withBias {
		copy(m.Bias[:], ev.Values[3:6])
	}
	return m, true
}

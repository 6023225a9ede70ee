package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// Level represents the severity of an alert
type Level int

const (
	// InfoLevel represents information level alerts
	InfoLevel Level = iota
	// WarnLevel represents warning level alerts
	WarnLevel
	// ErrorLevel represents error level alerts
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Alert describes a sensor health condition worth reporting: a stream
// whose accuracy degraded, or a collector that failed to start.
type Alert struct {
	Level     Level            `json:"level"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Sensor    types.SensorType `json:"sensor,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Alerter delivers alerts to one notification target.
type Alerter interface {
	Send(ctx context.Context, a *Alert) error
	Close() error
}

// Manager fans one alert out to every registered alerter.
type Manager struct {
	alerters []Alerter
}

func NewManager() *Manager {
	return &Manager{alerters: make([]Alerter, 0)}
}

// Register adds an alerter to the manager.
func (m *Manager) Register(a Alerter) {
	m.alerters = append(m.alerters, a)
}

// Send delivers the alert to all registered alerters, returning the
// last error encountered.
func (m *Manager) Send(ctx context.Context, a *Alert) error {
	if len(m.alerters) == 0 {
		return fmt.Errorf("no alerters registered")
	}
	var lastErr error
	for _, alerter := range m.alerters {
		if err := alerter.Send(ctx, a); err != nil {
			lastErr = fmt.Errorf("failed to send alert: %w", err)
		}
	}
	return lastErr
}

// Close closes all registered alerters.
func (m *Manager) Close() error {
	var lastErr error
	for _, alerter := range m.alerters {
		if err := alerter.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close alerter: %w", err)
		}
	}
	return lastErr
}

// AccuracyDegraded builds the alert raised when a tracked stream drops
// to low or unreliable accuracy.
func AccuracyDegraded(t types.SensorType, accuracy types.Accuracy) *Alert {
	return &Alert{
		Level:     WarnLevel,
		Title:     "sensor accuracy degraded",
		Message:   fmt.Sprintf("%s reported %s accuracy", t, accuracy),
		Sensor:    t,
		Timestamp: time.Now(),
	}
}

// StartFailed builds the alert raised when the collector could not
// transition to running.
func StartFailed(primary types.SensorType) *Alert {
	return &Alert{
		Level:     ErrorLevel,
		Title:     "collector start failed",
		Message:   fmt.Sprintf("could not register sensors for primary %s", primary),
		Sensor:    primary,
		Timestamp: time.Now(),
	}
}

// LogAlerter writes alerts to the global structured logger.
type LogAlerter struct{}

func NewLogAlerter() *LogAlerter { return &LogAlerter{} }

func (a *LogAlerter) Send(ctx context.Context, alert *Alert) error {
	attrs := []any{
		"title", alert.Title,
		"sensor", string(alert.Sensor),
		"message", alert.Message,
	}
	switch alert.Level {
	case ErrorLevel:
		logger.Global.Error("alert", attrs...)
	case WarnLevel:
		logger.Global.Warn("alert", attrs...)
	default:
		logger.Global.Info("alert", attrs...)
	}
	return nil
}

func (a *LogAlerter) Close() error { return nil }

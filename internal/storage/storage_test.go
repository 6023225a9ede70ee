package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/motioncore/sensorsync/internal/config"
	"github.com/motioncore/sensorsync/internal/types"
)

func testMeasurement() types.SyncedMeasurement {
	return types.SyncedMeasurement{
		Timestamp: 1234567890,
		Measurements: map[types.SensorType]types.Measurement{
			types.Gyroscope: {
				Type:      types.Gyroscope,
				Timestamp: 1234567890,
				Accuracy:  types.AccuracyHigh,
				Values:    [3]float64{0.1, 0.2, 0.3},
			},
			types.Accelerometer: {
				Type:      types.Accelerometer,
				Timestamp: 1234567800,
				Accuracy:  types.AccuracyMedium,
				Values:    [3]float64{1, 2, 3},
			},
		},
	}
}

func TestEncodeNDJSON(t *testing.T) {
	data, err := Encode(testMeasurement(), types.FormatNDJSON, map[string]string{"host": "test-host"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("NDJSON records must be newline terminated")
	}

	var rec map[string]interface{}
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Encode() produced invalid JSON: %v", err)
	}
	if rec["timestamp"] != float64(1234567890) {
		t.Errorf("timestamp = %v, want 1234567890", rec["timestamp"])
	}
	if _, ok := rec["@timestamp"]; !ok {
		t.Error("record should carry a wall-clock @timestamp")
	}
	extra, ok := rec["extra"].(map[string]interface{})
	if !ok || extra["host"] != "test-host" {
		t.Errorf("extra fields missing from record: %v", rec["extra"])
	}
	measurements, ok := rec["measurements"].(map[string]interface{})
	if !ok || len(measurements) != 2 {
		t.Errorf("measurements = %v, want both tracked slots", rec["measurements"])
	}
}

func TestEncodeText(t *testing.T) {
	data, err := Encode(testMeasurement(), types.FormatText, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	line := string(data)
	if !strings.HasPrefix(line, "[1234567890]") {
		t.Errorf("text record should start with the unified timestamp, got %q", line)
	}
	if !strings.Contains(line, "gyroscope@1234567890") {
		t.Errorf("text record should include the gyroscope slot, got %q", line)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(testMeasurement(), "xml", nil); err == nil {
		t.Error("Encode() should reject unknown formats")
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synced.ndjson")
	store, err := NewStorage(types.StorageConfig{
		Type:     types.OutputFile,
		Format:   types.FormatNDJSON,
		FilePath: path,
		MaxSize:  10,
	})
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}

	if err := store.Store(testMeasurement()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	var rec map[string]interface{}
	if err := json.Unmarshal(content, &rec); err != nil {
		t.Fatalf("stored record is not valid JSON: %v", err)
	}
	if rec["timestamp"] != float64(1234567890) {
		t.Errorf("stored timestamp = %v, want 1234567890", rec["timestamp"])
	}
}

func TestUnsupportedOutputType(t *testing.T) {
	if _, err := NewStorage(types.StorageConfig{Type: "carrier-pigeon"}); err == nil {
		t.Error("NewStorage() should reject unknown output types")
	}
}

func TestProcessEventsDrainsChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synced.ndjson")
	store, err := NewStorage(types.StorageConfig{
		Type:     types.OutputFile,
		Format:   types.FormatNDJSON,
		FilePath: path,
		MaxSize:  10,
	})
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	defer store.Close()

	ch := make(chan types.SyncedMeasurement, 3)
	for i := 0; i < 3; i++ {
		ch <- testMeasurement()
	}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.ProcessEvents(ctx, ch); err != nil {
		t.Fatalf("ProcessEvents() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	lines := strings.Count(string(content), "\n")
	if lines != 3 {
		t.Errorf("stored %d records, want 3", lines)
	}
}

func kafkaTestConfig() (types.StorageConfig, config.KafkaConfig) {
	return types.StorageConfig{
			Type:   types.OutputKafka,
			Format: types.FormatJSON,
			ExtraFields: map[string]string{
				"host":    "test-host",
				"service": "sensorsync-test",
			},
		}, config.KafkaConfig{
			Enabled:      true,
			Brokers:      []string{"localhost:9092"},
			Topic:        "sensorsync-test",
			ClientID:     "sensorsync-test",
			Compression:  "gzip",
			BatchSize:    10,
			BatchBytes:   1048576,
			BatchTimeout: 1000,
			WriteTimeout: 5,
			Retries:      1,
		}
}

func TestKafkaStorageCreation(t *testing.T) {
	cfg, kcfg := kafkaTestConfig()

	store, err := NewKafkaStorage(cfg, kcfg)
	if err != nil {
		t.Fatalf("NewKafkaStorage() error = %v", err)
	}
	if store == nil {
		t.Fatal("kafka storage should not be nil")
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestKafkaStorageSASLValidation(t *testing.T) {
	cfg, kcfg := kafkaTestConfig()
	kcfg.SASL = config.SASLConfig{
		Enabled:   true,
		Mechanism: "DIGEST-MD5",
		Username:  "user",
		Password:  "pass",
	}

	if _, err := NewKafkaStorage(cfg, kcfg); err == nil {
		t.Error("NewKafkaStorage() should reject unsupported SASL mechanisms")
	}

	kcfg.SASL.Mechanism = "SCRAM-SHA-256"
	store, err := NewKafkaStorage(cfg, kcfg)
	if err != nil {
		t.Fatalf("NewKafkaStorage() with SCRAM error = %v", err)
	}
	store.Close()
}

func TestManagerPicksKafkaSink(t *testing.T) {
	cfg, kcfg := kafkaTestConfig()

	m, err := NewManager(cfg, kcfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if _, ok := m.Storage().(*KafkaStorage); !ok {
		t.Errorf("Storage() = %T, want *KafkaStorage", m.Storage())
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestManagerProcessing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synced.ndjson")
	m, err := NewManager(types.StorageConfig{
		Type:     types.OutputFile,
		Format:   types.FormatNDJSON,
		FilePath: path,
		MaxSize:  10,
	}, config.KafkaConfig{})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	ch := make(chan types.SyncedMeasurement, 1)
	m.StartProcessing(ch)
	ch <- testMeasurement()

	// Give the background goroutine a moment to drain.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil || len(content) == 0 {
		t.Errorf("manager should have persisted the measurement, err = %v", err)
	}
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// Storage persists synchronized measurements to one configured sink.
type Storage interface {
	// Store writes one synchronized measurement.
	Store(sm types.SyncedMeasurement) error
	// ProcessEvents drains the channel into the sink until the context
	// is cancelled or the channel closes.
	ProcessEvents(ctx context.Context, ch <-chan types.SyncedMeasurement) error
	// Close releases the sink.
	Close() error
}

// record is the stored representation of one synchronized measurement.
type record struct {
	StoredAt     string                                 `json:"@timestamp"`
	Timestamp    int64                                  `json:"timestamp"`
	Measurements map[types.SensorType]types.Measurement `json:"measurements"`
	Extra        map[string]string                      `json:"extra,omitempty"`
}

// Encode serializes one synchronized measurement in the given format,
// one line per record.
func Encode(sm types.SyncedMeasurement, format types.StorageFormat, extra map[string]string) ([]byte, error) {
	switch format {
	case types.FormatJSON, types.FormatNDJSON:
		data, err := json.Marshal(record{
			StoredAt:     time.Now().Format(time.RFC3339Nano),
			Timestamp:    sm.Timestamp,
			Measurements: sm.Measurements,
			Extra:        extra,
		})
		if err != nil {
			return nil, fmt.Errorf("json serialization failed: %w", err)
		}
		return append(data, '\n'), nil
	case types.FormatText:
		var b strings.Builder
		fmt.Fprintf(&b, "[%d]", sm.Timestamp)
		for t, m := range sm.Measurements {
			fmt.Fprintf(&b, " %s@%d=(%.6f,%.6f,%.6f)",
				t, m.Timestamp, m.Values[0], m.Values[1], m.Values[2])
		}
		b.WriteByte('\n')
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("unsupported storage format: %s", format)
	}
}

// BaseStorage writes encoded records to an io.Writer sink.
type BaseStorage struct {
	config types.StorageConfig
	writer io.Writer
	closer io.Closer
}

// NewStorage creates a file, stdout, or socket sink from configuration.
func NewStorage(cfg types.StorageConfig) (Storage, error) {
	s := &BaseStorage{config: cfg}

	switch cfg.Type {
	case types.OutputFile:
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		s.writer = fileWriter
		s.closer = fileWriter
	case types.OutputStdout:
		s.writer = os.Stdout
	case types.OutputSocket:
		address := net.JoinHostPort(cfg.RemoteAddr, fmt.Sprintf("%d", cfg.RemotePort))
		conn, err := net.Dial("tcp", address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage endpoint: %w", err)
		}
		s.writer = conn
		s.closer = conn
	default:
		return nil, fmt.Errorf("unsupported output type: %s", cfg.Type)
	}

	return s, nil
}

func (s *BaseStorage) Store(sm types.SyncedMeasurement) error {
	data, err := Encode(sm, s.config.Format, s.config.ExtraFields)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (s *BaseStorage) ProcessEvents(ctx context.Context, ch <-chan types.SyncedMeasurement) error {
	return processEvents(ctx, ch, s)
}

func (s *BaseStorage) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func processEvents(ctx context.Context, ch <-chan types.SyncedMeasurement, s Storage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sm, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Store(sm); err != nil {
				logger.Global.Error("failed to store synchronized measurement",
					"error", err,
					"timestamp", sm.Timestamp)
			}
		}
	}
}

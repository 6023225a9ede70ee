package storage

import (
	"context"

	"github.com/motioncore/sensorsync/internal/config"
	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// Manager owns the storage lifecycle: it picks the sink from
// configuration, drains the emission channel into it, and tears both
// down on Stop.
type Manager struct {
	store  Storage
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates the configured sink. Kafka output requires the
// kafka section to be enabled as well.
func NewManager(cfg types.StorageConfig, kcfg config.KafkaConfig) (*Manager, error) {
	var store Storage
	var err error

	if cfg.Type == types.OutputKafka {
		store, err = NewKafkaStorage(cfg, kcfg)
	} else {
		store, err = NewStorage(cfg)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger.Global.Info("storage initialized",
		"type", string(cfg.Type),
		"format", string(cfg.Format))
	return &Manager{store: store, ctx: ctx, cancel: cancel}, nil
}

// Storage returns the underlying sink.
func (m *Manager) Storage() Storage { return m.store }

// StartProcessing drains the channel into the sink on a background
// goroutine until Stop is called or the channel closes.
func (m *Manager) StartProcessing(ch <-chan types.SyncedMeasurement) {
	go func() {
		if err := m.store.ProcessEvents(m.ctx, ch); err != nil && err != context.Canceled {
			logger.Global.Error("storage processing stopped", "error", err)
		}
	}()
}

// Stop cancels processing and closes the sink.
func (m *Manager) Stop() error {
	m.cancel()
	if err := m.store.Close(); err != nil {
		logger.Global.Error("failed to close storage", "error", err)
		return err
	}
	return nil
}

package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/motioncore/sensorsync/internal/config"
	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// KafkaStorage produces synchronized measurements onto a Kafka topic.
type KafkaStorage struct {
	config types.StorageConfig
	writer *kafka.Writer
}

// NewKafkaStorage builds a Kafka producer sink from configuration.
func NewKafkaStorage(cfg types.StorageConfig, kcfg config.KafkaConfig) (*KafkaStorage, error) {
	transport := &kafka.Transport{
		ClientID: kcfg.ClientID,
	}

	if kcfg.SASL.Enabled {
		mechanism, err := saslMechanism(kcfg.SASL)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
	}

	if kcfg.TLS.Enabled {
		tlsConfig, err := tlsConfig(kcfg.TLS)
		if err != nil {
			return nil, err
		}
		transport.TLS = tlsConfig
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(kcfg.Brokers...),
		Topic:        kcfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		Compression:  compression(kcfg.Compression),
		BatchSize:    kcfg.BatchSize,
		BatchBytes:   int64(kcfg.BatchBytes),
		BatchTimeout: time.Duration(kcfg.BatchTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(kcfg.WriteTimeout) * time.Second,
		MaxAttempts:  kcfg.Retries,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	logger.Global.Info("kafka sink initialized",
		"brokers", kcfg.Brokers,
		"topic", kcfg.Topic,
		"compression", kcfg.Compression)

	return &KafkaStorage{config: cfg, writer: writer}, nil
}

func saslMechanism(cfg config.SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}

func tlsConfig(cfg config.TLSConfig) (*tls.Config, error) {
	tc := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load kafka client certificate: %w", err)
		}
		tc.Certificates = []tls.Certificate{cert}
	}
	if cfg.CAFile != "" {
		ca, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read kafka CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("failed to parse kafka CA file: %s", cfg.CAFile)
		}
		tc.RootCAs = pool
	}
	return tc, nil
}

func compression(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}

func (s *KafkaStorage) Store(sm types.SyncedMeasurement) error {
	data, err := Encode(sm, s.config.Format, s.config.ExtraFields)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(sm.Timestamp, 10)),
		Value: data,
	}
	if err := s.writer.WriteMessages(context.Background(), msg); err != nil {
		return fmt.Errorf("failed to produce record: %w", err)
	}
	return nil
}

func (s *KafkaStorage) ProcessEvents(ctx context.Context, ch <-chan types.SyncedMeasurement) error {
	return processEvents(ctx, ch, s)
}

func (s *KafkaStorage) Close() error {
	return s.writer.Close()
}

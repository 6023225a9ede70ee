package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
	"github.com/motioncore/sensorsync/pkg/utils"
)

type Config struct {
	Collector CollectorConfig `toml:"collector"`

	Simulator struct {
		Enabled bool               `toml:"enabled"`
		RatesHz map[string]float64 `toml:"rates_hz"`
	} `toml:"simulator"`

	HttpServer struct {
		Enabled bool   `toml:"enabled"`
		Port    int    `toml:"port"`
		Host    string `toml:"host"`
	} `toml:"http_server"`

	Log logger.Config `toml:"log"`

	Storage StorageConfig `toml:"storage"`

	Kafka KafkaConfig `toml:"kafka"`
}

// CollectorConfig configures the synchronization core.
type CollectorConfig struct {
	WindowNanos          int64    `toml:"window_ns"`
	Primary              string   `toml:"primary"`
	Secondaries          []string `toml:"secondaries"`
	Interpolation        bool     `toml:"interpolation"`
	SamplingPeriodMicros int      `toml:"sampling_period_us"`
	PlatformVersion      int      `toml:"platform_version"`
}

// Tracked returns the primary followed by the secondaries as typed
// sensor identifiers.
func (cc *CollectorConfig) Tracked() []types.SensorType {
	out := make([]types.SensorType, 0, len(cc.Secondaries)+1)
	out = append(out, types.SensorType(cc.Primary))
	for _, s := range cc.Secondaries {
		out = append(out, types.SensorType(s))
	}
	return out
}

// StorageConfig defines sink-related configuration
type StorageConfig struct {
	Enabled     bool              `toml:"enabled"`
	Type        string            `toml:"type"`
	Format      string            `toml:"format"`
	FilePath    string            `toml:"file_path"`
	MaxSize     int               `toml:"max_size"`
	MaxAge      int               `toml:"max_age"`
	MaxBackups  int               `toml:"max_backups"`
	Compress    bool              `toml:"compress"`
	RemoteAddr  string            `toml:"remote_addr"`
	RemotePort  int               `toml:"remote_port"`
	ExtraFields map[string]string `toml:"extra_fields"`
}

// KafkaConfig configures the Kafka producer sink
type KafkaConfig struct {
	Enabled      bool       `toml:"enabled"`
	Brokers      []string   `toml:"brokers"`
	Topic        string     `toml:"topic"`
	ClientID     string     `toml:"client_id"`
	Compression  string     `toml:"compression"` // none, gzip, snappy, lz4, zstd
	BatchSize    int        `toml:"batch_size"`
	BatchBytes   int        `toml:"batch_bytes"`
	BatchTimeout int        `toml:"batch_timeout"` // milliseconds
	WriteTimeout int        `toml:"write_timeout"` // seconds
	Retries      int        `toml:"retries"`
	SASL         SASLConfig `toml:"sasl"`
	TLS          TLSConfig  `toml:"tls"`
}

// SASLConfig configures Kafka SASL authentication
type SASLConfig struct {
	Enabled   bool   `toml:"enabled"`
	Mechanism string `toml:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// TLSConfig configures Kafka TLS
type TLSConfig struct {
	Enabled            bool   `toml:"enabled"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	CAFile             string `toml:"ca_file"`
}

// ToStorageConfig converts the section into the storage module's typed
// configuration.
func (sc *StorageConfig) ToStorageConfig() (types.StorageConfig, error) {
	cfg := types.StorageConfig{
		FilePath:    sc.FilePath,
		MaxSize:     sc.MaxSize,
		MaxAge:      sc.MaxAge,
		MaxBackups:  sc.MaxBackups,
		Compress:    sc.Compress,
		RemoteAddr:  sc.RemoteAddr,
		RemotePort:  sc.RemotePort,
		ExtraFields: sc.ExtraFields,
	}

	switch sc.Type {
	case "file":
		cfg.Type = types.OutputFile
	case "stdout":
		cfg.Type = types.OutputStdout
	case "socket":
		cfg.Type = types.OutputSocket
	case "kafka":
		cfg.Type = types.OutputKafka
	default:
		return cfg, fmt.Errorf("unknown storage type: %s", sc.Type)
	}

	switch sc.Format {
	case "json":
		cfg.Format = types.FormatJSON
	case "ndjson":
		cfg.Format = types.FormatNDJSON
	case "text":
		cfg.Format = types.FormatText
	default:
		return cfg, fmt.Errorf("unknown storage format: %s", sc.Format)
	}

	return cfg, nil
}

func Load(path string) (*Config, error) {
	var config Config

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Collector defaults
	if config.Collector.WindowNanos == 0 {
		config.Collector.WindowNanos = 100_000_000 // 100ms lookback
	}
	if config.Collector.SamplingPeriodMicros == 0 {
		config.Collector.SamplingPeriodMicros = 5000
	}
	if config.Collector.PlatformVersion == 0 {
		config.Collector.PlatformVersion = 33
	}

	// Storage defaults
	if config.Storage.MaxSize == 0 {
		config.Storage.MaxSize = 100
	}
	if config.Storage.MaxAge == 0 {
		config.Storage.MaxAge = 7
	}
	if config.Storage.MaxBackups == 0 {
		config.Storage.MaxBackups = 5
	}
	if config.Storage.FilePath == "" {
		config.Storage.FilePath = "/var/log/sensorsync/synced.log"
	}
	if config.Storage.Enabled {
		if config.Storage.Type == "" {
			config.Storage.Type = "file"
		}
		if config.Storage.Format == "" {
			config.Storage.Format = "ndjson"
		}
		if config.Storage.ExtraFields == nil {
			config.Storage.ExtraFields = make(map[string]string)
		}
		if config.Storage.ExtraFields["host"] == "" {
			if hostname, err := utils.GetHostname(); err == nil {
				config.Storage.ExtraFields["host"] = hostname
			} else {
				config.Storage.ExtraFields["host"] = "localhost"
			}
		}
	}

	// HTTP server defaults
	if config.HttpServer.Enabled && config.HttpServer.Port == 0 {
		config.HttpServer.Port = 8080
	}
	if config.HttpServer.Host == "" {
		config.HttpServer.Host = "0.0.0.0"
	}

	// Kafka defaults
	if config.Kafka.Enabled {
		if config.Kafka.ClientID == "" {
			config.Kafka.ClientID = "sensorsync-producer"
		}
		if config.Kafka.Compression == "" {
			config.Kafka.Compression = "gzip"
		}
		if config.Kafka.BatchSize == 0 {
			config.Kafka.BatchSize = 100
		}
		if config.Kafka.BatchBytes == 0 {
			config.Kafka.BatchBytes = 1048576
		}
		if config.Kafka.BatchTimeout == 0 {
			config.Kafka.BatchTimeout = 1000
		}
		if config.Kafka.WriteTimeout == 0 {
			config.Kafka.WriteTimeout = 10
		}
		if config.Kafka.Retries == 0 {
			config.Kafka.Retries = 3
		}
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(config *Config) error {
	if config.Collector.WindowNanos <= 0 {
		return fmt.Errorf("collector window must be positive, got %d", config.Collector.WindowNanos)
	}
	if config.Collector.Primary == "" {
		return fmt.Errorf("collector primary sensor not specified")
	}
	if !types.SensorType(config.Collector.Primary).Valid() {
		return fmt.Errorf("unknown primary sensor type: %s", config.Collector.Primary)
	}
	for _, s := range config.Collector.Secondaries {
		if !types.SensorType(s).Valid() {
			return fmt.Errorf("unknown secondary sensor type: %s", s)
		}
		if s == config.Collector.Primary {
			return fmt.Errorf("sensor %s listed as both primary and secondary", s)
		}
	}

	if config.Storage.Enabled {
		if config.Storage.Type == "socket" && config.Storage.RemoteAddr == "" {
			return fmt.Errorf("storage type is socket but remote_addr not specified")
		}
		if config.Storage.Type == "kafka" && !config.Kafka.Enabled {
			return fmt.Errorf("storage type is kafka but kafka section not enabled")
		}
	}

	if config.Kafka.Enabled {
		if len(config.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka enabled but no brokers specified")
		}
		if config.Kafka.Topic == "" {
			return fmt.Errorf("kafka enabled but no topic specified")
		}
		valid := false
		for _, comp := range []string{"none", "gzip", "snappy", "lz4", "zstd"} {
			if config.Kafka.Compression == comp {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid kafka compression: %s", config.Kafka.Compression)
		}
		if config.Kafka.SASL.Enabled {
			valid = false
			for _, mech := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
				if config.Kafka.SASL.Mechanism == mech {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid kafka SASL mechanism: %s", config.Kafka.SASL.Mechanism)
			}
			if config.Kafka.SASL.Username == "" || config.Kafka.SASL.Password == "" {
				return fmt.Errorf("kafka SASL enabled but username or password not specified")
			}
		}
	}

	return nil
}

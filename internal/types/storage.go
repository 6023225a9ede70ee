package types

// StorageType defines the output sink for synchronized measurements
type StorageType string

const (
	// OutputFile output to a rotated file
	OutputFile StorageType = "file"
	// OutputStdout output to standard output
	OutputStdout StorageType = "stdout"
	// OutputSocket output to a TCP socket
	OutputSocket StorageType = "socket"
	// OutputKafka output to a Kafka topic
	OutputKafka StorageType = "kafka"
)

// StorageFormat defines the serialization format for stored measurements
type StorageFormat string

const (
	// FormatJSON one JSON document per record
	FormatJSON StorageFormat = "json"
	// FormatNDJSON newline-delimited JSON, suitable for stream processing
	FormatNDJSON StorageFormat = "ndjson"
	// FormatText compact human-readable lines
	FormatText StorageFormat = "text"
)

// StorageConfig configuration for the storage module
type StorageConfig struct {
	// Output type
	Type StorageType `toml:"type"`
	// Output format
	Format StorageFormat `toml:"format"`
	// File output path (used when Type is file)
	FilePath string `toml:"file_path"`
	// File rotation settings
	MaxSize    int  `toml:"max_size"`    // Maximum size of a single file (MB)
	MaxAge     int  `toml:"max_age"`     // Maximum number of days to retain
	MaxBackups int  `toml:"max_backups"` // Maximum number of backup files
	Compress   bool `toml:"compress"`    // Whether to compress old files
	// Remote output settings (used when Type is socket)
	RemoteAddr string `toml:"remote_addr"`
	RemotePort int    `toml:"remote_port"`
	// Extra fields added to every stored record
	ExtraFields map[string]string `toml:"extra_fields"`
}

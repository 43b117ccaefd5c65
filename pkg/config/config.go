// Package config loads and validates the service configuration.
//
// Sources, highest precedence first: CLI flags handled in cmd, environment
// variables prefixed PAGEVOL_, a YAML configuration file, built-in
// defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pagevol/mds/pkg/alloc"
	"github.com/pagevol/mds/pkg/cleaner"
)

const (
	// DefaultMinFileLength is the smallest page file: 10 GiB.
	DefaultMinFileLength = 10 * 1024 * 1024 * 1024

	// DefaultSegmentSize is the allocation granularity: 1 GiB.
	DefaultSegmentSize = 1024 * 1024 * 1024

	// DefaultChunkSize is the chunk granularity: 16 MiB.
	DefaultChunkSize = 16 * 1024 * 1024
)

// Config is the complete service configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings.
	Server ServerConfig `mapstructure:"server"`

	// Store holds the metadata store section. It is decoded into the
	// store implementation's own config type by StoreConfig, so the
	// store keeps ownership of its knobs.
	Store map[string]any `mapstructure:"store"`

	// Namespace carries the allocation constants stamped on new files.
	Namespace NamespaceConfig `mapstructure:"namespace"`

	// Pool describes the logical pool segments are placed in.
	Pool alloc.Pool `mapstructure:"pool"`

	// Cleaner configures the snapshot delete workers.
	Cleaner cleaner.Config `mapstructure:"cleaner"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ListenAddr is the RPC listen address, e.g. ":6700".
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`

	// MetricsAddr is the Prometheus scrape address; empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// NamespaceConfig carries the allocation constants of the namespace.
type NamespaceConfig struct {
	// MinFileLength is the smallest page file that may be created.
	MinFileLength uint64 `mapstructure:"min_file_length" validate:"required,gt=0"`

	// SegmentSize is the allocation granularity. Power of two.
	SegmentSize uint64 `mapstructure:"segment_size" validate:"required,gt=0"`

	// ChunkSize is the chunk granularity. Power of two, divides
	// SegmentSize.
	ChunkSize uint64 `mapstructure:"chunk_size" validate:"required,gt=0"`
}

// Load reads the configuration file at path (optional when empty),
// applies environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAGEVOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("server.listen_addr", ":6700")
	v.SetDefault("server.metrics_addr", ":9140")
	v.SetDefault("store.path", "/var/lib/pagevol/mds")
	v.SetDefault("namespace.min_file_length", DefaultMinFileLength)
	v.SetDefault("namespace.segment_size", DefaultSegmentSize)
	v.SetDefault("namespace.chunk_size", DefaultChunkSize)
	v.SetDefault("pool.pool_id", 1)
	v.SetDefault("pool.copysets", []uint32{1, 2, 3})
	v.SetDefault("cleaner.workers", 2)
	v.SetDefault("cleaner.queue_depth", 32)
}

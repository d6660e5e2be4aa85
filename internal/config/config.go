// Package config provides configuration management for hawktail.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the master configuration struct.
type Config struct {
	Listen   ListenConfig   `mapstructure:"listen" yaml:"listen"`
	Ingest   IngestConfig   `mapstructure:"ingest" yaml:"ingest"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ListenConfig holds the ingestion listener settings.
type ListenConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the host:port address to listen on.
func (l ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// IngestConfig holds the framing and session settings.
type IngestConfig struct {
	// MaxFrameSize is the largest accepted frame payload in bytes.
	// A frame declaring a bigger length terminates its session.
	MaxFrameSize int `mapstructure:"max_frame_size" yaml:"max_frame_size"`

	// DefaultFormat is the payload serialization assumed until a
	// client switches formats with a control frame ("json" or "cbor").
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`

	// QueueSize bounds each session's record queue into its store.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`

	// Merge appends all connections into a single shared store
	// instead of one store per connection.
	Merge bool `mapstructure:"merge" yaml:"merge"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// SnapshotConfig holds the snapshot-on-shutdown settings.
type SnapshotConfig struct {
	// Dir is where serve writes store snapshots on shutdown.
	// Empty disables snapshotting.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Compress writes gzip-compressed snapshots (.json.gz).
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from the given file (or
// $HAWKTAIL_CONFIG_DIR/config.yaml when path is empty) plus environment
// variables. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		configDir := os.Getenv("HAWKTAIL_CONFIG_DIR")
		if configDir == "" {
			configDir = "/etc/hawktail"
		}
		path = fmt.Sprintf("%s/config.yaml", configDir)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("HAWKTAIL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
		// Config file not found - continue with defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with all defaults applied and no
// file or environment lookup.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen.host", "127.0.0.1")
	v.SetDefault("listen.port", 19996)

	v.SetDefault("ingest.max_frame_size", 1048576)
	v.SetDefault("ingest.default_format", "json")
	v.SetDefault("ingest.queue_size", 1024)
	v.SetDefault("ingest.merge", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9109")

	v.SetDefault("snapshot.dir", "")
	v.SetDefault("snapshot.compress", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

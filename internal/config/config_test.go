package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:19996", cfg.Listen.Addr())
	assert.Equal(t, 1048576, cfg.Ingest.MaxFrameSize)
	assert.Equal(t, "json", cfg.Ingest.DefaultFormat)
	assert.Equal(t, 1024, cfg.Ingest.QueueSize)
	assert.False(t, cfg.Ingest.Merge)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 19996, cfg.Listen.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen:
  host: 0.0.0.0
  port: 5555
ingest:
  merge: true
  default_format: cbor
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5555", cfg.Listen.Addr())
	assert.True(t, cfg.Ingest.Merge)
	assert.Equal(t, "cbor", cfg.Ingest.DefaultFormat)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1048576, cfg.Ingest.MaxFrameSize)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HAWKTAIL_LISTEN_PORT", "7777")
	t.Setenv("HAWKTAIL_LOGGING_FORMAT", "json")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Listen.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Listen.Port = 4242
	cfg.Snapshot.Dir = "/var/lib/hawktail"

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, cfg.Write(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, back.Listen.Port)
	assert.Equal(t, "/var/lib/hawktail", back.Snapshot.Dir)
}

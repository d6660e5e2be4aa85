package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/hawktail/internal/config"
	"github.com/telhawk-systems/hawktail/internal/seeder"
	"github.com/telhawk-systems/hawktail/internal/wire"
)

func waitTotal(t *testing.T, m *Manager, want uint64) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		var total uint64
		for _, id := range m.StoreIDs() {
			if s, ok := m.Store(id); ok {
				total += s.Len()
			}
		}
		if total == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stores hold %d records, want %d", total, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Listen.Host = "127.0.0.1"
	cfg.Listen.Port = 0
	return cfg
}

func TestServeMergedCapture(t *testing.T) {
	cfg := testConfig()
	cfg.Ingest.Merge = true

	m := NewManager(nil)
	srv, err := m.StartServer(cfg)
	require.NoError(t, err)
	go srv.Serve()
	defer srv.Close()

	runner, err := seeder.NewRunner(seeder.Config{
		Addr:        srv.Addr().String(),
		Count:       20,
		Connections: 3,
		Seed:        1,
	})
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background()))

	waitTotal(t, m, 60)
	assert.Equal(t, []string{MergedStoreID}, m.StoreIDs())

	merged, ok := m.Store(MergedStoreID)
	require.True(t, ok)
	merged.CheckIntegrity()
}

func TestServeStorePerConnection(t *testing.T) {
	cfg := testConfig()

	m := NewManager(nil)
	srv, err := m.StartServer(cfg)
	require.NoError(t, err)
	go srv.Serve()
	defer srv.Close()

	runner, err := seeder.NewRunner(seeder.Config{
		Addr:        srv.Addr().String(),
		Count:       10,
		Connections: 2,
		Format:      wire.FormatCBOR,
		Seed:        1,
	})
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background()))

	waitTotal(t, m, 20)
	assert.Len(t, m.StoreIDs(), 2)
	for _, id := range m.StoreIDs() {
		s, ok := m.Store(id)
		require.True(t, ok)
		assert.Equal(t, uint64(10), s.Len())
	}
}

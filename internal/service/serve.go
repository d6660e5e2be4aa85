package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/telhawk-systems/hawktail/internal/config"
	"github.com/telhawk-systems/hawktail/internal/server"
	"github.com/telhawk-systems/hawktail/internal/store"
)

// MergedStoreID names the single store used when the server runs in
// merge mode.
const MergedStoreID = "merged"

// StartServer builds and binds the ingestion server from cfg and
// returns it listening but not yet accepting; the caller runs Serve
// and Close. In merge mode every session feeds one shared store;
// otherwise each connection gets its own conn-N store.
func (m *Manager) StartServer(cfg *config.Config) (*server.Server, error) {
	storeFor := m.storePerConnection
	if cfg.Ingest.Merge {
		merged, err := m.NewStore(MergedStoreID)
		if err != nil {
			return nil, err
		}
		storeFor = func(string) *store.Store { return merged }
	}

	srv, err := server.New(server.Options{
		Addr:          cfg.Listen.Addr(),
		MaxFrameSize:  cfg.Ingest.MaxFrameSize,
		DefaultFormat: cfg.Ingest.DefaultFormat,
		QueueSize:     cfg.Ingest.QueueSize,
		StoreFor:      storeFor,
		Logger:        m.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := srv.Listen(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.srv = srv
	m.mu.Unlock()
	return srv, nil
}

// storePerConnection hands each new session its own store.
func (m *Manager) storePerConnection(string) *store.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		m.nconn++
		id := fmt.Sprintf("conn-%d", m.nconn)
		s, err := m.newStoreLocked(id)
		if err == nil {
			return s
		}
	}
}

// SaveAll snapshots every non-empty registered store into dir, one
// file per store, named <store>-<timestamp>.json, gzipped when
// compress is set. The first error stops the walk.
func (m *Manager) SaveAll(dir string, compress bool) error {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	for _, id := range m.StoreIDs() {
		s, ok := m.Store(id)
		if !ok || s.Len() == 0 {
			continue
		}
		name := fmt.Sprintf("%s-%s.json", id, stamp)
		if compress {
			name += ".gz"
		}
		if err := m.Save(id, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

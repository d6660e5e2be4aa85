// Package service is the consumer facade: the surface a frontend (CLI,
// TUI, GUI, web) talks to. It owns the registry of named stores and
// mediates view creation, subscriptions, snapshot I/O, store merging,
// and session binding, so consumers never touch the lower packages
// directly.
package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/telhawk-systems/hawktail/internal/filter"
	"github.com/telhawk-systems/hawktail/internal/logging"
	"github.com/telhawk-systems/hawktail/internal/server"
	"github.com/telhawk-systems/hawktail/internal/snapshot"
	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

// Manager is the facade over the record stores. Safe for concurrent
// use.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	stores   map[string]*store.Store
	reserved map[string]bool
	nconn    int
	srv      *server.Server
}

// NewManager creates an empty Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:   logger,
		stores:   make(map[string]*store.Store),
		reserved: make(map[string]bool),
	}
}

// NewStore creates and registers an empty store under the given id.
func (m *Manager) NewStore(id string) (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newStoreLocked(id)
}

func (m *Manager) newStoreLocked(id string) (*store.Store, error) {
	if id == "" {
		return nil, fmt.Errorf("store id must not be empty")
	}
	if m.takenLocked(id) {
		return nil, fmt.Errorf("store %q already exists", id)
	}
	s := store.New(id)
	m.stores[id] = s
	m.logger.Debug("store created", logging.StoreID(id))
	return s, nil
}

// Store returns the registered store with the given id.
func (m *Manager) Store(id string) (*store.Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	return s, ok
}

// StoreIDs returns the registered store ids, sorted.
func (m *Manager) StoreIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.stores))
	for id := range m.stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove drops a store from the registry. Existing views and
// subscriptions on it keep working; the store is simply no longer
// addressable by id.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, id)
}

// GetView creates a live filtered view over the named store. The
// caller owns the view and must Close it.
func (m *Manager) GetView(storeID string, f model.Filter) (*filter.View, error) {
	s, ok := m.Store(storeID)
	if !ok {
		return nil, fmt.Errorf("no such store %q", storeID)
	}
	return filter.NewView(s, f)
}

// Subscribe returns a change subscription on the named store. The
// caller owns the subscription and must Close it.
func (m *Manager) Subscribe(storeID string) (*store.Subscription, error) {
	s, ok := m.Store(storeID)
	if !ok {
		return nil, fmt.Errorf("no such store %q", storeID)
	}
	return s.Subscribe(), nil
}

// Bind rebinds a live ingestion session to the named store. Valid only
// while a server started by Serve is running.
func (m *Manager) Bind(sessionID, storeID string) error {
	m.mu.Lock()
	srv := m.srv
	s, ok := m.stores[storeID]
	m.mu.Unlock()
	if srv == nil {
		return fmt.Errorf("no server running")
	}
	if !ok {
		return fmt.Errorf("no such store %q", storeID)
	}
	return srv.Bind(sessionID, s)
}

// Save writes the named store to a snapshot file. Paths ending in .gz
// are gzip-compressed.
func (m *Manager) Save(storeID, path string) error {
	s, ok := m.Store(storeID)
	if !ok {
		return fmt.Errorf("no such store %q", storeID)
	}
	if err := snapshot.Save(path, s); err != nil {
		return err
	}
	m.logger.Info("snapshot saved",
		logging.StoreID(storeID), slog.String("path", path), slog.Uint64("records", s.Len()))
	return nil
}

// Load restores a snapshot file into a new registered store. The store
// id derives from the file name; a numeric suffix resolves collisions.
func (m *Manager) Load(path string) (*store.Store, error) {
	// Reserve the id before reading the file so a concurrent Load or
	// NewStore cannot claim it in the meantime.
	m.mu.Lock()
	id := m.freeIDLocked(storeIDFromPath(path))
	m.reserved[id] = true
	m.mu.Unlock()

	s, err := snapshot.Load(path, id)

	m.mu.Lock()
	delete(m.reserved, id)
	if err == nil {
		m.stores[id] = s
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.logger.Info("snapshot loaded",
		logging.StoreID(id), slog.String("path", path), slog.Uint64("records", s.Len()))
	return s, nil
}

func storeIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "snapshot"
	}
	return base
}

func (m *Manager) takenLocked(id string) bool {
	if _, ok := m.stores[id]; ok {
		return true
	}
	return m.reserved[id]
}

func (m *Manager) freeIDLocked(id string) string {
	if !m.takenLocked(id) {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !m.takenLocked(candidate) {
			return candidate
		}
	}
}

// MergeStores combines the records of the named source stores into a
// new store registered under dstID. Records are ordered by producer
// timestamp, ties broken by source order, and receive fresh sequences.
// Source tracking carries over, so the merged store's
// all-sources-closed state reflects the sources' sessions.
func (m *Manager) MergeStores(dstID string, srcIDs []string) (*store.Store, error) {
	srcs := make([]*store.Store, 0, len(srcIDs))
	for _, id := range srcIDs {
		s, ok := m.Store(id)
		if !ok {
			return nil, fmt.Errorf("no such store %q", id)
		}
		srcs = append(srcs, s)
	}

	type tagged struct {
		rec model.Record
		src int
	}
	var all []tagged
	sources := make(map[string]bool)
	for i, src := range srcs {
		for _, rec := range src.ReadRange(1, src.Len()+1) {
			all = append(all, tagged{rec: rec, src: i})
		}
		for id, closed := range src.Sources() {
			if prev, ok := sources[id]; !ok || !prev {
				sources[id] = closed
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].rec.Timestamp.Equal(all[j].rec.Timestamp) {
			return all[i].rec.Timestamp.Before(all[j].rec.Timestamp)
		}
		return all[i].src < all[j].src
	})

	m.mu.Lock()
	dst, err := m.newStoreLocked(dstID)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		t.rec.Sequence = 0
		dst.Append(t.rec)
	}
	for id, closed := range sources {
		dst.TrackSource(id)
		if closed {
			dst.MarkSourceClosed(id)
		}
	}
	m.logger.Info("stores merged",
		logging.StoreID(dstID),
		slog.Int("sources", len(srcs)), slog.Uint64("records", dst.Len()))
	return dst, nil
}

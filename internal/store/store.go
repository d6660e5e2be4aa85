// Package store implements the in-memory record store: an append-only,
// thread-safe sequence of records for one logical tab, with secondary
// indexes for level, logger namespace and message tokens, source
// tracking for merged streams, and change notification for live views.
package store

import (
	"fmt"
	"sync"

	"github.com/telhawk-systems/hawktail/pkg/model"
)

// Tracker receives every appended record inside the store's write
// critical section, so a record and its derived state become visible
// atomically. Implementations must not call back into the store.
type Tracker interface {
	OnAppend(rec *model.Record)
}

// Store holds the ordered record sequence and its indexes. A store may
// be fed by any number of connection sessions concurrently (appends are
// serialized) and read by any number of consumers.
type Store struct {
	id string

	mu      sync.RWMutex
	records []model.Record
	levels  map[int][]uint64
	ns      *namespaceIndex
	tokens  *tokenIndex
	sources map[string]bool // source connection ID -> closed
	track   []Tracker
	subs    []*Subscription
}

// New creates an empty store. The id is opaque to the store; the
// service layer uses it to address stores.
func New(id string) *Store {
	return &Store{
		id:      id,
		levels:  make(map[int][]uint64),
		ns:      newNamespaceIndex(),
		tokens:  newTokenIndex(),
		sources: make(map[string]bool),
	}
}

// ID returns the store's identifier.
func (s *Store) ID() string { return s.id }

// Append assigns the next sequence number to rec, adds it to the
// ordered sequence, updates all indexes and attached trackers, and
// notifies subscribers. Safe for concurrent use; sequences are strictly
// increasing with no gaps. Returns the assigned sequence.
func (s *Store) Append(rec model.Record) uint64 {
	s.mu.Lock()

	seq := uint64(len(s.records)) + 1
	rec.Sequence = seq
	s.records = append(s.records, rec)

	s.levels[rec.Level] = append(s.levels[rec.Level], seq)
	s.ns.add(rec.LoggerName, seq)
	s.tokens.add(&rec, seq)

	if rec.SourceConnectionID != "" {
		if _, known := s.sources[rec.SourceConnectionID]; !known {
			s.sources[rec.SourceConnectionID] = false
		}
	}

	stored := &s.records[len(s.records)-1]
	for _, t := range s.track {
		t.OnAppend(stored)
	}
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		sub.pushAppend(seq)
	}
	return seq
}

// Len returns the number of appended records (equal to the highest
// assigned sequence).
func (s *Store) Len() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records))
}

// Get returns the record with the given sequence.
func (s *Store) Get(seq uint64) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq == 0 || seq > uint64(len(s.records)) {
		return model.Record{}, false
	}
	return s.records[seq-1].Clone(), true
}

// ReadRange returns copies of the records in the closed-open sequence
// range [start, end), in sequence order. The range is clipped to the
// records that exist; the call never waits for pending appends.
func (s *Store) ReadRange(start, end uint64) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if start < 1 {
		start = 1
	}
	limit := uint64(len(s.records)) + 1
	if end > limit {
		end = limit
	}
	if start >= end {
		return nil
	}
	out := make([]model.Record, 0, end-start)
	for seq := start; seq < end; seq++ {
		out = append(out, s.records[seq-1].Clone())
	}
	return out
}

// View runs fn with read access to the full record slice. The slice
// must not be retained or mutated; it is only valid during the call.
// Views use this for scanning without per-record copies.
func (s *Store) View(fn func(records []model.Record)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.records)
}

// Exclusive runs fn with exclusive access to the full record slice,
// blocking appends for the duration. Filter replacement uses this so a
// full re-scan and the view swap happen atomically with respect to
// appends. The slice must not be retained or mutated.
func (s *Store) Exclusive(fn func(records []model.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.records)
}

// Attach registers a tracker to be invoked for every future append.
func (s *Store) Attach(t Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = append(s.track, t)
}

// AttachScan runs fn over the current record slice and then attaches
// the tracker, all within one exclusive section, so the tracker misses
// no appends between the scan and the attach. The slice must not be
// retained or mutated.
func (s *Store) AttachScan(t Tracker, fn func(records []model.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.records)
	s.track = append(s.track, t)
}

// Detach removes a previously attached tracker.
func (s *Store) Detach(t Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.track {
		if existing == t {
			s.track = append(s.track[:i], s.track[i+1:]...)
			return
		}
	}
}

// TrackSource registers a contributing source connection, so a session
// that never sends a record still counts toward "all sources closed".
func (s *Store) TrackSource(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.sources[connID]; !known {
		s.sources[connID] = false
	}
}

// MarkSourceClosed records that one contributing session ended. The
// store stays fully readable afterwards.
func (s *Store) MarkSourceClosed(connID string) {
	s.mu.Lock()
	s.sources[connID] = true
	allClosed := s.allSourcesClosedLocked()
	subs := s.subs
	s.mu.Unlock()

	if allClosed {
		for _, sub := range subs {
			sub.pushClosed()
		}
	}
}

// AllSourcesClosed reports whether every tracked source has closed.
// A store with no tracked sources (loaded from a snapshot) reports
// true only if it was restored that way; an empty live store reports
// false until its first source closes.
func (s *Store) AllSourcesClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allSourcesClosedLocked()
}

func (s *Store) allSourcesClosedLocked() bool {
	if len(s.sources) == 0 {
		return false
	}
	for _, closed := range s.sources {
		if !closed {
			return false
		}
	}
	return true
}

// SourceCount returns the number of tracked source connections.
func (s *Store) SourceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// Sources returns the tracked source connection IDs and their closed
// state.
func (s *Store) Sources() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.sources))
	for id, closed := range s.sources {
		out[id] = closed
	}
	return out
}

// CheckIntegrity verifies the sequence invariant: records are stored at
// position sequence-1 with no gaps or repeats. A violation is an
// internal defect, so it panics rather than returning an error.
func (s *Store) CheckIntegrity() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].Sequence != uint64(i)+1 {
			panic(fmt.Sprintf("store %s: record at position %d has sequence %d",
				s.id, i, s.records[i].Sequence))
		}
	}
}

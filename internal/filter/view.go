package filter

import (
	"sync"

	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

// View is the live result of evaluating a Filter against a store: the
// ascending sequence numbers of currently matching records. Appends
// update it incrementally; replacing the filter re-scans the store once
// and swaps the result atomically.
type View struct {
	s *store.Store

	mu        sync.RWMutex
	m         *matcher
	seqs      []uint64
	cursorSeq uint64 // sequence of the most recent search hit
	closed    bool
}

// NewView compiles the filter, scans the store's current contents, and
// attaches the view for incremental updates. Returns a DefinitionError
// without attaching anything when the filter is invalid.
func NewView(s *store.Store, f model.Filter) (*View, error) {
	m, err := compile(f)
	if err != nil {
		return nil, err
	}
	v := &View{s: s, m: m}
	s.AttachScan(v, func(records []model.Record) {
		v.seqs = scan(records, m)
	})
	return v, nil
}

// scan evaluates the matcher over records in sequence order.
func scan(records []model.Record, m *matcher) []uint64 {
	var seqs []uint64
	for i := range records {
		if m.matches(&records[i]) {
			seqs = append(seqs, records[i].Sequence)
		}
	}
	return seqs
}

// OnAppend implements store.Tracker. It runs inside the store's write
// critical section: it evaluates only the new record, never touching
// previously matched or rejected ones.
func (v *View) OnAppend(rec *model.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if v.m.matches(rec) {
		v.seqs = append(v.seqs, rec.Sequence)
	}
}

// Filter returns the view's current filter definition.
func (v *View) Filter() model.Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.m.filter
}

// SetFilter replaces the filter, triggering one full re-scan of the
// store in ascending sequence order. The swap is atomic: readers see
// either the old complete view or the new complete one. An invalid
// filter returns a DefinitionError and leaves the view untouched.
func (v *View) SetFilter(f model.Filter) error {
	m, err := compile(f)
	if err != nil {
		return err
	}
	// The store's exclusive section blocks appends, so the re-scan and
	// the swap observe a frozen record sequence.
	v.s.Exclusive(func(records []model.Record) {
		seqs := scan(records, m)
		v.mu.Lock()
		v.m = m
		v.seqs = seqs
		v.cursorSeq = 0
		v.mu.Unlock()
	})
	return nil
}

// Sequences returns the matching sequence numbers in ascending order.
func (v *View) Sequences() []uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]uint64(nil), v.seqs...)
}

// Len returns the number of matching records.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.seqs)
}

// Records returns copies of the matching records in ascending sequence
// order.
func (v *View) Records() []model.Record {
	seqs := v.Sequences()
	out := make([]model.Record, 0, len(seqs))
	for _, seq := range seqs {
		if rec, ok := v.s.Get(seq); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Close detaches the view from its store. Subsequent appends no longer
// update it; reads keep returning the final contents.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()
	v.s.Detach(v)
}

package store

import "sync"

// Range is a contiguous closed-open sequence range [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// Empty reports whether the range contains no sequences.
func (r Range) Empty() bool { return r.Start >= r.End }

// Event is a coalesced change notification: the range of sequences
// appended since the last Take, and whether every source has closed.
type Event struct {
	Appended         Range
	AllSourcesClosed bool
}

// Subscription delivers change notifications from a store. It never
// blocks the append path: notifications coalesce into a pending event
// and the Ready channel carries at most one signal. Consumers wait on
// Ready, then drain the pending event with Take.
type Subscription struct {
	store *Store

	mu      sync.Mutex
	pending Event
	dirty   bool
	ready   chan struct{}
	closed  bool
}

// Subscribe registers a new subscription. Records appended before the
// call are not reported; the caller reads them with ReadRange first.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		store: s,
		ready: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub
}

// Ready returns a channel that signals when a pending event exists.
func (sub *Subscription) Ready() <-chan struct{} { return sub.ready }

// Take returns the pending event and clears it. ok is false when
// nothing is pending.
func (sub *Subscription) Take() (ev Event, ok bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.dirty {
		return Event{}, false
	}
	ev = sub.pending
	sub.pending = Event{AllSourcesClosed: ev.AllSourcesClosed}
	sub.dirty = false
	return ev, true
}

// Close detaches the subscription from its store.
func (sub *Subscription) Close() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	sub.mu.Unlock()

	s := sub.store
	s.mu.Lock()
	for i, existing := range s.subs {
		if existing == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

func (sub *Subscription) pushAppend(seq uint64) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	r := &sub.pending.Appended
	if r.Empty() {
		r.Start, r.End = seq, seq+1
	} else {
		if seq < r.Start {
			r.Start = seq
		}
		if seq+1 > r.End {
			r.End = seq + 1
		}
	}
	sub.dirty = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *Subscription) pushClosed() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.pending.AllSourcesClosed = true
	sub.dirty = true
	sub.mu.Unlock()
	sub.signal()
}

func (sub *Subscription) signal() {
	select {
	case sub.ready <- struct{}{}:
	default:
	}
}

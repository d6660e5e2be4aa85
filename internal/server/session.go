package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/telhawk-systems/hawktail/internal/logging"
	"github.com/telhawk-systems/hawktail/internal/metrics"
	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/internal/wire"
)

// State is a session's lifecycle state. Transitions are one-way:
// Open -> Streaming -> Closed | Errored, and Open -> Closed | Errored
// for sessions that never produce a record.
type State int32

const (
	StateOpen State = iota
	StateStreaming
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the two end states.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// SessionEvent describes a session reaching a terminal state. Err is
// nil for an orderly close and carries the fatal error otherwise.
type SessionEvent struct {
	ID    string
	State State
	Err   error
}

// Session owns one client connection: it reads the byte stream, feeds
// the frame decoder, and hands decoded records to the store it is
// currently bound to. All record delivery for a session happens on its
// own read goroutine; only the binding may be changed from outside.
type Session struct {
	id     string
	conn   net.Conn
	dec    *wire.Decoder
	logger *slog.Logger
	srv    *Server

	mu     sync.Mutex
	state  State
	sink   *intake
	bound  map[*store.Store]struct{}
	once   sync.Once
	doneCh chan struct{}
}

func newSession(srv *Server, conn net.Conn) *Session {
	id := uuid.NewString()
	logger := srv.logger.With(logging.ConnID(id), logging.Remote(conn.RemoteAddr().String()))
	return &Session{
		id:   id,
		conn: conn,
		dec: wire.NewDecoder(
			wire.WithMaxFrameSize(srv.opts.MaxFrameSize),
			wire.WithFormat(srv.opts.DefaultFormat),
			wire.WithLogger(logger),
		),
		logger: logger,
		srv:    srv,
		state:  StateOpen,
		bound:  make(map[*store.Store]struct{}),
		doneCh: make(chan struct{}),
	}
}

// ID returns the session's unique identifier. Records produced by the
// session carry it as their SourceConnectionID.
func (s *Session) ID() string { return s.id }

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.doneCh }

// Close tears the session down by closing its connection. The read
// goroutine observes the closed connection and finishes the session;
// idle sessions are interrupted the same way since reads carry no
// deadline.
func (s *Session) Close() {
	s.conn.Close()
}

// bind points the session at a store. All subsequent records go to it;
// records already queued for the previous store are unaffected. The
// store starts tracking this session as a source immediately, so a
// session that closes without sending a record still resolves the
// store's all-sources-closed state.
func (s *Session) bind(in *intake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return errors.New("session already terminated")
	}
	s.sink = in
	if _, ok := s.bound[in.store]; !ok {
		s.bound[in.store] = struct{}{}
		in.store.TrackSource(s.id)
	}
	return nil
}

// run is the session's read loop. It returns after the session has
// reached a terminal state.
func (s *Session) run() {
	s.logger.Info("session opened")
	buf := make([]byte, 32*1024)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			metrics.BytesReceivedTotal.Add(float64(n))
			s.dec.Feed(buf[:n])
			if derr := s.drain(); derr != nil {
				s.finish(StateErrored, derr)
				return
			}
		}
		if err != nil {
			if err == io.EOF || errors.Is(err, net.ErrClosed) {
				s.finish(StateClosed, nil)
			} else {
				s.finish(StateErrored, err)
			}
			return
		}
	}
}

// drain decodes every complete frame currently buffered. A frame error
// is fatal for the session.
func (s *Session) drain() error {
	for {
		rec, err := s.dec.Next()
		if err != nil {
			if errors.Is(err, wire.ErrNeedMore) {
				return nil
			}
			metrics.FrameErrorsTotal.Inc()
			return err
		}
		rec.SourceConnectionID = s.id
		metrics.RecordsTotal.Inc()

		s.mu.Lock()
		if s.state == StateOpen {
			s.state = StateStreaming
		}
		sink := s.sink
		s.mu.Unlock()
		sink.put(*rec)
	}
}

// finish moves the session to its terminal state exactly once: it logs
// the outcome, queues a source-closed marker behind any queued records
// for every store the session fed, and notifies the server.
func (s *Session) finish(state State, err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = state
		bound := make([]*store.Store, 0, len(s.bound))
		for st := range s.bound {
			bound = append(bound, st)
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("session failed", logging.Err(err))
		} else {
			s.logger.Info("session closed")
		}
		s.conn.Close()

		// Bound stores always have a live queue, so the marker rides it
		// behind any records the session already delivered.
		for _, st := range bound {
			if in := s.srv.intakeFor(st); in != nil {
				in.putClosed(s.id)
			} else {
				st.MarkSourceClosed(s.id)
			}
		}

		metrics.SessionsActive.Dec()
		metrics.SessionsTotal.WithLabelValues(state.String()).Inc()
		close(s.doneCh)
		s.srv.sessionDone(s, SessionEvent{ID: s.id, State: state, Err: err})
	})
}

// Package server implements the TCP ingestion server: it accepts
// client connections, runs one Session per connection, and funnels
// decoded records through per-store bounded queues into each store's
// single appender goroutine.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/telhawk-systems/hawktail/internal/metrics"
	"github.com/telhawk-systems/hawktail/internal/store"
	"github.com/telhawk-systems/hawktail/internal/wire"
	"github.com/telhawk-systems/hawktail/pkg/model"
)

// DefaultQueueSize bounds a store's intake queue when no size is
// configured.
const DefaultQueueSize = 1024

// Options configures a Server.
type Options struct {
	// Addr is the TCP listen address, host:port.
	Addr string

	// MaxFrameSize caps accepted frame payloads; zero means the wire
	// package default.
	MaxFrameSize int

	// DefaultFormat names the payload serialization sessions start
	// with; empty means JSON.
	DefaultFormat string

	// QueueSize bounds each store's intake queue; zero means
	// DefaultQueueSize. A full queue applies backpressure to the
	// session's read loop, never to store readers.
	QueueSize int

	// StoreFor picks the store a new session is bound to. Required.
	// Called once per accepted connection, before any of its records
	// are delivered.
	StoreFor func(sessionID string) *store.Store

	// OnSession, when set, is invoked after a session reaches a
	// terminal state.
	OnSession func(ev SessionEvent)

	Logger *slog.Logger
}

// Server accepts client connections and manages their sessions. A
// single appender goroutine per store serializes appends from however
// many sessions feed it.
type Server struct {
	opts Options
	ln   net.Listener

	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	intakes  map[*store.Store]*intake
	closed   bool

	sessWG   sync.WaitGroup
	intakeWG sync.WaitGroup
}

// New creates a Server. Call Listen then Serve to run it.
func New(opts Options) (*Server, error) {
	if opts.StoreFor == nil {
		return nil, errors.New("server: StoreFor is required")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = wire.DefaultMaxFrameSize
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = wire.FormatJSON
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
		intakes:  make(map[*store.Store]*intake),
	}, nil
}

// Listen binds the TCP listener without accepting yet, so callers can
// learn the bound address before Serve.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listener's address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Close. It returns nil after an
// orderly shutdown.
func (s *Server) Serve() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.startSession(conn)
	}
}

func (s *Server) startSession(conn net.Conn) {
	sess := newSession(s, conn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	st := s.opts.StoreFor(sess.id)
	in := s.intakeFor(st)
	if in == nil {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		conn.Close()
		return
	}
	if err := sess.bind(in); err != nil {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		conn.Close()
		return
	}

	metrics.SessionsActive.Inc()
	s.sessWG.Add(1)
	go func() {
		defer s.sessWG.Done()
		sess.run()
	}()
}

// Bind rebinds a live session to another store. Records the session
// already delivered stay where they are; subsequent records go to st.
func (s *Server) Bind(sessionID string, st *store.Store) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no such session %q", sessionID)
	}
	in := s.intakeFor(st)
	if in == nil {
		return fmt.Errorf("server closed")
	}
	return sess.bind(in)
}

// Session returns the live session with the given ID.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Stores returns every store an intake queue has been created for.
func (s *Server) Stores() []*store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.Store, 0, len(s.intakes))
	for st := range s.intakes {
		out = append(out, st)
	}
	return out
}

// Close stops the listener, closes every session, and waits for the
// appender queues to drain. Stores stay fully readable throughout and
// afterwards.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	if s.ln != nil {
		s.ln.Close()
	}
	for _, sess := range sessions {
		sess.Close()
	}
	s.sessWG.Wait()

	s.mu.Lock()
	intakes := make([]*intake, 0, len(s.intakes))
	for _, in := range s.intakes {
		intakes = append(intakes, in)
	}
	s.mu.Unlock()

	for _, in := range intakes {
		close(in.ch)
	}
	s.intakeWG.Wait()
	s.logger.Info("server stopped")
}

// intakeFor returns the store's intake queue, starting its appender
// goroutine on first use. Returns nil on a closed server when no queue
// exists yet: Close only drains queues it knows about, so starting one
// afterwards would leave its appender running forever.
func (s *Server) intakeFor(st *store.Store) *intake {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.intakes[st]; ok {
		return in
	}
	if s.closed {
		return nil
	}
	in := &intake{
		store: st,
		ch:    make(chan intakeMsg, s.opts.QueueSize),
	}
	s.intakes[st] = in
	s.intakeWG.Add(1)
	go func() {
		defer s.intakeWG.Done()
		in.appendLoop()
	}()
	return in
}

func (s *Server) sessionDone(sess *Session, ev SessionEvent) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	if s.opts.OnSession != nil {
		s.opts.OnSession(ev)
	}
}

// intakeMsg is one unit on a store's intake queue: either a record to
// append or, when closedID is set, a source-closed marker. Markers ride
// the queue so a source's close is observed after its last record.
type intakeMsg struct {
	rec      model.Record
	closedID string
}

type intake struct {
	store *store.Store
	ch    chan intakeMsg
}

func (in *intake) put(rec model.Record) {
	in.ch <- intakeMsg{rec: rec}
	metrics.QueueDepth.WithLabelValues(in.store.ID()).Set(float64(len(in.ch)))
}

func (in *intake) putClosed(sessionID string) {
	in.ch <- intakeMsg{closedID: sessionID}
}

// appendLoop is the store's single appender: it drains the intake
// queue until the channel is closed.
func (in *intake) appendLoop() {
	id := in.store.ID()
	for msg := range in.ch {
		if msg.closedID != "" {
			in.store.MarkSourceClosed(msg.closedID)
			continue
		}
		in.store.Append(msg.rec)
		metrics.StoreRecords.WithLabelValues(id).Set(float64(in.store.Len()))
		metrics.QueueDepth.WithLabelValues(id).Set(float64(len(in.ch)))
	}
}

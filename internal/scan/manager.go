// Package scan drives the decode consensus pipeline: a session owns one
// frame stream and one decoder backend, feeds every raw read through the
// consensus engine, and reports a single trusted code to its owner.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/capture"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/decode"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
)

var (
	ErrSessionNotFound = errors.New("scan: session not found")
	ErrNotScanning     = errors.New("scan: session not accepting frames")
)

// Config carries the session tunables from the config file.
type Config struct {
	Debounce       time.Duration
	DecodeInterval time.Duration
	WindowSize     int
}

// ConfirmFunc receives every accepted scan (audit, eventing, cart flow).
type ConfirmFunc func(ctx context.Context, c Confirmed)

// Manager is the registry of live scan sessions. One active session per
// user: opening a second one closes the first, the same way remounting the
// scanner component replaced a leaked camera stream.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byOwner  map[string]string

	capture   *capture.Manager
	cfg       Config
	onConfirm ConfirmFunc
	log       *slog.Logger
}

func NewManager(cap *capture.Manager, cfg Config, onConfirm ConfirmFunc) *Manager {
	if cfg.DecodeInterval <= 0 {
		cfg.DecodeInterval = defaultDecodeInterval
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		byOwner:   make(map[string]string),
		capture:   cap,
		cfg:       cfg,
		onConfirm: onConfirm,
		log:       logging.New("scan"),
	}
}

// Open creates and starts a session for userID. backend selects the decoder
// ("primary" or "fallback"); reference optionally enables the
// known-reference fast path for this session only.
func (m *Manager) Open(userID, backend, reference string) *Session {
	m.mu.Lock()
	var prev *Session
	if prevID, ok := m.byOwner[userID]; ok {
		prev = m.sessions[prevID]
		delete(m.sessions, prevID)
		delete(m.byOwner, userID)
	}
	m.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	s := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		state:  StateInitializing,
		cons: NewConsensus(ConsensusConfig{
			WindowSize: m.cfg.WindowSize,
			Debounce:   m.cfg.Debounce,
			Reference:  reference,
		}),
		interval: m.cfg.DecodeInterval,
		stop:     make(chan struct{}),
		log:      logging.New("scan"),
	}
	s.onScan = func(ev Confirmed) {
		if m.onConfirm == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.onConfirm(ctx, ev)
	}
	s.onClose = func(id string) { m.forget(id) }

	s.setState(StateAwaitingPermission)
	stream, err := m.capture.Open(userID, s.ID, capture.DefaultConstraints())
	if err != nil {
		// acquisition failures are never swallowed: they park the session
		// in a state the client renders as a persistent message
		if errors.Is(err, capture.ErrPermissionDenied) {
			s.setState(StatePermissionDenied)
			s.mu.Lock()
			s.errMsg = "Camera access denied. Check your browser settings and grant camera permission."
			s.mu.Unlock()
		} else {
			s.setState(StateError)
			s.mu.Lock()
			s.errMsg = "Camera initialization failed: " + err.Error()
			s.mu.Unlock()
		}
		m.register(s)
		m.log.Warn("scan session failed to acquire stream", "session", s.ID, "user", userID, "err", err)
		return s
	}

	s.stream = stream
	s.mu.Lock()
	s.dec = decode.New(backend)
	s.mu.Unlock()
	s.setState(StateScanning)
	m.register(s)

	sessionsStarted.WithLabelValues(s.Backend()).Inc()
	m.log.Info("scan session opened", "session", s.ID, "user", userID, "backend", s.Backend())

	s.wg.Add(1)
	go s.run()
	return s
}

func (m *Manager) register(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.byOwner[s.UserID] = s.ID
	m.mu.Unlock()
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		if m.byOwner[s.UserID] == id {
			delete(m.byOwner, s.UserID)
		}
	}
	m.mu.Unlock()
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// PushFrame offers one frame to the named session.
func (m *Manager) PushFrame(id string, f capture.Frame) error {
	s, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	if !s.Push(f) {
		st := s.Status()
		if st.State != StateScanning {
			return ErrNotScanning
		}
		// buffer drop: expected backpressure, not an error
	}
	return nil
}

// Switch closes the session and reopens one on the other decoder backend.
// Sessions never swap handles in place: stream and decoder are released
// together on every exit path, switching included.
func (m *Manager) Switch(id string) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	next := "fallback"
	if s.Backend() == "fallback" {
		next = "primary"
	}
	reference := ""
	s.mu.Lock()
	if s.cons != nil {
		reference = s.cons.cfg.Reference
	}
	userID := s.UserID
	s.mu.Unlock()

	s.Close()
	m.forget(id)
	return m.Open(userID, next, reference), nil
}

// Close tears down the named session. Unknown ids are a no-op.
func (m *Manager) Close(id string) {
	if s, ok := m.Get(id); ok {
		s.Close()
		m.forget(id)
	}
}

// CloseAll tears down every live session (process shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
		m.forget(s.ID)
	}
}

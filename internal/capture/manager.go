// Package capture owns the live frame streams feeding scan sessions. It is
// the server-side counterpart of the browser camera session: one owned
// stream per session, released exactly once on every exit path, with a
// defensive sweep of anything a previous session leaked.
package capture

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrPermissionDenied  = errors.New("capture: permission denied")
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
)

// Constraints mirror the device-acquisition request of the client camera.
type Constraints struct {
	FacingMode string
	Width      int
	Height     int
	FrameRate  int
}

// DefaultConstraints match the storefront scanner: rear camera, 640x480@30.
func DefaultConstraints() Constraints {
	return Constraints{FacingMode: "environment", Width: 640, Height: 480, FrameRate: 30}
}

// PermissionFunc decides whether an owner may open a stream. The production
// wiring allows everything (the browser already prompted the user); tests
// inject denials.
type PermissionFunc func(owner string, c Constraints) error

// Manager tracks every open stream so that teardown can sweep leaks.
type Manager struct {
	mu         sync.Mutex
	streams    map[string]*Stream // by stream id
	permission PermissionFunc
	bufSize    int
}

type Option func(*Manager)

func WithPermission(f PermissionFunc) Option { return func(m *Manager) { m.permission = f } }
func WithBuffer(n int) Option                { return func(m *Manager) { m.bufSize = n } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		streams: make(map[string]*Stream),
		bufSize: 8,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open acquires a new stream for owner. Any stream still registered for the
// same owner is closed first: a session that failed to release its stream
// must not hold the device hostage.
func (m *Manager) Open(owner, id string, c Constraints) (*Stream, error) {
	if m.permission != nil {
		if err := m.permission(owner, c); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, err.Error())
		}
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty stream id", ErrDeviceUnavailable)
	}

	m.mu.Lock()
	var leaked []*Stream
	for _, s := range m.streams {
		if s.owner == owner {
			leaked = append(leaked, s)
		}
	}
	st := &Stream{
		id:     id,
		owner:  owner,
		cons:   c,
		frames: make(chan Frame, m.bufSize),
		done:   make(chan struct{}),
		onClose: func(s *Stream) {
			m.mu.Lock()
			delete(m.streams, s.id)
			m.mu.Unlock()
		},
	}
	m.streams[id] = st
	m.mu.Unlock()

	for _, s := range leaked {
		s.Close()
	}
	return st, nil
}

// Close tears down the named stream. Unknown ids are a no-op, so callers can
// close unconditionally on every exit path.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s := m.streams[id]
	m.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// CloseAll sweeps every open stream (process shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Stream, 0, len(m.streams))
	for _, s := range m.streams {
		all = append(all, s)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// ActiveStreams reports open stream count.
func (m *Manager) ActiveStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

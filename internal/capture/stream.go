package capture

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one decoded camera frame pushed into a stream.
type Frame struct {
	Image image.Image
	At    time.Time
}

// Stream is the owned conduit between a frame producer and one scan session.
// Push never blocks; Close is idempotent and guarantees no frame is delivered
// after it returns.
type Stream struct {
	id    string
	owner string
	cons  Constraints

	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	onClose func(*Stream)
}

func (s *Stream) ID() string               { return s.id }
func (s *Stream) Owner() string            { return s.owner }
func (s *Stream) Constraints() Constraints { return s.cons }

// Frames exposes the frame channel for the consuming session.
// The channel is never closed; consumers must select on Done.
func (s *Stream) Frames() <-chan Frame { return s.frames }

// Done is closed when the stream has been torn down.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Push offers a frame to the stream. Returns false when the stream is closed
// or the buffer is saturated; a dropped frame is normal backpressure, the
// producer keeps sending.
func (s *Stream) Push(f Frame) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.frames <- f:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Close stops the stream. Safe to call multiple times; the second and later
// calls are no-ops.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

func (s *Stream) IsClosed() bool { return s.closed.Load() }

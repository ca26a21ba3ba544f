package scan

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/barcode"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/capture"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/decode"
)

// State of a scan session.
type State string

const (
	StateInitializing       State = "initializing"
	StateAwaitingPermission State = "awaiting_permission"
	StatePermissionDenied   State = "permission_denied"
	StateScanning           State = "scanning"
	StateConfirmed          State = "confirmed"
	StateClosed             State = "closed"
	StateError              State = "error"
)

const defaultDecodeInterval = 500 * time.Millisecond

// Feedback tells the client which confirmation cues to fire.
type Feedback struct {
	Beep      bool `json:"beep"`
	VibrateMs int  `json:"vibrateMs"`
}

// Confirmed is the accepted result handed to the session owner.
type Confirmed struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Raw       string    `json:"raw"`
	Code      string    `json:"code"` // normalized
	Format    string    `json:"format"`
	Backend   string    `json:"backend"`
	At        time.Time `json:"at"`
}

// Status is a point-in-time snapshot for the polling client.
type Status struct {
	ID             string    `json:"id"`
	State          State     `json:"state"`
	Backend        string    `json:"backend"`
	Error          string    `json:"error,omitempty"`
	LastRaw        string    `json:"lastRaw,omitempty"`
	LastNormalized string    `json:"lastNormalized,omitempty"`
	Reads          int       `json:"reads"`
	Confirmed      string    `json:"confirmed,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`
}

// Session owns exactly one stream and one decoder. Both are released
// together, exactly once, on every exit path: confirm, explicit close,
// backend switch and fatal decoder failure.
type Session struct {
	ID     string
	UserID string

	mu        sync.Mutex
	state     State
	errMsg    string
	lastRaw   string
	lastNorm  string
	confirmed string
	feedback  *Feedback

	stream   *capture.Stream
	dec      decode.Decoder
	cons     *Consensus
	interval time.Duration

	onScan  func(Confirmed)
	onClose func(sessionID string)

	stop     chan struct{}
	stopOnce sync.Once
	released sync.Once
	wg       sync.WaitGroup
	log      *slog.Logger
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Push offers one frame to the session. False means the session is not
// scanning (or its buffer dropped the frame), which the producer treats as
// normal.
func (s *Session) Push(f capture.Frame) bool {
	s.mu.Lock()
	scanning := s.state == StateScanning
	s.mu.Unlock()
	if !scanning {
		return false
	}
	return s.stream.Push(f)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:             s.ID,
		State:          s.state,
		Error:          s.errMsg,
		LastRaw:        s.lastRaw,
		LastNormalized: s.lastNorm,
		Confirmed:      s.confirmed,
		Feedback:       s.feedback,
	}
	if s.dec != nil {
		st.Backend = s.dec.Name()
	}
	if s.cons != nil {
		st.Reads = s.cons.Len()
	}
	return st
}

func (s *Session) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dec == nil {
		return ""
	}
	return s.dec.Name()
}

// Close cancels the decode loop and releases the stream and decoder.
// Synchronous: when it returns no callback will fire and no frame is being
// decoded. Idempotent.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	// sessions that never started a run loop (permission denied etc.)
	// still release here
	s.releaseResources()
}

// releaseResources closes the stream and the decoder handle together,
// exactly once.
func (s *Session) releaseResources() {
	s.released.Do(func() {
		if s.stream != nil {
			s.stream.Close()
		}
		s.mu.Lock()
		dec := s.dec
		s.mu.Unlock()
		if dec != nil {
			dec.Release()
		}
	})
}

func (s *Session) run() {
	defer s.wg.Done()
	var lastAttempt time.Time

	for {
		select {
		case <-s.stop:
			s.finish(StateClosed)
			return
		case <-s.stream.Done():
			s.finish(StateClosed)
			return
		case f := <-s.stream.Frames():
			now := time.Now()
			if now.Sub(lastAttempt) < s.interval {
				continue // throttle decode attempts, frames are cheap to drop
			}
			lastAttempt = now

			res, err := s.dec.Decode(f.Image)
			if err != nil {
				switch {
				case errors.Is(err, decode.ErrNotFound):
					framesObserved.WithLabelValues(s.dec.Name(), "no_code").Inc()
				case errors.Is(err, decode.ErrReleased):
					s.finish(StateClosed)
					return
				default:
					framesObserved.WithLabelValues(s.dec.Name(), "error").Inc()
					s.mu.Lock()
					s.errMsg = "Failed to read barcode. Try again with better lighting and hold the camera steady."
					s.mu.Unlock()
					s.log.Warn("decoder error", "session", s.ID, "err", err)
				}
				continue
			}

			framesObserved.WithLabelValues(s.dec.Name(), "decoded").Inc()
			if s.observe(res, f.At) {
				return
			}
		}
	}
}

// observe feeds a raw read to the consensus engine; on acceptance it tears
// the session down and fires the owner callbacks. Returns true when the
// session is done.
func (s *Session) observe(res decode.Result, at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	s.lastRaw = res.Text
	s.lastNorm = barcode.Normalize(res.Text)
	s.errMsg = ""

	accepted, ok := s.cons.Observe(res.Text, at)
	if !ok {
		s.mu.Unlock()
		return false
	}

	code := barcode.Normalize(accepted)
	s.confirmed = code
	s.feedback = &Feedback{Beep: true, VibrateMs: 100}
	s.state = StateConfirmed
	ev := Confirmed{
		SessionID: s.ID,
		UserID:    s.UserID,
		Raw:       res.Text,
		Code:      code,
		Format:    barcode.Classify(code).Type,
		Backend:   s.dec.Name(),
		At:        at,
	}
	reads := s.cons.Len()
	onScan, onClose := s.onScan, s.onClose
	s.mu.Unlock()

	scansConfirmed.WithLabelValues(ev.Backend).Inc()
	readsToConfirm.Observe(float64(reads))

	s.releaseResources()
	if onScan != nil {
		onScan(ev)
	}
	if onClose != nil {
		onClose(s.ID)
	}
	return true
}

// finish handles the non-confirm exit paths.
func (s *Session) finish(final State) {
	s.mu.Lock()
	if s.state != StateConfirmed {
		s.state = final
	}
	onClose := s.onClose
	s.mu.Unlock()

	s.releaseResources()
	if onClose != nil {
		onClose(s.ID)
	}
}

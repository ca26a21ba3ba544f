package scan

import (
	"time"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/barcode"
)

const (
	defaultWindowSize = 5
	defaultDebounce   = 2 * time.Second

	// minimum reads before pairwise equivalence matching is allowed to
	// accept; below that two noisy reads agreeing is not evidence.
	minEquivalenceReads = 3
)

// ConsensusConfig tunes the acceptance rules. Zero values use defaults.
type ConsensusConfig struct {
	WindowSize int
	Debounce   time.Duration
	// Reference enables the known-reference fast path: a read matching this
	// code (or sharing a 6-digit run with it) is accepted as the reference
	// immediately. Off when empty.
	Reference string
}

// Consensus turns a stream of noisy per-frame reads into a single trusted
// code. Not safe for concurrent use: one consensus belongs to one session
// run loop, which also preserves frame order in the window.
type Consensus struct {
	cfg    ConsensusConfig
	window []string

	lastRaw  string
	lastAt   time.Time
	haveLast bool
}

func NewConsensus(cfg ConsensusConfig) *Consensus {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	return &Consensus{cfg: cfg, window: make([]string, 0, cfg.WindowSize)}
}

// Len reports how many reads the rolling window currently holds.
func (c *Consensus) Len() int { return len(c.window) }

// Observe feeds one raw read into the engine and reports whether a code has
// been accepted. Acceptance rules, in priority order:
//
//  1. a read equal to the previous one within the debounce window is dropped
//     outright (a code sitting in frame must not multi-trigger);
//  2. known-reference fast path, when configured;
//  3. majority vote: any value appearing twice in the window;
//  4. normalization collapse: raw reads that differ only in superficial
//     noise accept the most recent normalized value;
//  5. pairwise equivalence after three or more reads.
func (c *Consensus) Observe(code string, at time.Time) (string, bool) {
	if code == "" {
		return "", false
	}
	if c.haveLast && code == c.lastRaw && at.Sub(c.lastAt) < c.cfg.Debounce {
		// dropped: does not count toward the window either
		return "", false
	}
	c.lastRaw, c.lastAt, c.haveLast = code, at, true

	c.window = append(c.window, code)
	if len(c.window) > c.cfg.WindowSize {
		c.window = c.window[len(c.window)-c.cfg.WindowSize:]
	}

	if c.cfg.Reference != "" && barcode.MatchReference(code, c.cfg.Reference) {
		return c.cfg.Reference, true
	}

	if v, ok := barcode.MostFrequent(c.window, 2); ok {
		return v, true
	}

	// normalization collapse: fewer distinct normalized values than raw
	// reads means some reads were the same code under noise
	distinct := make(map[string]struct{}, len(c.window))
	var lastNorm string
	for _, w := range c.window {
		lastNorm = barcode.Normalize(w)
		distinct[lastNorm] = struct{}{}
	}
	if len(distinct) < len(c.window) {
		return lastNorm, true
	}

	if len(c.window) >= minEquivalenceReads {
		for i := 0; i < len(c.window); i++ {
			for j := i + 1; j < len(c.window); j++ {
				if barcode.Equivalent(c.window[i], c.window[j]) {
					// prefer the shorter read; on a tie the more recent
					if len(c.window[j]) <= len(c.window[i]) {
						return c.window[j], true
					}
					return c.window[i], true
				}
			}
		}
	}

	return "", false
}

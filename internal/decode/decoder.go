// Package decode wraps the gozxing readers behind one small interface so the
// consensus engine can drive either backend without knowing which is active.
package decode

import (
	"errors"
	"image"
)

// ErrNotFound means no barcode in this frame. This is steady-state noise for
// a continuous scanner and is never surfaced to the user.
var ErrNotFound = errors.New("decode: no code in frame")

// ErrReleased means Decode was called on a released decoder handle.
var ErrReleased = errors.New("decode: decoder released")

// Result is one successful raw read.
type Result struct {
	Text   string
	Format string
}

// Decoder is a continuous-decode backend. Implementations must be safe to
// Release more than once.
type Decoder interface {
	Name() string
	Decode(img image.Image) (Result, error)
	Release()
}

package decode

import (
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// RetailDecoder is the fallback backend: EAN/UPC readers only, no TRY_HARDER.
// It gives up on a frame faster and tolerates partial reads of retail codes
// better than the primary, at the cost of format coverage.
type RetailDecoder struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewRetailDecoder() *RetailDecoder {
	return &RetailDecoder{
		readers: []gozxing.Reader{
			oned.NewEAN13Reader(),
			oned.NewEAN8Reader(),
			oned.NewUPCAReader(),
			oned.NewUPCEReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_EAN_13,
				gozxing.BarcodeFormat_EAN_8,
				gozxing.BarcodeFormat_UPC_A,
				gozxing.BarcodeFormat_UPC_E,
			},
		},
	}
}

func (d *RetailDecoder) Name() string { return "fallback" }

func (d *RetailDecoder) Decode(img image.Image) (Result, error) {
	d.mu.Lock()
	readers := d.readers
	d.mu.Unlock()
	return decodeWith(readers, d.hints, img)
}

func (d *RetailDecoder) Release() {
	d.mu.Lock()
	d.readers = nil
	d.mu.Unlock()
}

// New returns the backend for a configured name; unknown names get the
// primary.
func New(name string) Decoder {
	if name == "fallback" {
		return NewRetailDecoder()
	}
	return NewZXingDecoder()
}

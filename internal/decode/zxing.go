package decode

import (
	"image"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingDecoder is the primary backend: the full set of 1D retail readers plus
// Code 39/128 and QR, with TRY_HARDER enabled. Slower per frame, widest
// format coverage.
type ZXingDecoder struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		readers: []gozxing.Reader{
			oned.NewEAN13Reader(),
			oned.NewEAN8Reader(),
			oned.NewUPCAReader(),
			oned.NewUPCEReader(),
			oned.NewCode39Reader(),
			oned.NewCode128Reader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_EAN_13,
				gozxing.BarcodeFormat_EAN_8,
				gozxing.BarcodeFormat_UPC_A,
				gozxing.BarcodeFormat_UPC_E,
				gozxing.BarcodeFormat_CODE_39,
				gozxing.BarcodeFormat_CODE_128,
				gozxing.BarcodeFormat_QR_CODE,
			},
		},
	}
}

func (d *ZXingDecoder) Name() string { return "primary" }

func (d *ZXingDecoder) Decode(img image.Image) (Result, error) {
	d.mu.Lock()
	readers := d.readers
	d.mu.Unlock()
	return decodeWith(readers, d.hints, img)
}

func (d *ZXingDecoder) Release() {
	d.mu.Lock()
	d.readers = nil
	d.mu.Unlock()
}

// decodeWith runs every reader over the frame; the first hit wins. All
// readers reporting not-found collapses into ErrNotFound, any other reader
// failure surfaces as a backend error.
func decodeWith(readers []gozxing.Reader, hints map[gozxing.DecodeHintType]interface{}, img image.Image) (Result, error) {
	if len(readers) == 0 {
		return Result{}, ErrReleased
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, err
	}

	var backendErr error
	for _, r := range readers {
		res, err := r.Decode(bmp, hints)
		if err == nil && res != nil {
			return Result{
				Text:   res.GetText(),
				Format: res.GetBarcodeFormat().String(),
			}, nil
		}
		if err != nil {
			if _, notFound := err.(gozxing.NotFoundException); notFound {
				continue
			}
			if backendErr == nil {
				backendErr = err
			}
		}
	}
	if backendErr != nil {
		return Result{}, backendErr
	}
	return Result{}, ErrNotFound
}

// Package barcode extracts a single text payload from a product photo.
// The decoded text is only ever used as a candidate item label; nothing
// here interprets it.
package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode reports that the image decoded fine but contained no
// readable barcode.
var ErrNoCode = errors.New("barcode: no readable code in image")

// Decode tries retail barcodes (EAN/UPC) first, then QR, and returns
// the first payload found.
func Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("barcode: decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("barcode: prepare bitmap: %w", err)
	}

	readers := []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(nil),
		qrcode.NewQRCodeReader(),
	}
	for _, r := range readers {
		if result, err := r.Decode(bmp, nil); err == nil {
			return result.GetText(), nil
		}
	}
	return "", ErrNoCode
}

package output

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"livelox_dl/internal/models"
)

// DefaultQuality is used when no JPEG quality is configured.
const DefaultQuality = 90

// EncodeJPEG encodes img as a JPEG. Quality outside 1..100 is clamped, zero
// selects DefaultQuality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: nothing to encode", models.ErrRenderFailure)
	}
	switch {
	case quality == 0:
		quality = DefaultQuality
	case quality < 1:
		quality = 1
	case quality > 100:
		quality = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: jpeg encode: %v", models.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

package ai

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	defaultMaxImageSide = 1568
	jpegQuality         = 85
)

// NormalizeImage decodes a photo, applies EXIF orientation, shrinks it so
// the longest side is at most maxSide and re-encodes it as JPEG.
func NormalizeImage(data []byte, maxSide int) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

package imagemetrics

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when there are no bytes to decode
var ErrEmptyImage = errors.New("empty image data")

// Decode decodes JPEG, PNG, GIF or WebP bytes, applying EXIF orientation so
// selfies taken in portrait are measured upright
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}

// ComputeBytes decodes data and computes its metrics. Undecodable input yields
// DefaultMetrics together with the decode error so callers can log it.
func (c *Calculator) ComputeBytes(data []byte) (Metrics, error) {
	img, err := Decode(data)
	if err != nil {
		return DefaultMetrics(), err
	}
	return c.Compute(img), nil
}

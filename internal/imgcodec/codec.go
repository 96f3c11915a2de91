// Package imgcodec decodes downloaded images and re-encodes them for
// storage: PNG when the source carries transparency, JPEG otherwise. The
// format choice is pure, the same input always encodes the same way.
package imgcodec

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Storage extensions, in disk probe order.
const (
	ExtPNG = "png"
	ExtJPG = "jpg"
)

// Extensions lists every extension an entry may be stored under.
func Extensions() []string {
	return []string{ExtPNG, ExtJPG}
}

// Decode parses image bytes in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// Encode serializes img for storage and returns the bytes together with the
// extension they belong under.
func Encode(img image.Image, jpegQuality int) ([]byte, string, error) {
	var buf bytes.Buffer
	if HasAlpha(img) {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", errors.Wrap(err, "encode png")
		}
		return buf.Bytes(), ExtPNG, nil
	}

	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), ExtJPG, nil
}

// HasAlpha reports whether img has any non-opaque pixel.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// Package thumbnail scales images down to fixed widths.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strconv"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var widths = [...]int{500, 250, 100}

// Widths returns the thumbnail widths derived for every uploaded image.
func Widths() []int {
	w := widths
	return w[:]
}

// ErrDecode is returned when the source bytes are not a supported image.
var ErrDecode = errors.New("unsupported image data")

// VariantName returns the blob name of the width-pixel variant of base.
func VariantName(base string, width int) string {
	return base + "_" + strconv.Itoa(width)
}

// SupportedWidth reports whether width is one of Widths.
func SupportedWidth(width int) bool {
	for _, w := range widths {
		if w == width {
			return true
		}
	}
	return false
}

// Decode parses src into an image, returning its format name.
func Decode(src []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// ContentType returns the MIME type of a variant produced by Resize, which
// may differ from the original upload's.
func ContentType(variant []byte) string {
	if bytes.HasPrefix(variant, jpegMagic) {
		return "image/jpeg"
	}
	return "image/png"
}

// Resize scales img to width pixels wide, keeping its aspect ratio, and
// encodes the result. JPEG sources stay JPEG; everything else becomes PNG.
func Resize(img image.Image, format string, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid width %d", width)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s thumbnail: %w", format, err)
	}
	return buf.Bytes(), nil
}

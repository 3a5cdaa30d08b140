package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Magic signatures for the upload formats accepted from cameras and galleries.
var sigs = []struct {
	sig    []byte
	format string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"}, // JPEG SOI
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
	{[]byte("GIF8"), "gif"},
}

// SniffFormat inspects the leading bytes and reports the image format,
// if it is one this service accepts.
func SniffFormat(b []byte) (string, bool) {
	for _, s := range sigs {
		if bytes.HasPrefix(b, s.sig) {
			return s.format, true
		}
	}
	return "", false
}

// Decode decodes raw upload bytes into a pixel image.
func Decode(b []byte) (image.Image, error) {
	format, ok := SniffFormat(b)
	if !ok {
		return nil, fmt.Errorf("unsupported or invalid image format")
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		slog.Debug("Image decode failed", "format", format, "size", len(b), "error", err)
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return img, nil
}

// DecodeBase64 decodes a standard-base64 string into a pixel image.
func DecodeBase64(s string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	return Decode(data)
}

// PNGBase64 encodes an image to a base64 PNG string, the wire format the
// external OCR and face engines accept.
func PNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio)
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src // already small enough
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos and printed text
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

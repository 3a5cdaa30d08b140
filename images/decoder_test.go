package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
		ok       bool
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "png", true},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg", true},
		{"gif", []byte("GIF89a"), "gif", true},
		{"text", []byte("hello world"), "", false},
		{"empty", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := SniffFormat(tt.data)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, format)
		})
	}
}

func TestDecode(t *testing.T) {
	img, err := Decode(pngBytes(t, 8, 6))
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
	require.Equal(t, 6, img.Bounds().Dy())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)

	// Valid magic bytes but truncated body
	_, err = Decode([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	require.Error(t, err)
}

func TestDecodeBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))

	img, err := DecodeBase64(encoded)
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())

	_, err = DecodeBase64("not base64 at all!!!")
	require.Error(t, err)
}

func TestPNGBase64RoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 7))

	encoded, err := PNGBase64(src)
	require.NoError(t, err)

	decoded, err := DecodeBase64(encoded)
	require.NoError(t, err)
	require.Equal(t, 5, decoded.Bounds().Dx())
	require.Equal(t, 7, decoded.Bounds().Dy())
}

func TestResizeToFit(t *testing.T) {
	large := image.NewRGBA(image.Rect(0, 0, 400, 200))
	resized := resizeToFit(large, 100, 100)
	require.Equal(t, 100, resized.Bounds().Dx())
	require.Equal(t, 50, resized.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 40, 20))
	require.Equal(t, small, resizeToFit(small, 100, 100))
}

package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func TestGrayscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}

	g := Grayscale(src)
	require.Equal(t, 4, g.Bounds().Dx())
	require.Equal(t, 4, g.Bounds().Dy())
	require.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
}

func TestAdaptiveThresholdSeparatesInkFromPaper(t *testing.T) {
	// Light background with one dark stroke down the middle
	g := solidGray(16, 16, 200)
	for y := 0; y < 16; y++ {
		g.SetGray(8, y, color.Gray{Y: 20})
	}

	bin := AdaptiveThreshold(g, 11, 2)

	require.Equal(t, uint8(0), bin.GrayAt(8, 8).Y)
	require.Equal(t, uint8(255), bin.GrayAt(1, 8).Y)
}

func TestAdaptiveThresholdEmptyImage(t *testing.T) {
	bin := AdaptiveThreshold(image.NewGray(image.Rect(0, 0, 0, 0)), 11, 2)
	require.Equal(t, 0, bin.Bounds().Dx())
}

func TestMorphCloseFillsSmallHoles(t *testing.T) {
	// White block with a single dark pixel inside
	g := solidGray(8, 8, 255)
	g.SetGray(4, 4, color.Gray{Y: 0})

	closed := MorphClose(g, 2)
	require.Equal(t, uint8(255), closed.GrayAt(4, 4).Y)
}

func TestRotateDimensions(t *testing.T) {
	g := solidGray(6, 4, 128)

	for _, degrees := range []int{90, 270} {
		rotated := Rotate(g, degrees)
		require.Equal(t, 4, rotated.Bounds().Dx(), "degrees %d", degrees)
		require.Equal(t, 6, rotated.Bounds().Dy(), "degrees %d", degrees)
	}

	rotated := Rotate(g, 180)
	require.Equal(t, 6, rotated.Bounds().Dx())
	require.Equal(t, 4, rotated.Bounds().Dy())

	require.Equal(t, g, Rotate(g, 45))
}

func TestRotateRoundTrip(t *testing.T) {
	g := solidGray(5, 3, 0)
	g.SetGray(1, 2, color.Gray{Y: 200})

	// Two opposite quarter turns restore the original pixels
	restored := Rotate(Rotate(g, 90), 270)
	require.Equal(t, g.Pix, restored.Pix)

	// Four identical quarter turns do too
	full := Rotate(Rotate(Rotate(Rotate(g, 90), 90), 90), 90)
	require.Equal(t, g.Pix, full.Pix)
}

func TestRotate180TwiceRestores(t *testing.T) {
	g := solidGray(4, 4, 0)
	g.SetGray(0, 1, color.Gray{Y: 99})

	restored := Rotate(Rotate(g, 180), 180)
	require.Equal(t, g.Pix, restored.Pix)
}

func TestPreprocessOutputDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3200, 1600))

	out := Preprocess(src)
	require.LessOrEqual(t, out.Bounds().Dx(), maxOcrDimension)
	require.LessOrEqual(t, out.Bounds().Dy(), maxOcrDimension)
}

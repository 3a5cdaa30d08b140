package images

import (
	"image"
	"image/color"
	"image/draw"
)

const (
	// maxOcrDimension caps camera captures before thresholding; larger
	// inputs only add noise and OCR latency.
	maxOcrDimension = 1600

	thresholdWindow   = 11
	thresholdOffset   = 2
	closingKernelSize = 2
)

// Preprocess prepares a decoded ID photo for text recognition: downscale,
// grayscale, adaptive local thresholding, then a small morphological
// closing to heal broken strokes. It runs once per request; every OCR
// pass shares the result.
func Preprocess(src image.Image) *image.Gray {
	src = resizeToFit(src, maxOcrDimension, maxOcrDimension)
	g := Grayscale(src)
	bin := AdaptiveThreshold(g, thresholdWindow, thresholdOffset)
	return MorphClose(bin, closingKernelSize)
}

// Grayscale converts any image to 8-bit grayscale.
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// AdaptiveThreshold binarizes g against the mean of a window×window
// neighbourhood minus offset. Pixels brighter than the local mean become
// white (255), everything else black (0). A summed-area table keeps the
// neighbourhood mean O(1) per pixel.
func AdaptiveThreshold(g *image.Gray, window, offset int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	r := window / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-r), max(0, y-r)
			x1, y1 := min(w-1, x+r), min(h-1, y+r)
			count := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*(w+1)+x1+1] -
				integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]

			var v uint8
			if int64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) > sum/count-int64(offset) {
				v = 255
			}
			dst.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return dst
}

// MorphClose performs a morphological closing (dilate then erode) with a
// k×k kernel, filling small dark holes inside bright regions.
func MorphClose(g *image.Gray, k int) *image.Gray {
	return erode(dilate(g, k), k)
}

func dilate(g *image.Gray, k int) *image.Gray { return morph(g, k, true) }
func erode(g *image.Gray, k int) *image.Gray  { return morph(g, k, false) }

func morph(g *image.Gray, k int, maxFilter bool) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	lo := -(k / 2)
	hi := k - 1 - k/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			if !maxFilter {
				v = 255
			}
			for dy := lo; dy <= hi; dy++ {
				for dx := lo; dx <= hi; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					p := g.GrayAt(b.Min.X+nx, b.Min.Y+ny).Y
					if maxFilter && p > v {
						v = p
					} else if !maxFilter && p < v {
						v = p
					}
				}
			}
			dst.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return dst
}

// Rotate rotates a grayscale image counter-clockwise by 90, 180 or 270
// degrees. Any other angle returns the image unchanged.
func Rotate(g *image.Gray, degrees int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()

	switch degrees {
	case 90:
		dst := image.NewGray(image.Rect(0, 0, h, w))
		for y := 0; y < w; y++ {
			for x := 0; x < h; x++ {
				dst.SetGray(x, y, g.GrayAt(b.Min.X+w-1-y, b.Min.Y+x))
			}
		}
		return dst
	case 180:
		dst := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.SetGray(x, y, g.GrayAt(b.Min.X+w-1-x, b.Min.Y+h-1-y))
			}
		}
		return dst
	case 270:
		dst := image.NewGray(image.Rect(0, 0, h, w))
		for y := 0; y < w; y++ {
			for x := 0; x < h; x++ {
				dst.SetGray(x, y, g.GrayAt(b.Min.X+y, b.Min.Y+h-1-x))
			}
		}
		return dst
	default:
		return g
	}
}

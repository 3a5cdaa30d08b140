package face

import (
	"context"
	"image"
)

// BoundingBox is a detected face rectangle in pixel coordinates.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Detection is one face found by the engine: where it is, how confident
// the detector is, and the identity embedding computed from the crop.
type Detection struct {
	Box       BoundingBox
	Score     float64
	Embedding []float32
}

// Engine is the external face analysis engine. Implementations must be
// safe for concurrent use; the comparator detects both images at once.
type Engine interface {
	// DetectFaces returns every face found in the image, possibly none.
	DetectFaces(ctx context.Context, img image.Image) ([]Detection, error)

	// HealthCheck verifies the engine is reachable and its model loaded.
	HealthCheck() error
}

package ocr

import (
	"context"
	"image"
)

// PassConfig describes one engine invocation: the page segmentation mode
// the engine should assume, plus an optional character whitelist.
type PassConfig struct {
	Name        string
	PageSegMode int
	Whitelist   string
}

// Engine is the external optical character recognition engine. The loaded
// model is a long-lived process-wide resource owned by the caller;
// implementations must be safe for concurrent use.
type Engine interface {
	// RecognizeText runs the engine against a decoded image and returns
	// the recognized text, which may be empty.
	RecognizeText(ctx context.Context, img image.Image, pass PassConfig) (string, error)

	// HealthCheck verifies the engine is reachable and its model loaded.
	HealthCheck() error
}

// DefaultPasses is the fixed ordered pass list the normalizer runs against
// the preprocessed image. The digit whitelist pass recovers vertical ID
// numbers the layout-aware passes tend to mangle.
var DefaultPasses = []PassConfig{
	{Name: "uniform_block", PageSegMode: 6},
	{Name: "single_column", PageSegMode: 4},
	{Name: "single_line", PageSegMode: 7},
	{Name: "single_word", PageSegMode: 8},
	{Name: "sparse_text", PageSegMode: 11},
	{Name: "digit_whitelist", PageSegMode: 6, Whitelist: "0123456789*S"},
}

// Rotations are the quarter-turn angles (degrees counter-clockwise) tried
// against the preprocessed image with the uniform-block pass, for IDs
// photographed sideways or upside down.
var Rotations = []int{90, 180, 270}

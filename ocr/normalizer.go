package ocr

import (
	"context"
	"image"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-id-validator/images"
)

// Normalizer merges the output of many engine passes over one ID image
// into a single canonical text. The engine gives no per-pass confidence
// score, so the union of every non-empty result is the cheapest robust
// way to maximize recovered content.
type Normalizer struct {
	engine      Engine
	passes      []PassConfig
	rotations   []int
	maxParallel int
}

func NewNormalizer(engine Engine) *Normalizer {
	return &Normalizer{
		engine:      engine,
		passes:      DefaultPasses,
		rotations:   Rotations,
		maxParallel: runtime.GOMAXPROCS(0),
	}
}

// CanonicalText preprocesses the image once, fans the configured passes
// and rotations out over the engine, and joins the deduplicated non-empty
// results with newlines. When every pass comes back empty it falls back to
// one engine run against the raw unprocessed image. The second return
// value is false when no pass recovered any text at all.
func (n *Normalizer) CanonicalText(ctx context.Context, src image.Image) (string, bool) {
	pre := images.Preprocess(src)

	// Passes are independent, so they run in parallel. Results land in a
	// slice indexed by pass order and the merge below walks that order,
	// so scheduling never changes the canonical text.
	outputs := make([]string, len(n.passes)+len(n.rotations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.maxParallel)

	for i, pass := range n.passes {
		i, pass := i, pass
		g.Go(func() error {
			text, err := n.engine.RecognizeText(gctx, pre, pass)
			if err != nil {
				slog.Debug("OCR pass failed", "pass", pass.Name, "error", err)
				return nil
			}
			outputs[i] = text
			return nil
		})
	}

	base := len(n.passes)
	for i, degrees := range n.rotations {
		i, degrees := i, degrees
		g.Go(func() error {
			rotated := images.Rotate(pre, degrees)
			text, err := n.engine.RecognizeText(gctx, rotated, n.passes[0])
			if err != nil {
				slog.Debug("OCR rotation pass failed", "degrees", degrees, "error", err)
				return nil
			}
			outputs[base+i] = text
			return nil
		})
	}

	// Pass errors are swallowed above, so Wait only propagates ctx errors.
	_ = g.Wait()

	seen := make(map[string]struct{})
	var parts []string
	for _, text := range outputs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		parts = append(parts, text)
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), true
	}

	slog.Debug("All OCR passes empty, retrying against the raw image")
	text, err := n.engine.RecognizeText(ctx, src, n.passes[0])
	if err != nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

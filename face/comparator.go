package face

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/sync/errgroup"

	"go-id-validator/models"
)

const (
	// DefaultMatchThreshold is deliberately permissive: ID portraits are
	// low resolution, often years old and printed behind laminate, so
	// similarity against a live selfie runs far below same-photo scores.
	DefaultMatchThreshold = 0.10

	// MinDetectionScore rejects detections the engine itself is unsure
	// about before their embeddings get compared.
	MinDetectionScore = 0.6

	// MinFaceWidth in pixels. Below this the embedding degrades into noise.
	MinFaceWidth = 100
)

// Comparator decides whether the face on an ID document and a live selfie
// belong to the same person. Quality gates run before any similarity math:
// a comparison on bad inputs is worse than no comparison.
type Comparator struct {
	engine    Engine
	threshold float64
}

func NewComparator(engine Engine, threshold float64) *Comparator {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Comparator{engine: engine, threshold: threshold}
}

// Compare detects faces in both images concurrently, applies the quality
// gates, and scores embedding similarity. A gate failure or a decode
// failure yields a non-match result with a reason; only an engine fault
// returns an error.
func (c *Comparator) Compare(ctx context.Context, idImg, selfieImg image.Image) (models.FaceComparisonResult, error) {
	if idImg == nil {
		return rejected(models.ReasonDecodeFailure, "Failed to decode ID image"), nil
	}
	if selfieImg == nil {
		return rejected(models.ReasonDecodeFailure, "Failed to decode selfie image"), nil
	}

	var idFaces, selfieFaces []Detection
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		idFaces, err = c.engine.DetectFaces(gctx, idImg)
		return err
	})
	g.Go(func() error {
		var err error
		selfieFaces, err = c.engine.DetectFaces(gctx, selfieImg)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.FaceComparisonResult{}, fmt.Errorf("face detection failed: %w", err)
	}

	if len(idFaces) == 0 {
		return rejected(models.ReasonNoFaceDetected, "No face detected in ID image"), nil
	}
	if len(selfieFaces) == 0 {
		return rejected(models.ReasonNoFaceDetected, "No face detected in selfie"), nil
	}
	if len(idFaces) > 1 {
		return rejected(models.ReasonMultipleFacesDetected,
			fmt.Sprintf("Multiple faces detected in ID image (%d) - must be exactly one", len(idFaces))), nil
	}
	if len(selfieFaces) > 1 {
		return rejected(models.ReasonMultipleFacesDetected,
			fmt.Sprintf("Multiple faces detected in selfie (%d) - must be exactly one", len(selfieFaces))), nil
	}

	idFace, selfieFace := idFaces[0], selfieFaces[0]

	if idFace.Score < MinDetectionScore {
		return rejected(models.ReasonLowQualityFace,
			fmt.Sprintf("Low-quality face in ID image (score: %.2f, required: >=%.1f)", idFace.Score, MinDetectionScore)), nil
	}
	if selfieFace.Score < MinDetectionScore {
		return rejected(models.ReasonLowQualityFace,
			fmt.Sprintf("Low-quality face in selfie (score: %.2f, required: >=%.1f)", selfieFace.Score, MinDetectionScore)), nil
	}
	if idFace.Box.Width() < MinFaceWidth {
		return rejected(models.ReasonFaceTooSmall,
			fmt.Sprintf("ID face too small (width: %.0fpx, required: >=%.0fpx)", idFace.Box.Width(), float64(MinFaceWidth))), nil
	}
	if selfieFace.Box.Width() < MinFaceWidth {
		return rejected(models.ReasonFaceTooSmall,
			fmt.Sprintf("Selfie face too small (width: %.0fpx, required: >=%.0fpx)", selfieFace.Box.Width(), float64(MinFaceWidth))), nil
	}

	similarity, err := cosineSimilarity(idFace.Embedding, selfieFace.Embedding)
	if err != nil {
		return models.FaceComparisonResult{}, err
	}

	result := models.FaceComparisonResult{
		Similarity: similarity,
		IsMatch:    similarity >= c.threshold,
		Reason:     models.ReasonOK,
	}
	if result.IsMatch {
		result.Message = fmt.Sprintf("Face match confirmed (similarity: %.3f)", similarity)
	} else {
		result.Message = fmt.Sprintf("Face does not match (similarity: %.3f, required: %.2f)", similarity, c.threshold)
	}
	return result, nil
}

func rejected(reason models.ReasonCode, message string) models.FaceComparisonResult {
	return models.FaceComparisonResult{
		Similarity: 0,
		IsMatch:    false,
		Reason:     reason,
		Message:    message,
	}
}

// cosineSimilarity computes the cosine of the angle between two
// embeddings. The engine normalizes its embeddings to unit length, so
// this reduces to a dot product, but the norms are computed anyway to
// stay correct against engines that do not.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty embeddings")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

package face

import (
	"context"
	"errors"
	"image"
	"testing"

	"go-id-validator/models"

	"github.com/stretchr/testify/require"
)

// stubEngine returns canned detections per image, keyed by pointer identity.
type stubEngine struct {
	detections map[image.Image][]Detection
	err        error
}

func (s *stubEngine) DetectFaces(ctx context.Context, img image.Image) ([]Detection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detections[img], nil
}

func (s *stubEngine) HealthCheck() error { return nil }

func goodDetection(embedding []float32) Detection {
	return Detection{
		Box:       BoundingBox{X0: 10, Y0: 10, X1: 210, Y1: 250},
		Score:     0.9,
		Embedding: embedding,
	}
}

func testImages() (image.Image, image.Image) {
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), image.NewRGBA(image.Rect(0, 0, 48, 64))
}

func TestCompareIdenticalEmbeddings(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {goodDetection([]float32{0.6, 0.8, 0})},
		selfieImg: {goodDetection([]float32{0.6, 0.8, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.True(t, result.IsMatch)
	require.Equal(t, models.ReasonOK, result.Reason)
	require.InDelta(t, 1.0, result.Similarity, 0.001)
	require.Contains(t, result.Message, "Face match confirmed")
}

func TestCompareOrthogonalEmbeddings(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {goodDetection([]float32{1, 0, 0})},
		selfieImg: {goodDetection([]float32{0, 1, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.False(t, result.IsMatch)
	require.Equal(t, models.ReasonOK, result.Reason)
	require.InDelta(t, 0.0, result.Similarity, 0.001)
	require.Contains(t, result.Message, "Face does not match")
}

func TestCompareNoFaceInId(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		selfieImg: {goodDetection([]float32{1, 0, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.False(t, result.IsMatch)
	require.Equal(t, models.ReasonNoFaceDetected, result.Reason)
	require.Equal(t, "No face detected in ID image", result.Message)
	require.Zero(t, result.Similarity)
}

func TestCompareNoFaceInSelfie(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg: {goodDetection([]float32{1, 0, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.Equal(t, models.ReasonNoFaceDetected, result.Reason)
	require.Equal(t, "No face detected in selfie", result.Message)
}

// Two faces disqualify the image even when both embeddings would match.
func TestCompareMultipleFacesInId(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {goodDetection([]float32{1, 0, 0}), goodDetection([]float32{1, 0, 0})},
		selfieImg: {goodDetection([]float32{1, 0, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.False(t, result.IsMatch)
	require.Equal(t, models.ReasonMultipleFacesDetected, result.Reason)
	require.Contains(t, result.Message, "Multiple faces detected in ID image (2)")
	require.Zero(t, result.Similarity)
}

func TestCompareLowQualityFace(t *testing.T) {
	idImg, selfieImg := testImages()
	lowQuality := goodDetection([]float32{1, 0, 0})
	lowQuality.Score = 0.4
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {lowQuality},
		selfieImg: {goodDetection([]float32{1, 0, 0})},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.Equal(t, models.ReasonLowQualityFace, result.Reason)
	require.Contains(t, result.Message, "Low-quality face in ID image")
}

func TestCompareFaceTooSmall(t *testing.T) {
	idImg, selfieImg := testImages()
	small := goodDetection([]float32{1, 0, 0})
	small.Box = BoundingBox{X0: 10, Y0: 10, X1: 60, Y1: 80}
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {goodDetection([]float32{1, 0, 0})},
		selfieImg: {small},
	}}

	result, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.Equal(t, models.ReasonFaceTooSmall, result.Reason)
	require.Contains(t, result.Message, "Selfie face too small")
}

// Similarity exactly at the threshold counts as a match.
func TestCompareThresholdBoundary(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{detections: map[image.Image][]Detection{
		idImg:     {goodDetection([]float32{1, 0})},
		selfieImg: {goodDetection([]float32{0.1, 0.99498743710662})},
	}}

	result, err := NewComparator(engine, DefaultMatchThreshold).Compare(context.Background(), idImg, selfieImg)
	require.NoError(t, err)
	require.InDelta(t, 0.10, result.Similarity, 0.0001)
	require.True(t, result.IsMatch)
}

func TestCompareNilImages(t *testing.T) {
	idImg, _ := testImages()
	engine := &stubEngine{}
	comparator := NewComparator(engine, 0)

	result, err := comparator.Compare(context.Background(), nil, idImg)
	require.NoError(t, err)
	require.Equal(t, models.ReasonDecodeFailure, result.Reason)
	require.Equal(t, "Failed to decode ID image", result.Message)

	result, err = comparator.Compare(context.Background(), idImg, nil)
	require.NoError(t, err)
	require.Equal(t, models.ReasonDecodeFailure, result.Reason)
	require.Equal(t, "Failed to decode selfie image", result.Message)
}

// Engine faults surface as errors, they are not face rejections.
func TestCompareEngineError(t *testing.T) {
	idImg, selfieImg := testImages()
	engine := &stubEngine{err: errors.New("model not loaded")}

	_, err := NewComparator(engine, 0).Compare(context.Background(), idImg, selfieImg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "face detection failed")
}

func TestCosineSimilarityMismatchedLengths(t *testing.T) {
	_, err := cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	require.Error(t, err)
}

func TestNewComparatorDefaultThreshold(t *testing.T) {
	c := NewComparator(&stubEngine{}, 0)
	require.Equal(t, DefaultMatchThreshold, c.threshold)

	c = NewComparator(&stubEngine{}, 0.5)
	require.Equal(t, 0.5, c.threshold)
}

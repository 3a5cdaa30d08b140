package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go-id-validator/face"
	"go-id-validator/images"
)

// InsightFaceClient implements face.Engine against an InsightFace HTTP
// sidecar running the buffalo_l model.
type InsightFaceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewInsightFaceClient creates a new instance of InsightFaceClient
func NewInsightFaceClient(baseURL string) *InsightFaceClient {
	return &InsightFaceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Faces []struct {
		Bbox      [4]float64 `json:"bbox"`
		Score     float64    `json:"score"`
		Embedding []float32  `json:"embedding"`
	} `json:"faces"`
}

// DetectFaces sends an image to the engine and returns every detected face
func (c *InsightFaceClient) DetectFaces(ctx context.Context, img image.Image) ([]face.Detection, error) {
	url := fmt.Sprintf("%s/api/detect", c.baseURL)

	encoded, err := images.PNGBase64(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image for detection: %w", err)
	}

	jsonData, err := json.Marshal(detectRequest{Image: encoded})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face detection failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode detect response: %w", err)
	}

	detections := make([]face.Detection, 0, len(response.Faces))
	for _, f := range response.Faces {
		detections = append(detections, face.Detection{
			Box: face.BoundingBox{
				X0: f.Bbox[0],
				Y0: f.Bbox[1],
				X1: f.Bbox[2],
				Y1: f.Bbox[3],
			},
			Score:     f.Score,
			Embedding: f.Embedding,
		})
	}

	slog.Debug("Face detection completed", "faces", len(detections))
	return detections, nil
}

// HealthCheck verifies the face engine is available and its model loaded
func (c *InsightFaceClient) HealthCheck() error {
	url := fmt.Sprintf("%s/api/healthz", c.baseURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

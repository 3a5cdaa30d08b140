package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"go-id-validator/images"
	"go-id-validator/ocr"
)

// TesseractClient implements ocr.Engine against a Tesseract HTTP sidecar.
type TesseractClient struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewTesseractClient creates a new instance of TesseractClient
func NewTesseractClient(baseURL, language string) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	return &TesseractClient{
		baseURL:  baseURL,
		language: language,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type recognizeRequest struct {
	Image     string `json:"image"`
	Language  string `json:"lang"`
	PSM       int    `json:"psm"`
	Whitelist string `json:"whitelist,omitempty"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// RecognizeText sends one image and one pass configuration to the engine
// and returns whatever text it read.
func (c *TesseractClient) RecognizeText(ctx context.Context, img image.Image, pass ocr.PassConfig) (string, error) {
	url := fmt.Sprintf("%s/api/recognize", c.baseURL)

	encoded, err := images.PNGBase64(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode image for recognition: %w", err)
	}

	jsonData, err := json.Marshal(recognizeRequest{
		Image:     encoded,
		Language:  c.language,
		PSM:       pass.PageSegMode,
		Whitelist: pass.Whitelist,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute recognize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("recognize failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode recognize response: %w", err)
	}

	return response.Text, nil
}

// HealthCheck verifies the OCR engine is available
func (c *TesseractClient) HealthCheck() error {
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

package main

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-id-validator/ocr"
)

func TestTesseractClient_RecognizeText(t *testing.T) {
	// Create a mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recognize" {
			t.Errorf("Expected path /api/recognize, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}

		var request struct {
			Image     string `json:"image"`
			Language  string `json:"lang"`
			PSM       int    `json:"psm"`
			Whitelist string `json:"whitelist"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if request.Image == "" {
			t.Error("Expected base64 image in request")
		}
		if request.Language != "eng" {
			t.Errorf("Expected lang eng, got %s", request.Language)
		}
		if request.PSM != 6 {
			t.Errorf("Expected psm 6, got %d", request.PSM)
		}
		if request.Whitelist != "0123456789*S" {
			t.Errorf("Expected digit whitelist, got %s", request.Whitelist)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"text": "JUAN DELA CRUZ\n123456789"})
	}))
	defer server.Close()

	client := NewTesseractClient(server.URL, "")
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	text, err := client.RecognizeText(context.Background(), img, ocr.PassConfig{
		Name:        "digit_whitelist",
		PageSegMode: 6,
		Whitelist:   "0123456789*S",
	})
	if err != nil {
		t.Errorf("RecognizeText failed: %v", err)
	}
	if text != "JUAN DELA CRUZ\n123456789" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestTesseractClient_RecognizeText_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewTesseractClient(server.URL, "eng")
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	_, err := client.RecognizeText(context.Background(), img, ocr.DefaultPasses[0])
	if err == nil {
		t.Error("Expected error for server failure, got nil")
	}
}

func TestTesseractClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/healthz" {
			t.Errorf("Expected path /api/healthz, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewTesseractClient(server.URL, "eng")
	if err := client.HealthCheck(); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestTesseractClient_HealthCheck_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewTesseractClient(server.URL, "eng")
	if err := client.HealthCheck(); err == nil {
		t.Error("Expected error for unavailable engine, got nil")
	}
}

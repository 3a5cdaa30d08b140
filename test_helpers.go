package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-id-validator/face"
	"go-id-validator/ocr"
	"go-id-validator/validation"

	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

const testIdText = "JUAN DELA CRUZ\n123456789\n01/02/1990\nRepublic of Freedonia\nPassport Number"

func writeTestPrivateKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pemBytes, 0600))
	return path, key
}

// fakeTestOcrEngine returns the same canned text for every pass.
type fakeTestOcrEngine struct {
	text string
}

func (f fakeTestOcrEngine) RecognizeText(ctx context.Context, img image.Image, pass ocr.PassConfig) (string, error) {
	return f.text, nil
}

func (f fakeTestOcrEngine) HealthCheck() error { return nil }

// fakeTestFaceEngine reports one good face with the same embedding for
// every image, so any pair of test images counts as the same person.
type fakeTestFaceEngine struct{}

func (f fakeTestFaceEngine) DetectFaces(ctx context.Context, img image.Image) ([]face.Detection, error) {
	return []face.Detection{{
		Box:       face.BoundingBox{X0: 0, Y0: 0, X1: 180, Y1: 220},
		Score:     0.95,
		Embedding: []float32{0.6, 0.8},
	}}, nil
}

func (f fakeTestFaceEngine) HealthCheck() error { return nil }

func startTestServer(t *testing.T, storage SessionStore) *Server {
	t.Helper()

	keyPath, _ := writeTestPrivateKey(t)
	attestor, err := NewRsaAttestationCreator(keyPath, "id-validator-test")
	require.NoError(t, err)

	ocrEngine := fakeTestOcrEngine{text: testIdText}
	faceEngine := fakeTestFaceEngine{}

	testState := &ServerState{
		sessionStore: storage,
		validator: validation.New(
			ocr.NewNormalizer(ocrEngine),
			face.NewComparator(faceEngine, 0),
		),
		attestor:   attestor,
		ocrEngine:  ocrEngine,
		faceEngine: faceEngine,
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, "http://localhost:8081/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded *T
	var v T
	_ = json.Unmarshal(respBody, &v)
	decoded = &v

	return resp, respBody, decoded
}

func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

// start-validation bootstrap
func startValidation(t *testing.T) (sessionID, nonce string) {
	t.Helper()
	type startResp struct {
		SessionID string `json:"session_id"`
		Nonce     string `json:"nonce"`
	}
	resp, body, sr := postJSON[startResp](t, "http://localhost:8081/api/start-validation", nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.NotEmpty(t, sr.SessionID)
	require.NotEmpty(t, sr.Nonce)
	return sr.SessionID, sr.Nonce
}

// Test image builders. The ID image is landscape, the selfie portrait,
// which is how the fake face engine tells them apart.

func testPNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func testIdImageBase64(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(testPNGBytes(t, 64, 48))
}

func testSelfieImageBase64(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(testPNGBytes(t, 48, 64))
}

func validateIdPayload(t *testing.T, sessionId, nonce string) map[string]any {
	t.Helper()
	return map[string]any{
		"session_id":         sessionId,
		"nonce":              nonce,
		"idImage":            testIdImageBase64(t),
		"selfieImage":        testSelfieImageBase64(t),
		"userInputIdNumber":  "123456789",
		"userInputFirstName": "Juan",
		"userInputLastName":  "Dela Cruz",
		"userInputBirthday":  "01/02/1990",
		"userType":           "student",
	}
}

func multipartFaceBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	idPart, err := writer.CreateFormFile("id_image", "id.png")
	require.NoError(t, err)
	_, err = idPart.Write(testPNGBytes(t, 64, 48))
	require.NoError(t, err)

	selfiePart, err := writer.CreateFormFile("selfie_image", "selfie.png")
	require.NoError(t, err)
	_, err = selfiePart.Write(testPNGBytes(t, 48, 64))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

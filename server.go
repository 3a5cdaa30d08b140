package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go-id-validator/images"
	"go-id-validator/models"
	"go-id-validator/validation"

	"github.com/gorilla/mux"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_INVALID_NONCE_SESSION = "invalid session or nonce"
const ERR_NONCE_REMOVAL = "failed to remove nonce from storage"
const ERR_NONCE_RETRIEVAL = "failed to get nonce from storage"

const ERR_NO_IMAGE = "No image provided"
const ERR_BOTH_IMAGES_REQUIRED = "Both ID and selfie images required"

// maxMultipartMemory caps in-memory buffering of multipart uploads; larger
// parts spill to disk.
const maxMultipartMemory = 32 << 20

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

type ServerState struct {
	sessionStore SessionStore
	validator    *validation.Service
	attestor     AttestationCreator
	ocrEngine    HealthChecker
	faceEngine   HealthChecker
}

// HealthChecker is the probe surface of the external engines.
type HealthChecker interface {
	HealthCheck() error
}

type SpaHandler struct {
	staticPath string
	indexPath  string
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

// ServeHTTP inspects the URL path to locate a file within the static dir
// on the SPA handler. If a file is found, it will be served. If not, the
// file located at the index path on the SPA handler will be served. This
// is suitable behavior for serving an SPA (single page application).
// https://github.com/gorilla/mux?tab=readme-ov-file#serving-single-page-applications
func (h SpaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("SPA handler serving request", "path", r.URL.Path)
	// Join internally call path.Clean to prevent directory traversal
	path := filepath.Join(h.staticPath, r.URL.Path)
	// check whether a file exists or is a directory at the given path
	fi, err := os.Stat(path)
	if os.IsNotExist(err) || fi.IsDir() {
		// file does not exist or path is a directory, serve index.html
		slog.Debug("Serving index.html for path", "path", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	if err != nil {
		// if we got an error (that wasn't that the file doesn't exist) stating the
		// file, return a 500 internal server error and stop
		slog.Error("Error stating file", "path", path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// otherwise, use http.FileServer to serve the static file
	slog.Debug("Serving static file", "path", path)
	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(state, w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/start-validation", func(w http.ResponseWriter, r *http.Request) {
		handleStartValidation(state, w, r)
	})
	router.HandleFunc("/api/extract-text", func(w http.ResponseWriter, r *http.Request) {
		handleExtractText(state, w, r)
	})
	router.HandleFunc("/api/compare-face", func(w http.ResponseWriter, r *http.Request) {
		handleCompareFaceMultipart(state, w, r)
	})
	// Base64 variant is here for backwards compatibility with older app
	// builds that cannot send multipart uploads.
	router.HandleFunc("/api/compare-faces", func(w http.ResponseWriter, r *http.Request) {
		handleCompareFacesBase64(state, w, r)
	})
	router.HandleFunc("/api/validate-id", func(w http.ResponseWriter, r *http.Request) {
		handleValidateId(state, w, r)
	})

	slog.Debug("Registered all API routes")

	spa := SpaHandler{staticPath: "../frontend/build", indexPath: "index.html"}
	router.PathPrefix("/").Handler(spa)

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Validation runs many OCR passes against an external engine, so
		// the write timeout is far above the usual 15 seconds.
		WriteTimeout: 120 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

type HealthResponse struct {
	Ok         bool `json:"ok"`
	OcrEngine  bool `json:"ocr_engine"`
	FaceEngine bool `json:"face_engine"`
}

func handleHealth(state *ServerState, w http.ResponseWriter, r *http.Request) {
	slog.Debug("Health check request received")

	response := HealthResponse{Ok: true, OcrEngine: true, FaceEngine: true}
	if state.ocrEngine != nil {
		if err := state.ocrEngine.HealthCheck(); err != nil {
			slog.Warn("OCR engine health check failed", "error", err)
			response.OcrEngine = false
		}
	}
	if state.faceEngine != nil {
		if err := state.faceEngine.HealthCheck(); err != nil {
			slog.Warn("Face engine health check failed", "error", err)
			response.FaceEngine = false
		}
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func handleStartValidation(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start ID validation")

	slog.Debug("Generating session ID")
	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}
	slog.Debug("Session ID generated", "session_id", sessionId)

	slog.Debug("Generating nonce", "session_id", sessionId)
	nonce, err := GenerateNonce(8)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate nonce", err)
		return
	}

	// Stored until the validation round trip completes, then removed
	slog.Debug("Storing nonce in session storage", "session_id", sessionId)
	err = state.sessionStore.StoreNonce(sessionId, nonce)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store nonce", err)
		return
	}

	response := models.ValidationSessionResponse{
		SessionId: sessionId,
		Nonce:     nonce,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("ID validation session started successfully", "session_id", sessionId)
}

func handleExtractText(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to extract text from ID image")

	var request models.ExtractTextRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Image == "" {
		writeErrorJSON(w, http.StatusBadRequest, ERR_NO_IMAGE)
		return
	}

	img, err := images.DecodeBase64(request.Image)
	if err != nil {
		slog.Warn("Failed to decode ID image for text extraction", "error", err)
		writeErrorJSON(w, http.StatusBadRequest, "Failed to decode image")
		return
	}

	// A blank result is a valid outcome, the fields simply stay empty
	extracted, ok := state.validator.ExtractIdentity(r.Context(), img)
	if !ok {
		slog.Info("No text recovered from ID image")
	}

	if err := writeJSON(w, http.StatusOK, extracted); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Text extraction completed", "has_name", extracted.FullName != "", "has_id", extracted.IdNumber != "")
}

func handleCompareFaceMultipart(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received multipart face comparison request")

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeFaceError(w, http.StatusBadRequest, ERR_BOTH_IMAGES_REQUIRED)
		return
	}

	idImg, idErr := readMultipartImage(r, "id_image")
	selfieImg, selfieErr := readMultipartImage(r, "selfie_image")
	if idErr != nil || selfieErr != nil {
		slog.Warn("Multipart face comparison missing or unreadable images", "id_error", idErr, "selfie_error", selfieErr)
		writeFaceError(w, http.StatusBadRequest, ERR_BOTH_IMAGES_REQUIRED)
		return
	}

	result, err := state.validator.CompareFaces(r.Context(), idImg, selfieImg)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "face comparison failed", err)
		return
	}

	response := models.CompareFaceResponse{
		Similarity: result.Similarity,
		Match:      result.IsMatch,
		Message:    result.Message,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Face comparison completed", "match", result.IsMatch, "similarity", result.Similarity, "reason", result.Reason)
}

func handleCompareFacesBase64(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received base64 face comparison request")

	var request models.CompareFacesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.IdImage == "" || request.SelfieImage == "" {
		writeErrorJSON(w, http.StatusBadRequest, ERR_BOTH_IMAGES_REQUIRED)
		return
	}

	// Decode failures flow into the comparator as nil images so the
	// response keeps the same shape as every other rejection
	idImg := decodeOrNil(request.IdImage, "id image")
	selfieImg := decodeOrNil(request.SelfieImage, "selfie image")

	result, err := state.validator.CompareFaces(r.Context(), idImg, selfieImg)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "face comparison failed", err)
		return
	}

	response := models.CompareFacesResponse{
		IsMatch:    result.IsMatch,
		Confidence: result.Similarity,
		Similarity: result.Similarity,
		Message:    result.Message,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Face comparison completed", "match", result.IsMatch, "similarity", result.Similarity, "reason", result.Reason)
}

func handleValidateId(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to validate ID")

	request, err := decodeValidateIdRequest(r)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request")
		return
	}

	// Sessions are optional: the mobile app sends one, server-to-server
	// callers may not
	hasSession := request.SessionId != "" || request.Nonce != ""
	if hasSession {
		if err := validateSession(state.sessionStore, request.SessionId, request.Nonce); err != nil {
			respondWithErr(w, http.StatusBadRequest, ERR_INVALID_NONCE_SESSION, ERR_INVALID_NONCE_SESSION, err)
			return
		}
	}

	idImg := decodeOrNil(request.IdImage, "id image")
	selfieImg := decodeOrNil(request.SelfieImage, "selfie image")

	verdict := state.validator.ValidateID(r.Context(), validation.Request{
		IDImage:     idImg,
		SelfieImage: selfieImg,
		Input: models.UserInput{
			IdNumber:  request.UserInputIdNumber,
			FirstName: request.UserInputFirstName,
			LastName:  request.UserInputLastName,
			Birthday:  request.UserInputBirthday,
			Category:  request.UserType,
		},
	})

	if verdict.IsValid && state.attestor != nil {
		attestation, err := state.attestor.CreateAttestation(verdict)
		if err != nil {
			slog.Error("Failed to create verdict attestation", "error", err)
		} else {
			verdict.Attestation = attestation
		}
	}

	if err := writeJSON(w, http.StatusOK, verdict); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("ID validation completed", "valid", verdict.IsValid, "id_type", verdict.IdType, "session_id", request.SessionId)

	if hasSession {
		removeSessionNonce(state.sessionStore, request.SessionId)
	}
}

// -----------------------------------------------------------------------------------

// validateSession validates session and nonce
func validateSession(storage SessionStore, sessionId, nonce string) error {
	slog.Debug("Validating session and nonce", "session_id", sessionId)
	storedNonce, err := storage.RetrieveNonce(sessionId)
	if err != nil {
		slog.Warn("Failed to retrieve nonce from storage", "session_id", sessionId, "error", err)
		return fmt.Errorf("%s: %w", ERR_NONCE_RETRIEVAL, err)
	}

	if storedNonce == "" || storedNonce != nonce {
		slog.Warn("Invalid nonce or session", "session_id", sessionId, "nonce_empty", storedNonce == "", "nonce_match", storedNonce == nonce)
		return fmt.Errorf("%s", ERR_INVALID_NONCE_SESSION)
	}

	slog.Debug("Session validation successful", "session_id", sessionId)
	return nil
}

// removeSessionNonce removes the nonce and logs an error if that failed.
// The verdict has been written by this point, so failures only get logged.
func removeSessionNonce(storage SessionStore, sessionId string) {
	slog.Debug("Removing session nonce", "session_id", sessionId)
	if err := storage.RemoveNonce(sessionId); err != nil {
		slog.Error(ERR_NONCE_REMOVAL, "session_id", sessionId, "error", err)
	} else {
		slog.Debug("Session nonce removed successfully", "session_id", sessionId)
	}
}

// decodeValidateIdRequest decodes the request body
func decodeValidateIdRequest(r *http.Request) (models.ValidateIdRequest, error) {
	slog.Debug("Decoding validation request body")
	var request models.ValidateIdRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		slog.Warn("Failed to decode validation request", "error", err)
		return request, fmt.Errorf("decode request body: %w", err)
	}
	slog.Debug("Validation request decoded successfully", "session_id", request.SessionId)
	return request, nil
}

func decodeOrNil(b64, label string) image.Image {
	if b64 == "" {
		return nil
	}
	img, err := images.DecodeBase64(b64)
	if err != nil {
		slog.Warn("Failed to decode image", "which", label, "error", err)
		return nil
	}
	return img
}

func readMultipartImage(r *http.Request, field string) (image.Image, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", field, err)
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, fmt.Errorf("empty file for %s", field)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return images.Decode(data)
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := fmt.Sprintf("%x", sessionId)
	slog.Debug("Session ID generated successfully", "session_id", hexId)
	return hexId
}

// GenerateNonce Generates a random nonce
func GenerateNonce(i int) (string, error) {
	nonce := make([]byte, i)
	if _, err := rand.Read(nonce); err != nil {
		slog.Error("failed to generate nonce", "error", err)
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	hexString := hex.EncodeToString(nonce)
	slog.Debug("Nonce generated successfully", "length", i)
	return hexString, nil
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}

}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	if err := writeJSON(w, status, models.ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

// writeFaceError keeps the multipart endpoint's error responses in the
// same shape as its success responses, matching what the app expects
func writeFaceError(w http.ResponseWriter, status int, message string) {
	response := models.CompareFaceResponse{
		Similarity: 0,
		Match:      false,
		Message:    message,
	}
	if err := writeJSON(w, status, response); err != nil {
		slog.Error("failed to write face error response", "error", err)
	}
}

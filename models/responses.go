package models

// CompareFaceResponse is the wire shape of the multipart face endpoint.
type CompareFaceResponse struct {
	Similarity float64 `json:"similarity"`
	Match      bool    `json:"match"`
	Message    string  `json:"message"`
}

// CompareFacesResponse is the wire shape of the legacy base64 face endpoint.
// Confidence mirrors Similarity and is kept for backward compatibility.
type CompareFacesResponse struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"`
	Similarity float64 `json:"similarity"`
	Message    string  `json:"message"`
}

type ValidationSessionResponse struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

package models

// ReasonCode explains why a face comparison was disqualified before the
// similarity computation, or OK when the comparison ran to completion.
type ReasonCode string

const (
	ReasonOK                    ReasonCode = "ok"
	ReasonDecodeFailure         ReasonCode = "decode_failure"
	ReasonNoFaceDetected        ReasonCode = "no_face_detected"
	ReasonMultipleFacesDetected ReasonCode = "multiple_faces_detected"
	ReasonLowQualityFace        ReasonCode = "low_quality_face"
	ReasonFaceTooSmall          ReasonCode = "face_too_small"
)

// FaceComparisonResult is the outcome of comparing the single face on the
// ID document against the single face on the selfie.
//
// Invariant: IsMatch is true only when Reason is ReasonOK and Similarity
// reached the configured threshold; any disqualifying reason forces
// IsMatch=false and Similarity=0.
type FaceComparisonResult struct {
	Similarity float64    `json:"similarity"` // cosine similarity in [-1, 1]
	IsMatch    bool       `json:"isMatch"`
	Reason     ReasonCode `json:"reasonCode"`
	Message    string     `json:"message"`
}

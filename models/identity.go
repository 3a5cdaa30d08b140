package models

// ExtractedIdentity is the canonical output of the text extraction pipeline
// for one ID image. Empty fields mean the extractor found nothing usable.
// Instances are immutable after construction.
type ExtractedIdentity struct {
	RawText     string `json:"rawText"`
	FullName    string `json:"fullName,omitempty"`
	IdNumber    string `json:"idNumber,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// IdType labels a document as government-issued, student or unknown.
// It is derived from the raw text on every request, never stored.
type IdType string

const (
	IdTypeGovernment IdType = "government"
	IdTypeStudent    IdType = "student"
	IdTypeUnknown    IdType = "unknown"
)

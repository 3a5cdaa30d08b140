package models

// UserInput carries the identity fields the user declared about themselves,
// to be cross-checked against what was extracted from the ID document.
type UserInput struct {
	IdNumber  string
	FirstName string
	LastName  string
	Birthday  string
	Category  string // "student" or "professional"
}

// TextValidationResult holds the per-field outcome of matching extracted
// fields against user input.
//
// Invariant: IsValid == IdNumberMatch && NameMatch && BirthdayMatch.
type TextValidationResult struct {
	IdNumberMatch bool `json:"idNumberMatch"`
	NameMatch     bool `json:"nameMatch"`
	BirthdayMatch bool `json:"birthdayMatch"`
	IsValid       bool `json:"isValid"`
}

// ValidationVerdict is the aggregate result of a full ID validation run.
// It lives for the duration of one request and is never persisted here.
type ValidationVerdict struct {
	IsValid        bool                  `json:"isValid"`
	TextValidation *TextValidationResult `json:"textValidation,omitempty"`
	FaceMatch      *FaceComparisonResult `json:"faceMatch,omitempty"`
	ExtractedData  *ExtractedIdentity    `json:"extractedData,omitempty"`
	IdType         IdType                `json:"idType,omitempty"`
	IsGovernmentId bool                  `json:"isGovernmentId"`
	ErrorMessage   string                `json:"errorMessage,omitempty"`
	Attestation    string                `json:"attestation,omitempty"`
}

// Package validation orchestrates the full ID validation decision: OCR,
// field extraction, document classification, fuzzy field matching and
// face comparison, folded into one verdict.
package validation

import (
	"context"
	"image"
	"log/slog"

	"go-id-validator/extract"
	"go-id-validator/face"
	"go-id-validator/match"
	"go-id-validator/models"
	"go-id-validator/ocr"
)

// RejectedMessage is the only error text ever shown to an end user. The
// real cause goes to the log; the response stays opaque so the API leaks
// nothing about which internal stage failed.
const RejectedMessage = "Cannot validate your credentials."

// UserTypeProfessional marks accounts that may only register with a
// government-issued document.
const UserTypeProfessional = "professional"

// Request carries everything one validation needs: both decoded images
// and the fields the user declared about themselves.
type Request struct {
	IDImage     image.Image
	SelfieImage image.Image
	Input       models.UserInput
}

type Service struct {
	normalizer *ocr.Normalizer
	comparator *face.Comparator
}

func New(normalizer *ocr.Normalizer, comparator *face.Comparator) *Service {
	return &Service{normalizer: normalizer, comparator: comparator}
}

// ValidateID runs the whole pipeline. It always returns a verdict: any
// internal fault collapses into a generic rejection rather than an error
// the handler might leak.
func (s *Service) ValidateID(ctx context.Context, req Request) (verdict models.ValidationVerdict) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Validation pipeline panicked", "panic", r)
			verdict = rejectedVerdict()
		}
	}()

	if req.IDImage == nil {
		slog.Warn("Validation requested without a decodable ID image")
		return rejectedVerdict()
	}

	text, ok := s.normalizer.CanonicalText(ctx, req.IDImage)
	if !ok {
		slog.Warn("OCR recovered no text from ID image")
		return rejectedVerdict()
	}

	extracted := extract.Fields(text)
	idType := extract.Classify(text)
	isGovernment := idType == models.IdTypeGovernment

	if req.Input.Category == UserTypeProfessional && !isGovernment {
		slog.Info("Professional registration rejected", "idType", idType)
		return models.ValidationVerdict{
			IsValid:        false,
			IdType:         idType,
			IsGovernmentId: false,
			ErrorMessage:   RejectedMessage,
		}
	}

	textResult := match.ValidateFields(extracted, req.Input)

	faceResult, err := s.comparator.Compare(ctx, req.IDImage, req.SelfieImage)
	if err != nil {
		slog.Error("Face comparison failed", "error", err)
		return rejectedVerdict()
	}

	verdict = models.ValidationVerdict{
		IsValid:        textResult.IsValid && faceResult.IsMatch,
		TextValidation: &textResult,
		FaceMatch:      &faceResult,
		ExtractedData:  &extracted,
		IdType:         idType,
		IsGovernmentId: isGovernment,
	}
	if !verdict.IsValid {
		verdict.ErrorMessage = RejectedMessage
	}
	return verdict
}

// ExtractIdentity exposes just the OCR and extraction stages, for the
// endpoint that returns fields without making a decision.
func (s *Service) ExtractIdentity(ctx context.Context, img image.Image) (models.ExtractedIdentity, bool) {
	if img == nil {
		return models.ExtractedIdentity{}, false
	}
	text, ok := s.normalizer.CanonicalText(ctx, img)
	if !ok {
		return models.ExtractedIdentity{}, false
	}
	return extract.Fields(text), true
}

// CompareFaces exposes the comparator for the standalone face endpoints.
func (s *Service) CompareFaces(ctx context.Context, idImg, selfieImg image.Image) (models.FaceComparisonResult, error) {
	return s.comparator.Compare(ctx, idImg, selfieImg)
}

func rejectedVerdict() models.ValidationVerdict {
	return models.ValidationVerdict{
		IsValid:      false,
		ErrorMessage: RejectedMessage,
	}
}

package extract

import (
	"strings"

	"go-id-validator/models"
)

var governmentIndicators = []string{
	"driver", "driving", "license", "dl", "d.l.",
	"national id", "national identification", "nid", "national identity",
	"passport", "passport no", "passport number",
	"department of motor vehicles", "dmv", "d.m.v.",
	"department of state", "ministry of", "government",
	"republic of", "federal", "state id", "state identification",
	"official", "authorized", "issued by", "government issued",
	"valid until", "expires", "expiration date",
}

var studentIndicators = []string{
	"student", "student id", "student identification",
	"university", "college", "school", "academic",
	"student number", "matriculation", "enrollment",
	"campus", "institution", "educational",
}

// Classify guesses whether the OCR text came from a government-issued or
// a student document by counting indicator phrases. Two or more hits on a
// side is a confident call; a single hit still tips the balance, with
// government winning ties because a misclassified student card is the
// cheaper failure.
func Classify(text string) models.IdType {
	lower := strings.ToLower(text)

	gov := countIndicators(lower, governmentIndicators)
	student := countIndicators(lower, studentIndicators)

	switch {
	case gov >= 2:
		return models.IdTypeGovernment
	case student >= 2:
		return models.IdTypeStudent
	case gov > 0:
		return models.IdTypeGovernment
	case student > 0:
		return models.IdTypeStudent
	default:
		return models.IdTypeUnknown
	}
}

func countIndicators(lower string, indicators []string) int {
	n := 0
	for _, indicator := range indicators {
		if strings.Contains(lower, indicator) {
			n++
		}
	}
	return n
}

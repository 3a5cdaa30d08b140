// Package match compares user-declared identity fields against fields
// extracted from an ID document, with fuzzy tolerance for OCR noise.
package match

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"go-id-validator/models"
)

const (
	// IdNumberThreshold is strict: digits rarely misread in bulk, so a
	// near-exact match is required.
	IdNumberThreshold = 0.95

	// NameThreshold tolerates the character swaps and dropped accents
	// OCR inflicts on printed names.
	NameThreshold = 0.80

	BirthdayThreshold = 0.95
)

var nonDigits = regexp.MustCompile(`\D`)

// Ratio is a normalized similarity in [0,1] based on edit distance.
// Equal strings score 1; an empty side scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1 - float64(distance)/float64(longest)
}

// ValidateFields scores the user's declared fields against the extracted
// ones. IsValid requires the ID number and name to both match; birthday
// only counts against the user when both sides actually have one.
func ValidateFields(extracted models.ExtractedIdentity, input models.UserInput) models.TextValidationResult {
	result := models.TextValidationResult{
		IdNumberMatch: idNumberMatches(extracted.IdNumber, input.IdNumber),
		NameMatch:     nameMatches(extracted.FullName, input.FirstName, input.LastName),
		BirthdayMatch: birthdayMatches(extracted.DateOfBirth, input.Birthday),
	}
	result.IsValid = result.IdNumberMatch && result.NameMatch && result.BirthdayMatch
	return result
}

func idNumberMatches(extracted, declared string) bool {
	if extracted == "" || declared == "" {
		return false
	}
	return Ratio(digitsOnly(extracted), digitsOnly(declared)) >= IdNumberThreshold
}

// nameMatches tries the full "first last" form first, then falls back to
// matching either component alone. The fallbacks accept substring
// containment because IDs often print middle names or honorifics the
// user never declares.
func nameMatches(extracted, firstName, lastName string) bool {
	if extracted == "" {
		return false
	}
	extracted = strings.ToLower(strings.TrimSpace(extracted))
	first := strings.ToLower(strings.TrimSpace(firstName))
	last := strings.ToLower(strings.TrimSpace(lastName))
	full := strings.TrimSpace(first + " " + last)

	if Ratio(extracted, full) >= NameThreshold {
		return true
	}
	if first != "" && (Ratio(extracted, first) >= NameThreshold || strings.Contains(extracted, first)) {
		return true
	}
	if last != "" && (Ratio(extracted, last) >= NameThreshold || strings.Contains(extracted, last)) {
		return true
	}
	return false
}

// birthdayMatches never fails on an absent side: a birthday the user did
// not declare, or one OCR could not find, counts as a match.
func birthdayMatches(extracted, declared string) bool {
	if declared == "" || extracted == "" {
		return true
	}
	if digitsOnly(extracted) == digitsOnly(declared) {
		return true
	}
	return Ratio(extracted, declared) >= BirthdayThreshold
}

func digitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

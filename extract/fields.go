// Package extract pulls structured identity fields out of raw OCR text.
// The text is noisy by nature, so every extractor is best-effort: a field
// it cannot find is simply absent, never an error.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"go-id-validator/models"
)

var (
	bareIdPattern     = regexp.MustCompile(`\b\d{6,15}\b`)
	prefixedIdPattern = regexp.MustCompile(`(?i)[S*]\s*\d{4,15}\s*\*?`)
	digitRunPattern   = regexp.MustCompile(`\d{6,15}`)
	nonDigitPattern   = regexp.MustCompile(`\D`)

	// Ordered by trust: fully qualified day-first, fully qualified
	// year-first, then a lenient catch-all for partial OCR reads.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{2}[/-]\d{2}[/-]\d{4}\b`),
		regexp.MustCompile(`\b\d{4}[/-]\d{2}[/-]\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
	}
)

// Fields runs every extractor over the canonical OCR text and returns
// whatever could be recovered.
func Fields(text string) models.ExtractedIdentity {
	id := models.ExtractedIdentity{RawText: text}
	if name, ok := Name(text); ok {
		id.FullName = name
	}
	if number, ok := IDNumber(text); ok {
		id.IdNumber = number
	}
	if dob, ok := DateOfBirth(text); ok {
		id.DateOfBirth = dob
	}
	return id
}

// Name scans the first five non-blank lines for something shaped like a
// printed cardholder name: 3 to 40 characters, two to four words, letters
// only once hyphens and apostrophes are stripped.
func Name(text string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) > 5 {
		lines = lines[:5]
	}

	for _, line := range lines {
		if len(line) < 3 || len(line) > 40 {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if allAlphabetic(words) {
			return line, true
		}
	}
	return "", false
}

func allAlphabetic(words []string) bool {
	for _, word := range words {
		stripped := strings.NewReplacer("-", "", "'", "").Replace(word)
		if stripped == "" {
			return false
		}
		for _, r := range stripped {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// IDNumber recovers the document number from three angles at once:
// standalone digit runs, prefixed forms like S548025 or *S548025*, and
// digit runs reassembled from the whole text for numbers OCR split
// vertically. The longest candidate wins; ties keep the earliest.
func IDNumber(text string) (string, bool) {
	candidates := bareIdPattern.FindAllString(text, -1)

	for _, m := range prefixedIdPattern.FindAllString(text, -1) {
		candidates = append(candidates, nonDigitPattern.ReplaceAllString(m, ""))
	}

	// Reassembly sees every digit in the text, so printed dates would
	// fuse with adjacent digits into bogus long candidates. Blank the
	// date-shaped substrings out before concatenating.
	stripped := text
	for _, pattern := range datePatterns {
		stripped = pattern.ReplaceAllString(stripped, " ")
	}
	sequence := nonDigitPattern.ReplaceAllString(stripped, "")
	candidates = append(candidates, digitRunPattern.FindAllString(sequence, -1)...)

	best := ""
	for _, c := range candidates {
		if len(c) > len(best) {
			best = c
		}
	}
	return best, best != ""
}

// DateOfBirth returns the first date-shaped substring, trying the most
// specific pattern across the whole text before falling back to looser ones.
func DateOfBirth(text string) (string, bool) {
	for _, pattern := range datePatterns {
		if m := pattern.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

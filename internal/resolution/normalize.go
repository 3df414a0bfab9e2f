// Package resolution maps free-text company names onto canonical company
// entities and locates the business relationships implicated by an event.
package resolution

import (
	"regexp"
	"strings"

	"github.com/constructiq/safety-lead-pipeline/internal/apperrors"
)

var (
	suffixPattern  = regexp.MustCompile(`\b(INC|INCORPORATED|LLC|CORP|CORPORATION|CO|LTD|LIMITED|LP|LLP|PLC)\b\.?`)
	specialPattern = regexp.MustCompile(`[^A-Z0-9\s\-]`)
)

// NormalizeName converts a raw company name into its canonical comparison
// key: upper-cased, legal-entity suffixes and punctuation stripped, internal
// whitespace collapsed. Pure and deterministic; it never touches storage.
// Empty or whitespace-only input fails with an INVALID_NAME error.
func NormalizeName(raw string) (string, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return "", apperrors.InvalidName(raw)
	}

	name = suffixPattern.ReplaceAllString(name, "")
	name = specialPattern.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")

	if name == "" {
		return "", apperrors.InvalidName(raw)
	}
	return name, nil
}

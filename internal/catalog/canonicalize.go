package catalog

import (
	"strings"

	dErrors "lostfound/pkg/domain-errors"
)

// Canonicalize maps value onto the matching entry of allowed, ignoring case and
// surrounding whitespace, and returns the entry's own spelling.
//
// Errors: CodeValidation "<field> is required." for blank input, and
// "<field> must be one of: <allowed>" when nothing matches.
func Canonicalize(value string, allowed []string, field string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s is required.", field)
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return candidate, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "%s must be one of: %s", field, strings.Join(allowed, ", "))
}

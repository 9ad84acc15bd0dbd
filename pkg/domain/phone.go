package domain

import (
	"fmt"
	"regexp"
)

// DefaultPhonePattern matches ten-digit national mobile numbers (071, 073, 074,
// 077, 078 prefixes). Callers extract digits before validating.
const DefaultPhonePattern = `^07[13478]\d{7}$`

// PhoneValidator checks finder contact numbers against a fixed pattern.
type PhoneValidator struct {
	re *regexp.Regexp
}

// NewPhoneValidator compiles pattern. An empty pattern selects DefaultPhonePattern.
func NewPhoneValidator(pattern string) (*PhoneValidator, error) {
	if pattern == "" {
		pattern = DefaultPhonePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile phone pattern: %w", err)
	}
	return &PhoneValidator{re: re}, nil
}

// Valid reports whether s matches the pattern.
func (v *PhoneValidator) Valid(s string) bool {
	return v.re.MatchString(s)
}

package domain

import "regexp"

var (
	passportPattern = regexp.MustCompile(`^[A-Z]{1,2}\d{6,7}$`)
	licencePattern  = regexp.MustCompile(`^[A-Z0-9]{5,12}$`)
)

// IsValidPassportNumber reports whether s looks like a passport number
// (one or two letters followed by six or seven digits). Input must already be
// upper-cased.
func IsValidPassportNumber(s string) bool {
	return passportPattern.MatchString(s)
}

// IsValidLicenceNumber reports whether s looks like a driving licence number.
func IsValidLicenceNumber(s string) bool {
	return licencePattern.MatchString(s)
}

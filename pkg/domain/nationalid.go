package domain

import (
	"regexp"
	"strconv"
)

// checkLetters maps a remainder (n mod 23) to the expected check letter.
// Remainder 0 is Z; 1..22 walk the alphabet with I, O and U skipped.
const checkLetters = "ZABCDEFGHJKLMNPQRSTVWXY"

// CheckModulus is the modulus of the national ID checksum.
const CheckModulus = 23

var nationalIDPattern = regexp.MustCompile(`^(\d{2})-(\d{6,7})([A-Z])(\d{2})$`)

// DefaultDistrictCodes is the registration-district whitelist used for both the
// prefix and the suffix of a national ID number.
var DefaultDistrictCodes = []string{
	"01", "02", "03", "04", "05", "06", "07", "08",
	"10", "11", "12", "13", "14", "15", "18", "19",
	"21", "22", "23", "24", "25", "26", "27", "28", "29",
	"32", "34", "35", "37", "38", "39",
	"41", "42", "43", "44", "45", "46", "47", "48", "49", "50",
	"53", "54", "56", "58", "59",
	"61", "63", "66", "67", "68",
	"70", "71", "73", "75", "77", "79",
	"80", "83", "84",
}

// NationalIDValidator checks national identity numbers of the form
// "<code>-<serial><letter><code>", e.g. "63-1234567K63".
type NationalIDValidator struct {
	codes map[string]struct{}
}

// NewNationalIDValidator builds a validator over the given district codes.
func NewNationalIDValidator(codes []string) *NationalIDValidator {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &NationalIDValidator{codes: set}
}

var defaultNationalIDValidator = NewNationalIDValidator(DefaultDistrictCodes)

// IsValidIDNumber validates s against the default district codes.
func IsValidIDNumber(s string) bool {
	return defaultNationalIDValidator.Valid(s)
}

// Valid reports whether s is structurally valid, both district codes are
// whitelisted, and the embedded letter matches the checksum. It never panics.
func (v *NationalIDValidator) Valid(s string) bool {
	m := nationalIDPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	prefix, serial, letter, suffix := m[1], m[2], m[3], m[4]
	if !v.HasCode(prefix) || !v.HasCode(suffix) {
		return false
	}
	expected, ok := ExpectedCheckLetter(prefix, serial)
	if !ok {
		return false
	}
	return letter[0] == expected
}

// HasCode reports whether code is a whitelisted district code.
func (v *NationalIDValidator) HasCode(code string) bool {
	_, ok := v.codes[code]
	return ok
}

// ExpectedCheckLetter computes the check letter for a district prefix and
// serial. ok is false when the digits do not parse.
func ExpectedCheckLetter(prefix, serial string) (letter byte, ok bool) {
	n, err := strconv.ParseUint(prefix+serial, 10, 64)
	if err != nil {
		return 0, false
	}
	return checkLetterFor(int(n % CheckModulus))
}

// checkLetterFor returns the letter for a remainder in [0, 22].
func checkLetterFor(remainder int) (byte, bool) {
	if remainder < 0 || remainder >= len(checkLetters) {
		return 0, false
	}
	return checkLetters[remainder], true
}

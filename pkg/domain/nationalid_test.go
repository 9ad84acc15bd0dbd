package domain

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// serialFor finds a 7-digit serial whose number with prefix has the wanted remainder.
func serialFor(t *testing.T, prefix string, remainder int) string {
	t.Helper()
	for s := 1000000; s < 1000000+CheckModulus; s++ {
		serial := strconv.Itoa(s)
		n, err := strconv.ParseUint(prefix+serial, 10, 64)
		require.NoError(t, err)
		if int(n%CheckModulus) == remainder {
			return serial
		}
	}
	t.Fatalf("no serial for remainder %d", remainder)
	return ""
}

func letterFor(t *testing.T, remainder int) byte {
	t.Helper()
	l, ok := checkLetterFor(remainder)
	if !ok {
		t.Fatalf("no check letter for remainder %d", remainder)
	}
	return l
}

func TestCheckLetterOutOfRange(t *testing.T) {
	for _, r := range []int{-1, CheckModulus, 100} {
		l, ok := checkLetterFor(r)
		assert.False(t, ok, "remainder %d", r)
		assert.Zero(t, l)
	}
}

func TestCheckLetterTable(t *testing.T) {
	assert.Equal(t, byte('Z'), letterFor(t, 0))
	assert.Equal(t, byte('A'), letterFor(t, 1))
	assert.Equal(t, byte('B'), letterFor(t, 2))
	assert.Equal(t, byte('H'), letterFor(t, 8))
	assert.Equal(t, byte('J'), letterFor(t, 9), "I is skipped")
	assert.Equal(t, byte('P'), letterFor(t, 14), "O is skipped")
	assert.Equal(t, byte('V'), letterFor(t, 19), "U is skipped")
	assert.Equal(t, byte('Y'), letterFor(t, 22))

	seen := make(map[byte]bool)
	for r := 0; r < CheckModulus; r++ {
		l := letterFor(t, r)
		assert.False(t, seen[l], "letter %c repeated", l)
		assert.NotContains(t, []byte{'I', 'O', 'U'}, l)
		seen[l] = true
	}
}

// TestIsValidIDNumber_EveryRemainder checks that for each remainder exactly the
// table letter is accepted and the other 22 table letters are rejected.
func TestIsValidIDNumber_EveryRemainder(t *testing.T) {
	for r := 0; r < CheckModulus; r++ {
		serial := serialFor(t, "63", r)
		expected := letterFor(t, r)

		t.Run(fmt.Sprintf("remainder %d", r), func(t *testing.T) {
			valid := fmt.Sprintf("63-%s%c63", serial, expected)
			assert.True(t, IsValidIDNumber(valid), "expected %s to be valid", valid)

			for i := 0; i < CheckModulus; i++ {
				other := letterFor(t, i)
				if other == expected {
					continue
				}
				bad := fmt.Sprintf("63-%s%c63", serial, other)
				assert.False(t, IsValidIDNumber(bad), "expected %s to be rejected", bad)
			}
		})
	}
}

// TestIsValidIDNumber_OneLetterPerPair brute-forces every district code against
// a spread of 6- and 7-digit serials and asserts exactly one letter is accepted.
func TestIsValidIDNumber_OneLetterPerPair(t *testing.T) {
	serials := []string{"000000", "123456", "999999", "1000000", "1234567", "7654321", "9999999"}
	for s := 2000000; s < 2000000+CheckModulus; s++ {
		serials = append(serials, strconv.Itoa(s))
	}

	for _, code := range DefaultDistrictCodes {
		for _, serial := range serials {
			accepted := 0
			for i := 0; i < len(allLetters); i++ {
				if IsValidIDNumber(fmt.Sprintf("%s-%s%c%s", code, serial, allLetters[i], code)) {
					accepted++
				}
			}
			if accepted != 1 {
				t.Fatalf("code %s serial %s: expected exactly one accepted letter, got %d", code, serial, accepted)
			}
		}
	}
}

func TestIsValidIDNumber_Structure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"known good", "02-1234567A02", true},
		{"six digit serial", "63-123456" + string(mustLetter(t, "63", "123456")) + "63", true},
		{"prefix and suffix may differ", "02-1234567A63", true},
		{"empty", "", false},
		{"lowercase letter", "02-1234567a02", false},
		{"missing dash", "021234567A02", false},
		{"missing suffix", "02-1234567A", false},
		{"five digit serial", "02-12345" + "A02", false},
		{"eight digit serial", "02-12345678A02", false},
		{"unknown prefix", "99-1234567A02", false},
		{"unknown suffix", "02-1234567A99", false},
		{"surrounding whitespace", " 02-1234567A02 ", false},
		{"non ascii digits", "٠٢-1234567A02", false},
		{"wrong letter", "02-1234567B02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidIDNumber(tt.input))
		})
	}
}

func TestNationalIDValidator_CustomCodes(t *testing.T) {
	v := NewNationalIDValidator([]string{"63"})

	assert.True(t, v.Valid("63-1234567D63"))
	assert.False(t, v.Valid("02-1234567A02"), "02 is not whitelisted here")
	assert.True(t, v.HasCode("63"))
	assert.False(t, v.HasCode("02"))
}

func mustLetter(t *testing.T, prefix, serial string) byte {
	t.Helper()
	l, ok := ExpectedCheckLetter(prefix, serial)
	require.True(t, ok)
	return l
}

func FuzzIsValidIDNumber(f *testing.F) {
	f.Add("02-1234567A02")
	f.Add("")
	f.Add("63-123456Z63")
	f.Add("99999999999999999999-1A02")
	f.Add(string([]byte{0xff, 0xfe}))

	f.Fuzz(func(t *testing.T, input string) {
		if !IsValidIDNumber(input) {
			return
		}
		m := nationalIDPattern.FindStringSubmatch(input)
		if m == nil {
			t.Fatalf("accepted %q without matching the structural pattern", input)
		}
		want, ok := ExpectedCheckLetter(m[1], m[2])
		if !ok || want != m[3][0] {
			t.Fatalf("accepted %q with wrong check letter", input)
		}
	})
}

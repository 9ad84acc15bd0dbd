package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lostfound/pkg/domain-errors"
)

func TestIsValidPassportNumber(t *testing.T) {
	for _, ok := range []string{"FN123456", "A1234567", "AB654321"} {
		assert.True(t, IsValidPassportNumber(ok), ok)
	}
	for _, bad := range []string{"", "fn123456", "FN12345", "ABC123456", "FN12345678", "FN 123456"} {
		assert.False(t, IsValidPassportNumber(bad), bad)
	}
}

func TestIsValidLicenceNumber(t *testing.T) {
	for _, ok := range []string{"12345", "123456AB", "ABCDEF123456"} {
		assert.True(t, IsValidLicenceNumber(ok), ok)
	}
	for _, bad := range []string{"", "1234", "ABCDEF1234567", "12-345", "abc123"} {
		assert.False(t, IsValidLicenceNumber(bad), bad)
	}
}

func TestPhoneValidator(t *testing.T) {
	v, err := NewPhoneValidator("")
	require.NoError(t, err)

	for _, ok := range []string{"0778123456", "0712345678", "0731234567", "0789999999"} {
		assert.True(t, v.Valid(ok), ok)
	}
	for _, bad := range []string{"", "077812345", "07781234567", "0798123456", "+263778123456", "0778 123456"} {
		assert.False(t, v.Valid(bad), bad)
	}

	_, err = NewPhoneValidator("([")
	assert.Error(t, err)
}

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE records;--", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Nil UUID", "00000000-0000-0000-0000-000000000000", true},
		{"Valid UUID", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseRecordID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
			assert.False(t, id.IsNil())
		})
	}

	assert.NotEqual(t, NewRecordID(), NewRecordID())
}

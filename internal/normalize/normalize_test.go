package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Harare", "harare"},
		{"  Harare Central Police  ", "harare central police"},
		{"COPACABANA", "copacabana"},
		{"", ""},
		{"   ", ""},
		{"Chipingé", "chipingé"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.in), "Text(%q)", tt.in)
	}
}

func TestText_Idempotent(t *testing.T) {
	for _, in := range []string{"Harare", " Mbare Musika ", "Ñandutí", "ZESA offices"} {
		once := Text(in)
		assert.Equal(t, once, Text(once))
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "FN123456", Key("fn123456"))
	assert.Equal(t, "FN123456", Key(" fn 123 456 "))
	assert.Equal(t, "02-1234567A02", Key("02-1234567a02"))
	assert.Equal(t, "", Key("   "))
}

func TestDisplayAndEqual(t *testing.T) {
	assert.Equal(t, "Harare Central Police", Display("  Harare Central Police "))
	assert.True(t, Equal("Harare Central Police", "harare central police "))
	assert.False(t, Equal("Harare Central Police", "Mbare Police"))
}

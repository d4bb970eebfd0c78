package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "ann@x.io", SanitizeEmail("  Ann@X.io "))
	assert.Equal(t, "ann@x.io", SanitizeEmail("<b>ann@x.io</b>"))
}

func TestSanitizePhone(t *testing.T) {
	tests := map[string]string{
		"5551212":         "5551212",
		"555-1212":        "5551212",
		" (555) 12.12 ":   "5551212",
		"+84 912 345 678": "+84912345678",
		"55+51212":        "5551212",
		"<i>5551212</i>":  "5551212",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizePhone(in), in)
	}
}

func TestSanitizeString(t *testing.T) {
	tests := map[string]string{
		"  Ann  ":         "Ann",
		"O'Brien":         "O'Brien",
		"Tom & Jerry":     "Tom & Jerry",
		"<script>":        "<script>",
		"Ann\x00\x1b Lee": "Ann Lee",
		"Ann\nLee":        "AnnLee",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeString(in), in)
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "1 Main St\nSpringfield", SanitizeText(" 1 Main St\nSpringfield\x00 "))
	assert.Equal(t, "Flat 2 & 3, O'Connell St", SanitizeText("Flat 2 & 3, O'Connell St"))
}

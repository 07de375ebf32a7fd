package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "03/15/2025", "2025-03-15"},
		{"unpadded", "3/5/2025", "2025-03-05"},
		{"trailing space", " 12/01/2024 ", "2024-12-01"},
		{"two fields", "03/2025", ""},
		{"four fields", "03/15/20/25", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromUS(tt.input))
		})
	}
}

func TestFromEU(t *testing.T) {
	assert.Equal(t, "2025-03-15", FromEU("15/03/2025"))
	assert.Equal(t, "", FromEU("15-03-2025"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical is a no-op", "2025-03-15", "2025-03-15"},
		{"slash input read as MM/DD/YYYY", "03/15/2025", "2025-03-15"},
		{"iso datetime truncated", "2025-03-15T00:00:00Z", "2025-03-15"},
		{"garbage returned unchanged", "next tuesday", "next tuesday"},
		{"impossible slash date returned unchanged", "13/45/2025", "13/45/2025"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, input := range []string{"2025-03-15", "03/15/2025", "not a date", ""} {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}

// A valid MM/DD/YYYY value survives normalize + re-render as the same
// calendar date.
func TestUSRoundTrip(t *testing.T) {
	for _, us := range []string{"01/01/2025", "03/15/2025", "12/31/1999", "02/29/2024"} {
		assert.Equal(t, us, ToUS(Normalize(us)))
	}
}

func TestParse(t *testing.T) {
	got, ok := Parse("2025-03-15")
	assert.True(t, ok)
	assert.Equal(t, "2025-03-15", got.Format("2006-01-02"))

	_, ok = Parse("")
	assert.False(t, ok)

	_, ok = Parse("soon")
	assert.False(t, ok)
}

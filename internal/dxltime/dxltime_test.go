package dxltime

// Notes:
// - Parse: tests full timestamps, zone offsets, fractional seconds,
//   bare dates, and rejection of malformed values

import (
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestParse - DXL DateTime Parsing
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "full timestamp UTC",
			input:    "20240305T143000,00",
			expected: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		},
		{
			name:     "positive zone offset hours",
			input:    "20240305T143000,00+09",
			expected: time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("", 9*3600)),
		},
		{
			name:     "negative zone offset with minutes",
			input:    "20240305T143000,00-0530",
			expected: time.Date(2024, 3, 5, 14, 30, 0, 0, time.FixedZone("", -(5*3600+30*60))),
		},
		{
			name:     "fractional seconds hundredths",
			input:    "20240305T143000,50",
			expected: time.Date(2024, 3, 5, 14, 30, 0, 500_000_000, time.UTC),
		},
		{
			name:     "bare date",
			input:    "20240305",
			expected: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "no fraction",
			input:    "19991231T235959",
			expected: time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:     "surrounding whitespace",
			input:    "  20240305T143000,00  ",
			expected: time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "not a date", input: "yesterday"},
		{name: "short date", input: "202403"},
		{name: "bad month", input: "20241305T000000"},
		{name: "truncated time", input: "20240305T1430"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			if !errors.Is(err, ErrInvalidDateTime) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidDateTime", tt.input, err)
			}
		})
	}
}

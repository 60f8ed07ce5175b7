package parse

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDateHeader(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		iso   string
		label string
	}{
		{
			name:  "day month two-digit year with weekday",
			line:  "13 Aug 25 (Wed)",
			iso:   "2025-08-13",
			label: "13 Aug (Wed)",
		},
		{
			name:  "four-digit year",
			line:  "1 January 2026",
			iso:   "2026-01-01",
			label: "1 January",
		},
		{
			name:  "full month name",
			line:  "28 February 25",
			iso:   "2025-02-28",
			label: "28 February",
		},
		{
			name:  "empty line",
			line:  "",
			iso:   "",
			label: "—",
		},
		{
			name:  "no date at all",
			line:  "weekly plan",
			iso:   "",
			label: "weekly plan",
		},
		{
			name:  "unknown month keeps label without year",
			line:  "13 Zzz 2025 (Wed)",
			iso:   "",
			label: "13 Zzz (Wed)",
		},
		{
			name:  "emoji markers stripped before matching",
			line:  "📅 13 Aug 25 (Wed)",
			iso:   "2025-08-13",
			label: "13 Aug (Wed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDateHeader(tt.line)
			assert.Equal(t, tt.iso, got.ISO)
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestParseDateHeaderDefaultsToCurrentYear(t *testing.T) {
	got := ParseDateHeader("13 Aug (Wed)")
	want := fmt.Sprintf("%04d-08-13", time.Now().Year())
	assert.Equal(t, want, got.ISO)
	assert.Equal(t, "13 Aug (Wed)", got.Label)
}

func TestParseDateHeaderTwoDigitYears(t *testing.T) {
	for yy := 0; yy < 100; yy += 7 {
		line := fmt.Sprintf("5 Mar %02d", yy)
		got := ParseDateHeader(line)
		want := fmt.Sprintf("%04d-03-05", 2000+yy)
		assert.Equal(t, want, got.ISO, "line %q", line)
	}
}

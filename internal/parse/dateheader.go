package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthTable maps month names and common abbreviations to month numbers.
// Lookups are lowercased; names outside this table do not resolve.
var monthTable = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var (
	// Characters outside word/space/parenthesis/slash/hyphen are noise
	// (emoji markers, stray punctuation) and are stripped before matching.
	headerNoiseRe = regexp.MustCompile(`[^\w\s()/\-]`)

	// 1-2 digit day, 3-9 letter month name, optional 2-4 digit year.
	dateHeaderRe = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3,9})\b\s*(\d{2,4})?`)

	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// ParseDateHeader converts a schedule header line such as "13 Aug 25 (Wed)"
// into a calendar date plus a display label. The ISO field is empty when no
// day/month can be located or the month name is unknown; the label always
// carries something usable for display, falling back to the raw trimmed
// line or an em-dash placeholder.
func ParseDateHeader(line string) DateHeader {
	cleaned := strings.TrimSpace(headerNoiseRe.ReplaceAllString(line, " "))

	m := dateHeaderRe.FindStringSubmatchIndex(cleaned)
	if m == nil {
		label := strings.TrimSpace(line)
		if label == "" {
			label = "—"
		}
		return DateHeader{Label: label}
	}

	day, _ := strconv.Atoi(cleaned[m[2]:m[3]])
	monthName := strings.ToLower(cleaned[m[4]:m[5]])

	year := time.Now().Year()
	if m[6] >= 0 {
		year, _ = strconv.Atoi(cleaned[m[6]:m[7]])
		if year < 100 {
			year += 2000
		}
	}

	// The label keeps the day, month and any trailing text (typically a
	// weekday parenthetical) but drops the year token.
	rest := cleaned[m[5]:]
	if m[6] >= 0 {
		rest = cleaned[m[7]:]
	}
	label := strings.TrimSpace(multiSpaceRe.ReplaceAllString(cleaned[m[0]:m[5]]+" "+rest, " "))
	if label == "" {
		label = "—"
	}

	month, ok := monthTable[monthName]
	if !ok {
		return DateHeader{Label: label}
	}

	return DateHeader{
		ISO:   fmt.Sprintf("%04d-%02d-%02d", year, month, day),
		Label: label,
	}
}

package parse

import (
	"regexp"
	"strings"
)

var (
	// Blocks are delimited by runs of two or more newlines (whitespace-only
	// lines count as blank).
	blankRunRe = regexp.MustCompile(`\n[ \t]*\n+`)

	bareCodeRe = regexp.MustCompile(`(?i)^[FS]\d$`)

	usSinceRe    = regexp.MustCompile(`(?i)\bu/s\s+since\s*:?[ \t]*([^\n]+)`)
	defectTextRe = regexp.MustCompile(`(?is)\bdefect\s*:[ \t]*(.*?)(?:\n[A-Z][A-Za-z /]{0,24}:|\n[ \t]*\n|\z)`)
	rectTextRe   = regexp.MustCompile(`(?is)\brect(?:ification)?\s*:[ \t]*(.*?)(?:\n[A-Z][A-Za-z /]{0,24}:|\n[ \t]*\n|\z)`)
	defectETRRe  = regexp.MustCompile(`(?i)\betr\s*:?[ \t]*([^\n]+)`)

	recoveryLineRe   = regexp.MustCompile(`(?im)^[ \t]*recovery[ \t]*$`)
	postPhaseRcvRe   = regexp.MustCompile(`(?i)\bpost\s+phase\s+rcv\b`)
	groundRunHeadRe  = regexp.MustCompile(`(?i)^g(?:rou)?nd\s+runs?(?:\s+req(?:uirement)?s?)?\s*:?\s*$`)
	flightChkHeadRe  = regexp.MustCompile(`(?i)^(?:flight\s+checks?|fcf)(?:\s+req(?:uirement)?s?)?\s*:?\s*$`)
	workcenterRe     = regexp.MustCompile(`(?im)^[ \t]*(?:w/?c|workcent(?:er|re))\s*:[ \t]*([^\n]+)`)
	primeTradeRe     = regexp.MustCompile(`(?im)^[ \t]*prime\s+trade\s*:[ \t]*([^\n]+)`)
	defectSystemRe   = regexp.MustCompile(`(?im)^[ \t]*system\s*:[ \t]*([^\n]+)`)
)

// ParseDefectBlocks splits a Telegram defect feed into per-unit records.
// A block consisting solely of a bare unit code opens a new record; every
// following block belongs to it until the next bare code. Blocks before
// the first code are discarded. Each field is extracted independently and
// tolerates absence.
func ParseDefectBlocks(text string) map[string]*DefectRecord {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	blocks := blankRunRe.Split(normalized, -1)

	records := make(map[string]*DefectRecord)
	var curCode string
	var curBlocks []string

	flush := func() {
		if curCode == "" {
			return
		}
		records[curCode] = buildDefectRecord(curCode, strings.Join(curBlocks, "\n\n"))
		curCode = ""
		curBlocks = nil
	}

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if bareCodeRe.MatchString(block) {
			flush()
			curCode = strings.ToUpper(block)
			continue
		}
		if curCode != "" {
			curBlocks = append(curBlocks, block)
		}
	}
	flush()

	return records
}

// buildDefectRecord scans a record's joined text with the per-field
// patterns.
func buildDefectRecord(code, text string) *DefectRecord {
	rec := &DefectRecord{UnitCode: code}

	if m := usSinceRe.FindStringSubmatch(text); m != nil {
		rec.UnserviceableSince = strings.TrimSpace(m[1])
	}
	if m := defectTextRe.FindStringSubmatch(text); m != nil {
		rec.DefectText = strings.TrimSpace(m[1])
	}
	if m := rectTextRe.FindStringSubmatch(text); m != nil {
		rec.RectText = strings.TrimSpace(m[1])
	}
	if m := defectETRRe.FindStringSubmatch(text); m != nil {
		rec.ETR = strings.TrimSpace(m[1])
	}
	rec.IsRecovery = recoveryLineRe.MatchString(text) || postPhaseRcvRe.MatchString(text)
	rec.GroundRunReqs = collectBullets(text, groundRunHeadRe)
	rec.FlightCheckReqs = collectBullets(text, flightChkHeadRe)
	if m := workcenterRe.FindStringSubmatch(text); m != nil {
		rec.Workcenter = strings.TrimSpace(m[1])
	}
	if m := primeTradeRe.FindStringSubmatch(text); m != nil {
		rec.PrimeTrade = strings.TrimSpace(m[1])
	}
	if m := defectSystemRe.FindStringSubmatch(text); m != nil {
		rec.System = strings.TrimSpace(m[1])
	}

	return rec
}

// collectBullets gathers the "-"/"•" bullet lines immediately following a
// heading line that matches head. Collection stops at the first
// non-bullet line.
func collectBullets(text string, head *regexp.Regexp) []string {
	lines := splitLines(text)
	for i, line := range lines {
		if !head.MatchString(strings.TrimSpace(line)) {
			continue
		}
		var items []string
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if !strings.HasPrefix(next, "-") && !strings.HasPrefix(next, "•") {
				break
			}
			item, _ := stripItemMarker(next)
			if item != "" {
				items = append(items, item)
			}
		}
		return items
	}
	return nil
}

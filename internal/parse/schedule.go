package parse

import (
	"regexp"
	"strings"
)

var (
	// Coded schedule line: unit code, optional separator, optional
	// compressed time range, free text.
	codedLineRe = regexp.MustCompile(`(?i)^([FS]\d)\b\s*[:\-]?\s*(?:(\d{3,4})\s*-\s*(\d{3,4}))?\s*(.*)$`)

	// Spare mentions. "spare window" is a scheduling-window reference,
	// not a spare declaration, and must not trigger spare detection.
	spareTokenRe  = regexp.MustCompile(`(?i)\bspare\b`)
	spareWindowRe = regexp.MustCompile(`(?i)\bspare\s+window\b`)
	anySpareRe    = regexp.MustCompile(`(?i)\b([FS]\d)\b.*\bspare\b`)
	nilSpareRe    = regexp.MustCompile(`(?i)^\s*nil\s+spare\b`)

	// Bulk notices addressed to the whole squadron or a detachment carry
	// no unit code but are still mission-relevant.
	bulkNoticePrefixes = []string{"sqn", "det"}

	timeRangeRe = regexp.MustCompile(`(\d{3,4})\s*-\s*(\d{3,4})`)

	healingLineRe = regexp.MustCompile(`(?i)^([FS]\d)\b\s*:?\s*(.*)$`)
)

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// mentionsSpare reports whether s declares a spare, excluding mentions of
// a "spare window".
func mentionsSpare(s string) bool {
	return spareTokenRe.MatchString(s) && !spareWindowRe.MatchString(s)
}

// ParseMissionLine classifies one trimmed line of an RTS block as a
// mission, a spare declaration, or noise. Noise (including empty and
// "nil" lines) yields nil.
func ParseMissionLine(line string) *ScheduleEntry {
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "nil") {
		return nil
	}

	if m := codedLineRe.FindStringSubmatch(line); m != nil {
		code := strings.ToUpper(m[1])
		timeRange := ""
		if m[2] != "" {
			timeRange = m[2] + "-" + m[3]
		}
		rest := strings.TrimSpace(m[4])

		if mentionsSpare(rest) || mentionsSpare(line) {
			label := code + " Spare"
			if loc := spareTokenRe.FindStringIndex(rest); loc != nil {
				if trailing := strings.TrimSpace(rest[loc[1]:]); trailing != "" {
					label += " " + trailing
				}
			}
			return &ScheduleEntry{Kind: KindSpare, UnitCode: code, Label: label}
		}

		label := strings.TrimSpace(multiSpaceRe.ReplaceAllString(strings.TrimSpace(timeRange+" "+rest), " "))
		return &ScheduleEntry{Kind: KindMission, UnitCode: code, Label: label}
	}

	if m := anySpareRe.FindStringSubmatch(line); m != nil && !spareWindowRe.MatchString(line) {
		return &ScheduleEntry{Kind: KindSpare, UnitCode: strings.ToUpper(m[1]), Label: line}
	}

	if nilSpareRe.MatchString(line) {
		return &ScheduleEntry{Kind: KindSpare, Label: "Nil Spare"}
	}

	lower := strings.ToLower(line)
	for _, prefix := range bulkNoticePrefixes {
		if strings.HasPrefix(lower, prefix) {
			// Prefix must be a whole word ("DET swap" yes, "detailed" no).
			if len(lower) == len(prefix) || !isLetter(lower[len(prefix)]) {
				return &ScheduleEntry{Kind: KindMission, Label: line}
			}
		}
	}

	return nil
}

// ParseHealingLine extracts the healing windows from one trimmed line.
// A line carrying several time ranges yields one entry per range, each
// sharing the text that follows the last range.
func ParseHealingLine(line string) []HealingEntry {
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "nil") {
		return nil
	}

	code := ""
	rest := line
	if m := healingLineRe.FindStringSubmatch(line); m != nil {
		code = strings.ToUpper(m[1])
		rest = strings.TrimSpace(m[2])
	}

	matches := timeRangeRe.FindAllStringSubmatchIndex(rest, -1)
	if len(matches) == 0 {
		return []HealingEntry{{UnitCode: code, Label: rest}}
	}

	// Text after the last range is shared by every window on the line.
	last := matches[len(matches)-1]
	trailing := strings.TrimLeft(rest[last[1]:], " \t,;")
	trailing = strings.TrimSpace(trailing)

	entries := make([]HealingEntry, 0, len(matches))
	for _, m := range matches {
		label := rest[m[2]:m[3]] + "-" + rest[m[4]:m[5]]
		if trailing != "" {
			label += " " + trailing
		}
		entries = append(entries, HealingEntry{UnitCode: code, Label: label})
	}
	return entries
}

// scanSection collects the lines belonging to one section, starting at
// start and stopping at the first line opening any of the terminating
// headers (or end of input). The stop index points AT the terminator so
// the caller re-examines it as the next header. Interior blank lines are
// kept as placeholders; trailing blanks are trimmed.
func scanSection(lines []string, start int, terminators []string) ([]string, int) {
	var term *regexp.Regexp
	if len(terminators) > 0 {
		quoted := make([]string, 0, len(terminators))
		for _, t := range terminators {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
		term = regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(quoted, "|") + `)`)
	}

	var collected []string
	i := start
	for ; i < len(lines); i++ {
		if term != nil && term.MatchString(lines[i]) {
			break
		}
		collected = append(collected, strings.TrimSpace(lines[i]))
	}
	for len(collected) > 0 && collected[len(collected)-1] == "" {
		collected = collected[:len(collected)-1]
	}
	return collected, i
}

// dayHeaders lists the recognized section headers of a daily schedule in
// the order they legally appear. Each section is terminated by any header
// that can follow it.
var dayHeaders = []string{"RTS:", "Healing", "Hot", "Cold", "Ops Brief", "Notes"}

var dayHeaderMatchers = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(dayHeaders))
	for i, h := range dayHeaders {
		res[i] = regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(h))
	}
	return res
}()

// matchDayHeader returns the index of the header opening the given line,
// or -1 when the line opens no recognized section.
func matchDayHeader(line string) int {
	for i, re := range dayHeaderMatchers {
		if re.MatchString(line) {
			return i
		}
	}
	return -1
}

// splitLines splits text into lines, tolerating CRLF endings.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// ParseDailySchedule turns one day's raw schedule text into a DayRecord.
// It returns nil only for empty input; degenerate input still yields a
// record with empty collections.
func ParseDailySchedule(text string) *DayRecord {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := splitLines(text)
	header := ParseDateHeader(lines[0])

	rec := &DayRecord{
		DateISO:   header.ISO,
		DateLabel: header.Label,
		Missions:  []ScheduleEntry{},
		Spares:    []ScheduleEntry{},
		Healing:   []HealingEntry{},
		Hot:       []string{},
		Cold:      []string{},
		Ops:       []string{},
		Notes:     []string{},
	}

	// Missions commonly appear directly under the date with no "RTS:"
	// label; everything before the first recognized header is treated as
	// an implicit mission list.
	implicit, i := scanSection(lines, 1, dayHeaders)
	rec.addMissionLines(implicit)

	for i < len(lines) {
		h := matchDayHeader(lines[i])
		if h < 0 {
			i++
			continue
		}

		// Inline content on the header line itself belongs to the section.
		first := strings.TrimLeft(dayHeaderMatchers[h].ReplaceAllString(lines[i], ""), ": \t")
		first = strings.TrimSpace(first)

		var content []string
		content, i = scanSection(lines, i+1, dayHeaders[h+1:])
		if first != "" {
			content = append([]string{first}, content...)
		}

		switch dayHeaders[h] {
		case "RTS:":
			rec.addMissionLines(content)
		case "Healing":
			for _, line := range content {
				rec.Healing = append(rec.Healing, ParseHealingLine(line)...)
			}
		case "Hot":
			rec.Hot = append(rec.Hot, keepVerbatim(content)...)
		case "Cold":
			rec.Cold = append(rec.Cold, keepVerbatim(content)...)
		case "Ops Brief":
			for _, line := range content {
				if line == "" {
					continue
				}
				rec.Ops = append(rec.Ops, strings.ReplaceAll(line, ";", ","))
			}
		case "Notes":
			for _, line := range content {
				if line != "" {
					rec.Notes = append(rec.Notes, line)
				}
			}
		}
	}

	return rec
}

// addMissionLines routes parsed schedule entries into the missions or
// spares list.
func (r *DayRecord) addMissionLines(lines []string) {
	for _, line := range lines {
		entry := ParseMissionLine(line)
		if entry == nil {
			continue
		}
		if entry.Kind == KindSpare {
			r.Spares = append(r.Spares, *entry)
		} else {
			r.Missions = append(r.Missions, *entry)
		}
	}
}

// keepVerbatim drops blank and "nil" placeholder lines.
func keepVerbatim(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" || strings.EqualFold(line, "nil") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// dayHeaderLineRe recognizes a line that opens a new day inside a weekly
// blob: day-of-month, month name, optional year, optional weekday
// parenthetical, and nothing else.
var dayHeaderLineRe = regexp.MustCompile(`(?i)^\s*\d{1,2}\s+[A-Za-z]{3,9}\.?(?:\s+\d{2,4})?\s*(?:\([^)]*\))?\s*:?\s*$`)

// SplitWeekIntoBlocks slices a multi-day text blob into per-day chunks,
// one per detected date-header line. Text before the first header is not
// a day and is discarded.
func SplitWeekIntoBlocks(text string) []string {
	lines := splitLines(text)

	var starts []int
	for i, line := range lines {
		if dayHeaderLineRe.MatchString(line) {
			starts = append(starts, i)
		}
	}

	blocks := make([]string, 0, len(starts))
	for n, s := range starts {
		end := len(lines)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		block := strings.TrimSpace(strings.Join(lines[s:end], "\n"))
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// ParseWeeklySchedule splits raw multi-day text and parses each day
// independently. A block whose body shows none of the recognized section
// headers is assumed to be an unlabeled mission list and is reparsed with
// an explicit "RTS:" header so bare mission lines are still captured.
func ParseWeeklySchedule(text string) []*DayRecord {
	blocks := SplitWeekIntoBlocks(text)

	records := make([]*DayRecord, 0, len(blocks))
	for _, block := range blocks {
		lines := splitLines(block)
		hasHeader := false
		for _, line := range lines[1:] {
			if matchDayHeader(line) >= 0 {
				hasHeader = true
				break
			}
		}
		if !hasHeader && len(lines) > 1 {
			lines = append([]string{lines[0], "RTS:"}, lines[1:]...)
			block = strings.Join(lines, "\n")
		}

		if rec := ParseDailySchedule(block); rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

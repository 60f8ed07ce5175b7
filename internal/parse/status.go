package parse

import (
	"regexp"
	"strings"
)

var (
	// Status header: optional bullet/quote/asterisk markers, unit code,
	// dash, free-text title.
	statusHeaderRe = regexp.MustCompile(`(?i)^[\s>*"'•-]*([SF]\d)\s*-\s*(.+)$`)

	inputFieldRe = regexp.MustCompile(`(?i)^input\s*:\s*(.*)$`)
	etrFieldRe   = regexp.MustCompile(`(?i)^(?:>\s*)?etr\s*:\s*(.*)$`)
	reqMarkerRe  = regexp.MustCompile(`(?i)^requirements\s*:?\s*$`)
)

// ParseStatusReport parses the nightly status text into per-unit entries.
// A header line opens a new record; lines before the first header are
// ignored. Each entry's status tag is derived from its title and notes
// after the whole report is read.
func ParseStatusReport(text string) map[string]*StatusEntry {
	entries := make(map[string]*StatusEntry)
	var cur *StatusEntry

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := statusHeaderRe.FindStringSubmatch(line); m != nil {
			code := strings.ToUpper(m[1])
			cur = &StatusEntry{
				UnitCode: code,
				Title:    code + " - " + strings.TrimSpace(m[2]),
				Notes:    []string{},
			}
			entries[code] = cur
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case inputFieldRe.MatchString(line):
			cur.InputTime = strings.TrimSpace(inputFieldRe.FindStringSubmatch(line)[1])
		case etrFieldRe.MatchString(line) && !strings.HasPrefix(line, ">"):
			cur.ETR = strings.TrimSpace(etrFieldRe.FindStringSubmatch(line)[1])
		case strings.HasPrefix(line, ">"):
			// Quoted notes keep a normalized marker for nested rendering.
			cur.Notes = append(cur.Notes, "> "+strings.TrimSpace(strings.TrimLeft(line, "> ")))
		case strings.HasPrefix(line, "-"):
			cur.Notes = append(cur.Notes, strings.TrimSpace(strings.TrimLeft(line, "- ")))
		case reqMarkerRe.MatchString(line):
			cur.Notes = append(cur.Notes, "Requirements")
		}
	}

	for _, entry := range entries {
		entry.StatusTag = deriveStatusTag(entry)
		if entry.ETR == "" {
			// Promote an ETR buried in the notes.
			for _, note := range entry.Notes {
				if m := etrFieldRe.FindStringSubmatch(note); m != nil {
					entry.ETR = strings.TrimSpace(m[1])
					break
				}
			}
		}
	}

	return entries
}

var (
	aogTokenRe      = regexp.MustCompile(`\baog\b`)
	usMarkerRe      = regexp.MustCompile(`\bu/s\b|\bunserviceable\b|\bdefect\b|\brect\b|\brectification\b|\bg(?:rou)?nd\s+run\b`)
	phaseRcvRe      = regexp.MustCompile(`\bpost\s+phase\s+rcv\b`)
	recoveryTokenRe = regexp.MustCompile(`\brecovery\b`)
	svcTitleRe      = regexp.MustCompile(`-\s*s$`)
)

// deriveStatusTag classifies an entry from its combined title and notes,
// evaluated in priority order: aog, rectification, in-phase, recovery,
// serviceable. Recomputed on every parse, never cached independently of
// the source text.
func deriveStatusTag(entry *StatusEntry) StatusTag {
	title := strings.ToLower(entry.Title)
	combined := title
	if len(entry.Notes) > 0 {
		combined += " " + strings.ToLower(strings.Join(entry.Notes, " "))
	}

	switch {
	case aogTokenRe.MatchString(combined):
		return TagAOG
	case usMarkerRe.MatchString(combined):
		return TagRectification
	// "post phase rcv" carries "phase" but is a recovery marker, not an
	// in-phase one.
	case (strings.Contains(title, "major serv") || strings.Contains(title, "phase")) && !phaseRcvRe.MatchString(title):
		return TagInPhase
	case phaseRcvRe.MatchString(combined) || recoveryTokenRe.MatchString(combined):
		return TagRecovery
	case svcTitleRe.MatchString(strings.TrimSpace(title)):
		return TagServiceable
	default:
		return TagServiceable
	}
}

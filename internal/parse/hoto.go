package parse

import (
	"regexp"
	"strings"
)

// hotoSection is the state of the handover scanner: one of the two task
// sections, one of the fixed extra categories, or none.
type hotoSection int

const (
	secNone hotoSection = iota
	secCompleted
	secOutstanding
	secExtra
)

// hotoHeaderRule binds a header pattern to the section it opens. Rules
// are evaluated in order, most specific first, so "112D/150Hrly" is not
// absorbed by the plain "112D" rule.
type hotoHeaderRule struct {
	re       *regexp.Regexp
	section  hotoSection
	category Category
}

var hotoHeaderRules = []hotoHeaderRule{
	{regexp.MustCompile(`(?i)^(?:✅\s*)?completed(?:\s+(?:tasks?|items?|work))?\s*(?:\([^)]*\))?\s*:?\s*$`), secCompleted, ""},
	{regexp.MustCompile(`(?i)^(?:❌\s*|⚠️\s*)?(?:outstanding|o/s)(?:\s+(?:tasks?|items?|work))?\s*(?:\([^)]*\))?\s*:?\s*$`), secOutstanding, ""},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?112\s*d\s*/\s*150\s*hrly\b`), secExtra, CatProj112D150Hrly},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?112\s*d\b`), secExtra, CatProj112D},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?56\s*d\b`), secExtra, CatProj56D},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?28\s*d\b`), secExtra, CatProj28D},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?14\s*d\b`), secExtra, CatProj14D},
	{regexp.MustCompile(`(?i)^(?:[-•]\s*)?7\s*d\b`), secExtra, CatProj7D},
	{regexp.MustCompile(`(?i)^(?:⏳\s*)?awp\b`), secExtra, CatAWP},
	{regexp.MustCompile(`(?i)^(?:🔧\s*)?g(?:rou)?nd\s+runs?\b`), secExtra, CatGroundRuns},
	{regexp.MustCompile(`(?i)^(?:🛫\s*)?(?:flight\s+checks?|fcf)\b`), secExtra, CatFlightChecks},
	{regexp.MustCompile(`(?i)^(?:⛽\s*)?fuel\s+samples?\b`), secExtra, CatFuelSamples},
	{regexp.MustCompile(`(?i)^(?:🧰\s*)?tool\s+control\b`), secExtra, CatToolControl},
	{regexp.MustCompile(`(?i)^(?:ℹ️\s*)?info\b\s*:?\s*$`), secExtra, CatInfo},
}

// hotoDecoratedRe marks a line as visually set off from plain item text:
// it starts with something other than a letter or digit (emoji, bullet)
// or ends with a colon. Inside an active task group, an extra-category
// header needs this decoration; a verbatim item that happens to read
// "gnd run" or "awp" must not swallow the rest of the group.
var hotoDecoratedRe = regexp.MustCompile(`^[^a-zA-Z0-9]|:$`)

// Group header inside completed/outstanding: a bare unit code with an
// optional parenthetical tag.
var hotoGroupRe = regexp.MustCompile(`(?i)^([FS]\d)\s*(?:\(([^)]*)\))?\s*:?\s*$`)

// matchHotoHeader returns the first header rule matching the line, or nil.
// Projection headers only count as headers when the duration code is the
// whole line content; an item like "- 112D ext filed" stays an item.
func matchHotoHeader(line string) *hotoHeaderRule {
	for i := range hotoHeaderRules {
		rule := &hotoHeaderRules[i]
		if rule.re.MatchString(line) {
			if isProjectionCategory(rule.category) && !projectionHeaderRe.MatchString(line) {
				continue
			}
			return rule
		}
	}
	return nil
}

// projectionHeaderRe confirms a duration line is a standalone header
// (nothing after the code but an optional qualifier, parenthetical or
// colon).
var projectionHeaderRe = regexp.MustCompile(`(?i)^(?:[-•]\s*)?\d{1,3}\s*d(?:\s*/\s*150\s*hrly)?\s*(?:\([^)]*\))?\s*:?\s*$`)

func isProjectionCategory(c Category) bool {
	switch c {
	case CatProj7D, CatProj14D, CatProj28D, CatProj56D, CatProj112D, CatProj112D150Hrly:
		return true
	}
	return false
}

// stripItemMarker removes one leading "-", "•" or ">" marker. The second
// return is true when the marker was ">", whose items keep a normalized
// "> " prefix for nested rendering.
func stripItemMarker(line string) (string, bool) {
	switch {
	case strings.HasPrefix(line, ">"):
		return strings.TrimSpace(strings.TrimPrefix(line, ">")), true
	case strings.HasPrefix(line, "-"):
		return strings.TrimSpace(strings.TrimPrefix(line, "-")), false
	case strings.HasPrefix(line, "•"):
		return strings.TrimSpace(strings.TrimPrefix(line, "•")), false
	}
	return line, false
}

// ParseHandover runs the HOTO section state machine over the trimmed
// non-empty lines of text. Lines outside any recognized section are
// silently discarded.
func ParseHandover(text string) *Handover {
	h := &Handover{
		Completed:   make(map[string][]string),
		Outstanding: make(map[string]*HandoverGroup),
		Extra:       make(map[Category][]string),
	}

	section := secNone
	var category Category
	curCode := ""

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		rule := matchHotoHeader(line)
		if rule != nil && rule.section == secExtra && curCode != "" && !hotoDecoratedRe.MatchString(line) {
			// Undecorated category name under an active unit code stays
			// an item; headers there carry a glyph, bullet or colon.
			rule = nil
		}
		if rule != nil {
			section = rule.section
			category = rule.category
			curCode = ""
			continue
		}

		switch section {
		case secCompleted, secOutstanding:
			if m := hotoGroupRe.FindStringSubmatch(line); m != nil {
				curCode = strings.ToUpper(m[1])
				if section == secCompleted {
					if _, ok := h.Completed[curCode]; !ok {
						h.Completed[curCode] = []string{}
					}
				} else {
					group, ok := h.Outstanding[curCode]
					if !ok {
						group = &HandoverGroup{UnitCode: curCode, Items: []string{}}
						h.Outstanding[curCode] = group
					}
					// A later header for the same code keeps the earlier
					// tag when it omits its own.
					if tag := strings.TrimSpace(m[2]); tag != "" {
						group.Tag = tag
					}
				}
				continue
			}
			if curCode == "" {
				continue
			}
			item, quoted := stripItemMarker(line)
			if item == "" {
				continue
			}
			if quoted {
				item = "> " + item
			}
			if section == secCompleted {
				h.Completed[curCode] = append(h.Completed[curCode], item)
			} else {
				h.Outstanding[curCode].Items = append(h.Outstanding[curCode].Items, item)
			}

		case secExtra:
			item, quoted := stripItemMarker(line)
			if item == "" {
				continue
			}
			if quoted {
				item = "> " + item
			}
			h.Extra[category] = append(h.Extra[category], item)
		}
	}

	return h
}

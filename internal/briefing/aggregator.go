// Package briefing periodically renders the current fleet picture into
// a short natural-language summary using an LLM. It is optional and
// disabled by default; the dashboard works fully without it.
package briefing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oakmund/fleetboard/internal/fleet"
	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// Aggregator collects and formats fleet data for briefing generation
type Aggregator struct {
	fleetService *fleet.Service
	logger       *logger.Logger
}

// NewAggregator creates a new data aggregator
func NewAggregator(fleetService *fleet.Service, log *logger.Logger) *Aggregator {
	return &Aggregator{
		fleetService: fleetService,
		logger:       log.Named("briefing-aggregator"),
	}
}

// BuildContext renders the current fleet snapshots as plain text for
// the LLM prompt.
func (a *Aggregator) BuildContext() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))

	a.writeStatuses(&b)
	a.writeDefects(&b)
	a.writeSchedule(&b)
	a.writeHandover(&b)

	return b.String()
}

func (a *Aggregator) writeStatuses(b *strings.Builder) {
	statuses := a.fleetService.Statuses()
	if len(statuses) == 0 {
		return
	}

	b.WriteString("\n## Unit statuses\n")
	for _, code := range sortedKeys(statuses) {
		entry := statuses[code]
		fmt.Fprintf(b, "- %s: %s (%s)", entry.UnitCode, entry.Title, entry.StatusTag)
		if entry.ETR != "" {
			fmt.Fprintf(b, ", ETR %s", entry.ETR)
		}
		b.WriteString("\n")
		for _, note := range entry.Notes {
			fmt.Fprintf(b, "  %s\n", note)
		}
	}
}

func (a *Aggregator) writeDefects(b *strings.Builder) {
	defects := a.fleetService.Defects()
	if len(defects) == 0 {
		return
	}

	b.WriteString("\n## Open defects\n")
	for _, code := range sortedKeys(defects) {
		rec := defects[code]
		fmt.Fprintf(b, "- %s: %s", rec.UnitCode, firstLine(rec.DefectText))
		if rec.UnserviceableSince != "" {
			fmt.Fprintf(b, " (u/s since %s)", rec.UnserviceableSince)
		}
		if rec.ETR != "" {
			fmt.Fprintf(b, ", ETR %s", rec.ETR)
		}
		b.WriteString("\n")
	}
}

func (a *Aggregator) writeSchedule(b *strings.Builder) {
	week := a.fleetService.Week()
	if len(week) == 0 {
		return
	}

	b.WriteString("\n## Schedule\n")
	for _, day := range week {
		fmt.Fprintf(b, "### %s\n", day.DateLabel)
		for _, entry := range day.Missions {
			line := "- " + entry.UnitCode
			if entry.Label != "" {
				line += " " + entry.Label
			}
			b.WriteString(strings.TrimRight(line, " ") + "\n")
		}
		for _, entry := range day.Spares {
			fmt.Fprintf(b, "- spare %s %s\n", entry.UnitCode, entry.Label)
		}
		for _, entry := range day.Healing {
			fmt.Fprintf(b, "- healing %s %s\n", entry.UnitCode, entry.Label)
		}
	}
}

func (a *Aggregator) writeHandover(b *strings.Builder) {
	h := a.fleetService.Handover()
	if h == nil {
		return
	}

	if len(h.Outstanding) > 0 {
		b.WriteString("\n## Outstanding handover items\n")
		for _, code := range sortedKeys(h.Outstanding) {
			group := h.Outstanding[code]
			fmt.Fprintf(b, "- %s", code)
			if group.Tag != "" {
				fmt.Fprintf(b, " (%s)", group.Tag)
			}
			b.WriteString("\n")
			for _, item := range group.Items {
				fmt.Fprintf(b, "  - %s\n", item)
			}
		}
	}

	for _, cat := range parse.Categories {
		items := h.Extra[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(b, "\n## %s\n", cat)
		for _, item := range items {
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

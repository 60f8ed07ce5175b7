// Package parse recovers structured fleet records from loosely formatted,
// human-authored operational text: readiness-to-sail schedules, nightly
// status reports, handover notes and Telegram defect feeds.
//
// Every function in this package is a pure transformation over its input
// text. Nothing here performs I/O or carries state between calls, so the
// parsers are safe to re-run on every change of the source text.
package parse

// DateHeader is the result of parsing a schedule date line.
// ISO is empty when the day/month could not be resolved; Label is always
// populated for display.
type DateHeader struct {
	ISO   string `json:"iso,omitempty"`
	Label string `json:"label"`
}

// EntryKind distinguishes mission assignments from spare declarations.
type EntryKind string

const (
	KindMission EntryKind = "mission"
	KindSpare   EntryKind = "spare"
)

// ScheduleEntry is one mission or spare line from an RTS block.
// UnitCode is empty for unattributed lines such as bulk notices.
type ScheduleEntry struct {
	Kind     EntryKind `json:"kind"`
	UnitCode string    `json:"unit_code,omitempty"`
	Label    string    `json:"label"`
}

// HealingEntry is one maintenance/recovery window for a unit. A single
// source line can yield several entries when it carries multiple time
// ranges.
type HealingEntry struct {
	UnitCode string `json:"unit_code,omitempty"`
	Label    string `json:"label"`
}

// DayRecord is the structured form of one day's schedule text. It is an
// immutable snapshot of a single parse; callers must not mutate it.
type DayRecord struct {
	DateISO   string          `json:"date_iso,omitempty"`
	DateLabel string          `json:"date_label"`
	Missions  []ScheduleEntry `json:"missions"`
	Spares    []ScheduleEntry `json:"spares"`
	Healing   []HealingEntry  `json:"healing"`
	Hot       []string        `json:"hot"`
	Cold      []string        `json:"cold"`
	Ops       []string        `json:"ops"`
	Notes     []string        `json:"notes"`
}

// StatusTag classifies a unit's nightly status report entry.
type StatusTag string

const (
	TagAOG           StatusTag = "aog"
	TagRectification StatusTag = "rectification"
	TagInPhase       StatusTag = "in-phase"
	TagRecovery      StatusTag = "recovery"
	TagServiceable   StatusTag = "serviceable"
)

// StatusEntry is one unit's record from the nightly status report.
type StatusEntry struct {
	UnitCode  string    `json:"unit_code"`
	Title     string    `json:"title"`
	InputTime string    `json:"input_time,omitempty"`
	ETR       string    `json:"etr,omitempty"`
	Notes     []string  `json:"notes"`
	StatusTag StatusTag `json:"status_tag"`
}

// HandoverGroup is one unit's outstanding-items group from a HOTO
// document: the unit code, an optional parenthetical tag from the group
// header, and the items listed under it.
type HandoverGroup struct {
	UnitCode string   `json:"unit_code"`
	Tag      string   `json:"tag,omitempty"`
	Items    []string `json:"items"`
}

// Category identifies one of the fixed "extra" HOTO sections.
type Category string

const (
	CatProj7D          Category = "proj_7d"
	CatProj14D         Category = "proj_14d"
	CatProj28D         Category = "proj_28d"
	CatProj56D         Category = "proj_56d"
	CatProj112D        Category = "proj_112d"
	CatProj112D150Hrly Category = "proj_112d_150hrly"
	CatAWP             Category = "awp"
	CatGroundRuns      Category = "ground_runs"
	CatFlightChecks    Category = "flight_checks"
	CatFuelSamples     Category = "fuel_samples"
	CatToolControl     Category = "tool_control"
	CatInfo            Category = "info"
)

// Categories lists every extra HOTO category in display order.
var Categories = []Category{
	CatProj7D,
	CatProj14D,
	CatProj28D,
	CatProj56D,
	CatProj112D,
	CatProj112D150Hrly,
	CatAWP,
	CatGroundRuns,
	CatFlightChecks,
	CatFuelSamples,
	CatToolControl,
	CatInfo,
}

// Handover is the structured form of a HOTO document.
type Handover struct {
	Completed   map[string][]string       `json:"completed"`
	Outstanding map[string]*HandoverGroup `json:"outstanding"`
	Extra       map[Category][]string     `json:"extra"`
}

// DefectRecord is one unit's record from a Telegram defect feed. Every
// field is optional; absent fields stay empty.
type DefectRecord struct {
	UnitCode            string   `json:"unit_code"`
	UnserviceableSince  string   `json:"unserviceable_since,omitempty"`
	DefectText          string   `json:"defect_text,omitempty"`
	RectText            string   `json:"rect_text,omitempty"`
	ETR                 string   `json:"etr,omitempty"`
	IsRecovery          bool     `json:"is_recovery"`
	GroundRunReqs       []string `json:"ground_run_reqs,omitempty"`
	FlightCheckReqs     []string `json:"flight_check_reqs,omitempty"`
	Workcenter          string   `json:"workcenter,omitempty"`
	PrimeTrade          string   `json:"prime_trade,omitempty"`
	System              string   `json:"system,omitempty"`
}

// IsUnitCode reports whether s is exactly one tracked unit code
// (F<digit> or S<digit>). Collections returned by this package are only
// ever keyed by codes of this shape; anything else is dropped at the
// parser boundary.
func IsUnitCode(s string) bool {
	return len(s) == 2 && (s[0] == 'F' || s[0] == 'S') && s[1] >= '0' && s[1] <= '9'
}

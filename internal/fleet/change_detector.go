package fleet

import (
	"reflect"
	"sync"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// ChangeDetector tracks per-unit status changes between report ingests.
// Safe for concurrent use: ingests arrive from concurrent HTTP handlers.
type ChangeDetector struct {
	mu       sync.Mutex
	previous map[string]*parse.StatusEntry
	logger   *logger.Logger
}

// NewChangeDetector creates a new change detector
func NewChangeDetector(log *logger.Logger) *ChangeDetector {
	return &ChangeDetector{
		previous: make(map[string]*parse.StatusEntry),
		logger:   log.Named("change-detector"),
	}
}

// StatusChange represents a change in one unit's status
type StatusChange struct {
	Type     string // "added", "updated", "removed"
	UnitCode string
	Entry    *parse.StatusEntry
}

// DetectChanges compares the freshly parsed status set with the previous
// one and returns the per-unit differences.
func (cd *ChangeDetector) DetectChanges(current map[string]*parse.StatusEntry) []StatusChange {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	changes := []StatusChange{}

	for code, entry := range current {
		if prev, exists := cd.previous[code]; exists {
			if hasStatusChanges(prev, entry) {
				changes = append(changes, StatusChange{Type: "updated", UnitCode: code, Entry: entry})
			}
		} else {
			changes = append(changes, StatusChange{Type: "added", UnitCode: code, Entry: entry})
		}
	}

	for code := range cd.previous {
		if _, exists := current[code]; !exists {
			changes = append(changes, StatusChange{Type: "removed", UnitCode: code})
		}
	}

	cd.previous = current
	return changes
}

// hasStatusChanges compares two entries and returns true if any field
// changed.
func hasStatusChanges(previous, current *parse.StatusEntry) bool {
	if previous.Title != current.Title {
		return true
	}
	if previous.InputTime != current.InputTime {
		return true
	}
	if previous.ETR != current.ETR {
		return true
	}
	if previous.StatusTag != current.StatusTag {
		return true
	}
	if !reflect.DeepEqual(previous.Notes, current.Notes) {
		return true
	}
	return false
}

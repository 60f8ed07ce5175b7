package fleet

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func entry(code, title string, tag parse.StatusTag) *parse.StatusEntry {
	return &parse.StatusEntry{UnitCode: code, Title: title, Notes: []string{}, StatusTag: tag}
}

func TestDetectChanges(t *testing.T) {
	cd := NewChangeDetector(testLogger(t))

	first := map[string]*parse.StatusEntry{
		"S4": entry("S4", "S4 - u/s", parse.TagRectification),
		"F1": entry("F1", "F1 - S", parse.TagServiceable),
	}
	changes := cd.DetectChanges(first)
	assert.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, "added", c.Type)
	}

	// Unchanged input yields no changes.
	assert.Empty(t, cd.DetectChanges(first))

	second := map[string]*parse.StatusEntry{
		"S4": entry("S4", "S4 - S", parse.TagServiceable), // updated
		"S2": entry("S2", "S2 - S", parse.TagServiceable), // added
		// F1 removed
	}
	changes = cd.DetectChanges(second)
	require.Len(t, changes, 3)

	byCode := map[string]StatusChange{}
	for _, c := range changes {
		byCode[c.UnitCode] = c
	}
	assert.Equal(t, "updated", byCode["S4"].Type)
	assert.Equal(t, "added", byCode["S2"].Type)
	assert.Equal(t, "removed", byCode["F1"].Type)
	assert.Nil(t, byCode["F1"].Entry)
}

// Exercised with -race: ingest handlers call DetectChanges from
// concurrent requests, so the previous-state map must be locked.
func TestDetectChangesConcurrentReports(t *testing.T) {
	cd := NewChangeDetector(testLogger(t))

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				code := fmt.Sprintf("S%d", g)
				title := fmt.Sprintf("%s - pass %d", code, i)
				cd.DetectChanges(map[string]*parse.StatusEntry{
					code: entry(code, title, parse.TagServiceable),
				})
			}
		}(g)
	}
	wg.Wait()

	// The detector is still coherent afterwards: a fresh set reports
	// every prior code as removed plus the new one as added.
	changes := cd.DetectChanges(map[string]*parse.StatusEntry{
		"F1": entry("F1", "F1 - S", parse.TagServiceable),
	})
	byType := map[string]int{}
	for _, c := range changes {
		byType[c.Type]++
	}
	assert.Equal(t, 1, byType["added"])
	assert.Equal(t, 1, byType["removed"])
}

func TestDetectChangesNoteDifference(t *testing.T) {
	cd := NewChangeDetector(testLogger(t))

	a := entry("S4", "S4 - u/s", parse.TagRectification)
	cd.DetectChanges(map[string]*parse.StatusEntry{"S4": a})

	b := entry("S4", "S4 - u/s", parse.TagRectification)
	b.Notes = []string{"new note"}
	changes := cd.DetectChanges(map[string]*parse.StatusEntry{"S4": b})
	require.Len(t, changes, 1)
	assert.Equal(t, "updated", changes[0].Type)
}

package sqlite

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/pkg/logger"
)

func newTestDB(t *testing.T) (*sql.DB, *logger.Logger) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, log
}

func statusEntry(code, title string) *parse.StatusEntry {
	return &parse.StatusEntry{
		UnitCode:  code,
		Title:     title,
		Notes:     []string{},
		StatusTag: parse.TagServiceable,
	}
}

// Two ingests landing in the same second must not merge into one
// snapshot: the latest set is keyed on the per-ingest batch id, not the
// second-granularity timestamp.
func TestLatestStatusesKeyedOnBatch(t *testing.T) {
	db, log := newTestDB(t)
	storage := NewStatusStorage(db, log)

	require.NoError(t, storage.ReplaceStatuses(map[string]*parse.StatusEntry{
		"S4": statusEntry("S4", "S4 - u/s"),
		"F1": statusEntry("F1", "F1 - S"),
	}))
	require.NoError(t, storage.ReplaceStatuses(map[string]*parse.StatusEntry{
		"S4": statusEntry("S4", "S4 - S"),
	}))

	latest, err := storage.GetLatestStatuses()
	require.NoError(t, err)
	require.Len(t, latest, 1, "earlier ingest must not bleed into the latest set")
	assert.Equal(t, "S4 - S", latest["S4"].Title)

	history, err := storage.GetStatusHistory("S4", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "S4 - S", history[0].Title, "newest first")
}

func TestLatestWeekKeyedOnBatch(t *testing.T) {
	db, log := newTestDB(t)
	storage := NewScheduleStorage(db, log)

	require.NoError(t, storage.ReplaceWeek([]*parse.DayRecord{
		{DateISO: "2026-08-24", DateLabel: "24 Aug (Mon)"},
		{DateISO: "2026-08-25", DateLabel: "25 Aug (Tue)"},
	}))
	require.NoError(t, storage.ReplaceWeek([]*parse.DayRecord{
		{DateISO: "2026-08-26", DateLabel: "26 Aug (Wed)"},
	}))

	week, err := storage.GetLatestWeek()
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "2026-08-26", week[0].DateISO)
}

func TestLatestDefectsKeyedOnBatch(t *testing.T) {
	db, log := newTestDB(t)
	storage := NewDefectStorage(db, log)

	require.NoError(t, storage.ReplaceDefects(map[string]*parse.DefectRecord{
		"S4": {UnitCode: "S4", DefectText: "chip light"},
		"F2": {UnitCode: "F2", DefectText: "MLG door cracked"},
	}))
	require.NoError(t, storage.ReplaceDefects(map[string]*parse.DefectRecord{
		"S4": {UnitCode: "S4", DefectText: "chip light", ETR: "15 Aug"},
	}))

	latest, err := storage.GetLatestDefects()
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "15 Aug", latest["S4"].ETR)
}

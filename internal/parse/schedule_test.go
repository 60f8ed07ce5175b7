package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMissionLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *ScheduleEntry
	}{
		{
			name: "mission with time range",
			line: "F3 1130 - 2200 GH/IF",
			want: &ScheduleEntry{Kind: KindMission, UnitCode: "F3", Label: "1130-2200 GH/IF"},
		},
		{
			name: "mission without time range",
			line: "S1 Maritime patrol",
			want: &ScheduleEntry{Kind: KindMission, UnitCode: "S1", Label: "Maritime patrol"},
		},
		{
			name: "mission with colon separator",
			line: "F2: 0800-1200 Gunnery serial",
			want: &ScheduleEntry{Kind: KindMission, UnitCode: "F2", Label: "0800-1200 Gunnery serial"},
		},
		{
			name: "coded spare",
			line: "S3 Spare",
			want: &ScheduleEntry{Kind: KindSpare, UnitCode: "S3", Label: "S3 Spare"},
		},
		{
			name: "coded spare with trailing text",
			line: "S3 Spare (from 1400)",
			want: &ScheduleEntry{Kind: KindSpare, UnitCode: "S3", Label: "S3 Spare (from 1400)"},
		},
		{
			name: "spare mentioned mid-line",
			line: "Standby S4 as spare",
			want: &ScheduleEntry{Kind: KindSpare, UnitCode: "S4", Label: "Standby S4 as spare"},
		},
		{
			name: "spare window is not a spare",
			line: "F1 0900-1100 spare window brief",
			want: &ScheduleEntry{Kind: KindMission, UnitCode: "F1", Label: "0900-1100 spare window brief"},
		},
		{
			name: "nil spare",
			line: "Nil spare",
			want: &ScheduleEntry{Kind: KindSpare, Label: "Nil Spare"},
		},
		{
			name: "bulk notice",
			line: "SQN standdown after 1600",
			want: &ScheduleEntry{Kind: KindMission, Label: "SQN standdown after 1600"},
		},
		{
			name: "nil line",
			line: "Nil",
			want: nil,
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
		{
			name: "noise line",
			line: "see attached",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMissionLine(tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHealingLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []HealingEntry
	}{
		{
			name: "single range",
			line: "S2 1300 - 1400 FCF",
			want: []HealingEntry{{UnitCode: "S2", Label: "1300-1400 FCF"}},
		},
		{
			name: "two ranges share trailing text",
			line: "S2 1300-1400, 1500-1600 FCF",
			want: []HealingEntry{
				{UnitCode: "S2", Label: "1300-1400 FCF"},
				{UnitCode: "S2", Label: "1500-1600 FCF"},
			},
		},
		{
			name: "no range",
			line: "S5 after lunch",
			want: []HealingEntry{{UnitCode: "S5", Label: "after lunch"}},
		},
		{
			name: "no code",
			line: "hangar move only",
			want: []HealingEntry{{Label: "hangar move only"}},
		},
		{
			name: "nil line",
			line: "Nil",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHealingLine(tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

const sampleDay = `13 Aug 25 (Wed)
RTS:
F3 1130 - 2200 GH/IF
S1 0800-1000 Maritime patrol
S3 Spare
Healing
S2 1300-1400, 1500-1600 FCF
Hot
F3
Cold
Nil
Ops Brief
0700 all crews; brief room 2
Notes
F2 awaiting parts`

func TestParseDailySchedule(t *testing.T) {
	rec := ParseDailySchedule(sampleDay)
	require.NotNil(t, rec)

	assert.Equal(t, "2025-08-13", rec.DateISO)
	assert.Equal(t, "13 Aug (Wed)", rec.DateLabel)

	require.Len(t, rec.Missions, 2)
	assert.Equal(t, "F3", rec.Missions[0].UnitCode)
	assert.Equal(t, "1130-2200 GH/IF", rec.Missions[0].Label)
	assert.Equal(t, "S1", rec.Missions[1].UnitCode)

	require.Len(t, rec.Spares, 1)
	assert.Equal(t, "S3 Spare", rec.Spares[0].Label)

	require.Len(t, rec.Healing, 2)
	assert.Equal(t, "1300-1400 FCF", rec.Healing[0].Label)
	assert.Equal(t, "1500-1600 FCF", rec.Healing[1].Label)

	assert.Equal(t, []string{"F3"}, rec.Hot)
	assert.Empty(t, rec.Cold)
	assert.Equal(t, []string{"0700 all crews, brief room 2"}, rec.Ops)
	assert.Equal(t, []string{"F2 awaiting parts"}, rec.Notes)
}

func TestParseDailyScheduleImplicitMissions(t *testing.T) {
	text := "13 Aug 25\nF3 0900-1200 GH\nS3 Spare\nNotes\nearly start"
	rec := ParseDailySchedule(text)
	require.NotNil(t, rec)

	require.Len(t, rec.Missions, 1)
	assert.Equal(t, "F3", rec.Missions[0].UnitCode)
	require.Len(t, rec.Spares, 1)
	assert.Equal(t, []string{"early start"}, rec.Notes)
}

func TestParseDailyScheduleEmptyInput(t *testing.T) {
	assert.Nil(t, ParseDailySchedule(""))
	assert.Nil(t, ParseDailySchedule("   \n  \n"))
}

func TestParseDailyScheduleHeaderOnly(t *testing.T) {
	rec := ParseDailySchedule("13 Aug 25 (Wed)")
	require.NotNil(t, rec)
	assert.Empty(t, rec.Missions)
	assert.Empty(t, rec.Spares)
	assert.Empty(t, rec.Healing)
}

func TestParseDailyScheduleIdempotent(t *testing.T) {
	first := ParseDailySchedule(sampleDay)
	second := ParseDailySchedule(sampleDay)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated parse differs (-first +second):\n%s", diff)
	}
}

func TestSplitWeekIntoBlocks(t *testing.T) {
	var b strings.Builder
	days := []string{"11 Aug 25 (Mon)", "12 Aug 25 (Tue)", "13 Aug 25 (Wed)", "14 Aug 25 (Thu)", "15 Aug 25 (Fri)"}
	for i, d := range days {
		b.WriteString(d + "\n")
		b.WriteString("F3 0900-1200 GH\n")
		if i == 2 {
			b.WriteString("S3 Spare\n")
		}
	}

	blocks := SplitWeekIntoBlocks(b.String())
	require.Len(t, blocks, 5)
	for i, block := range blocks {
		assert.True(t, strings.HasPrefix(block, days[i]), "block %d starts with its date header", i)
	}
}

func TestParseWeeklySchedule(t *testing.T) {
	text := `11 Aug 25 (Mon)
F3 0900-1200 GH
12 Aug 25 (Tue)
S1 1000-1400 Patrol
S3 Spare`

	records := ParseWeeklySchedule(text)
	require.Len(t, records, 2)

	// Bare mission lines with no section header are captured as missions.
	assert.Equal(t, "2025-08-11", records[0].DateISO)
	require.Len(t, records[0].Missions, 1)
	assert.Equal(t, "F3", records[0].Missions[0].UnitCode)

	assert.Equal(t, "2025-08-12", records[1].DateISO)
	require.Len(t, records[1].Missions, 1)
	require.Len(t, records[1].Spares, 1)
}

func TestParseWeeklyScheduleMatchesDailyParse(t *testing.T) {
	blocks := SplitWeekIntoBlocks(sampleDay)
	require.Len(t, blocks, 1)

	weekly := ParseWeeklySchedule(sampleDay)
	require.Len(t, weekly, 1)
	if diff := cmp.Diff(ParseDailySchedule(sampleDay), weekly[0]); diff != "" {
		t.Errorf("weekly parse differs from daily parse:\n%s", diff)
	}
}

func TestParseWeeklyScheduleNoHeaders(t *testing.T) {
	assert.Empty(t, ParseWeeklySchedule("no dates in here\njust chatter"))
}

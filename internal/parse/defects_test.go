package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefects = `S4

U/S since: 121830H Aug 25

Defect: No.1 engine chip light illuminated during shutdown.
Metal particles found on chip detector.

Rect: Chip detector replaced, oil sample taken.
ETR: 15 Aug

Gnd Run Reqs:
- dry motoring run
- full power assurance check

Flight Check Reqs:
- FCF profile A

W/C: 520
Prime trade: AVN
System: Powerplant

F1

Defect: MLG door cracked near hinge.

Recovery

ETR: TBA`

func TestParseDefectBlocks(t *testing.T) {
	records := ParseDefectBlocks(sampleDefects)
	require.Len(t, records, 2)

	s4 := records["S4"]
	require.NotNil(t, s4)
	assert.Equal(t, "121830H Aug 25", s4.UnserviceableSince)
	assert.Equal(t, "No.1 engine chip light illuminated during shutdown.\nMetal particles found on chip detector.", s4.DefectText)
	assert.Equal(t, "Chip detector replaced, oil sample taken.", s4.RectText)
	assert.Equal(t, "15 Aug", s4.ETR)
	assert.False(t, s4.IsRecovery)
	assert.Equal(t, []string{"dry motoring run", "full power assurance check"}, s4.GroundRunReqs)
	assert.Equal(t, []string{"FCF profile A"}, s4.FlightCheckReqs)
	assert.Equal(t, "520", s4.Workcenter)
	assert.Equal(t, "AVN", s4.PrimeTrade)
	assert.Equal(t, "Powerplant", s4.System)

	f1 := records["F1"]
	require.NotNil(t, f1)
	assert.Equal(t, "MLG door cracked near hinge.", f1.DefectText)
	assert.True(t, f1.IsRecovery)
	assert.Equal(t, "TBA", f1.ETR)
	assert.Empty(t, f1.GroundRunReqs)
	assert.Empty(t, f1.Workcenter)
}

func TestParseDefectBlocksIgnoresLeadingChatter(t *testing.T) {
	text := "fwd from duty phone\n\nS2\n\nDefect: radar blanking."
	records := ParseDefectBlocks(text)
	require.Len(t, records, 1)
	assert.Equal(t, "radar blanking.", records["S2"].DefectText)
}

func TestParseDefectBlocksPostPhaseRecovery(t *testing.T) {
	text := "S3\n\nDefect: nil, post phase rcv checks in progress."
	records := ParseDefectBlocks(text)
	require.NotNil(t, records["S3"])
	assert.True(t, records["S3"].IsRecovery)
}

func TestParseDefectBlocksUnknownCodesNeverKeyed(t *testing.T) {
	text := "Z9\n\nDefect: not ours.\n\nS1\n\nDefect: ours."
	records := ParseDefectBlocks(text)
	for code := range records {
		assert.True(t, IsUnitCode(code), "unexpected key %q", code)
	}
	require.Len(t, records, 1)
	assert.Equal(t, "ours.", records["S1"].DefectText)
}

func TestParseDefectBlocksEmptyInput(t *testing.T) {
	assert.Empty(t, ParseDefectBlocks(""))
	assert.Empty(t, ParseDefectBlocks("\n\n\n"))
}

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHoto = `✅ Completed
S4
- wash and rinse
- compressor wash
F1
- rotor brake inspection

❌ Outstanding
S4 (AF)
- chip detector analysis
- gnd run
> pending lab
S4
- FCF profile
F2 (Rect)
MLG door cracked

• 112D/150Hrly
- S4 due 20 Aug
• 112D
- F1 due 28 Aug
⏳ AWP
- S4 chip detector kit
🔧 Ground Runs
- S4 post rect
Fuel Samples
- F1 sat
Tool Control
- complete
Info
- duty crew swap Fri`

func TestParseHandoverSections(t *testing.T) {
	h := ParseHandover(sampleHoto)

	require.Contains(t, h.Completed, "S4")
	assert.Equal(t, []string{"wash and rinse", "compressor wash"}, h.Completed["S4"])
	assert.Equal(t, []string{"rotor brake inspection"}, h.Completed["F1"])

	s4 := h.Outstanding["S4"]
	require.NotNil(t, s4)
	assert.Equal(t, "AF", s4.Tag, "tag preserved across a later header that omits it")
	assert.Equal(t, []string{"chip detector analysis", "gnd run", "> pending lab", "FCF profile"}, s4.Items)

	f2 := h.Outstanding["F2"]
	require.NotNil(t, f2)
	assert.Equal(t, "Rect", f2.Tag)
	// Non-bullet lines under an active code are kept verbatim.
	assert.Equal(t, []string{"MLG door cracked"}, f2.Items)
}

func TestParseHandoverExtraCategories(t *testing.T) {
	h := ParseHandover(sampleHoto)

	assert.Equal(t, []string{"S4 due 20 Aug"}, h.Extra[CatProj112D150Hrly])
	assert.Equal(t, []string{"F1 due 28 Aug"}, h.Extra[CatProj112D])
	assert.Equal(t, []string{"S4 chip detector kit"}, h.Extra[CatAWP])
	assert.Equal(t, []string{"S4 post rect"}, h.Extra[CatGroundRuns])
	assert.Equal(t, []string{"F1 sat"}, h.Extra[CatFuelSamples])
	assert.Equal(t, []string{"complete"}, h.Extra[CatToolControl])
	assert.Equal(t, []string{"duty crew swap Fri"}, h.Extra[CatInfo])
}

func TestParseHandoverThreeItemsStripMarkers(t *testing.T) {
	text := `Outstanding
S3
- first
• second
> third`
	h := ParseHandover(text)
	require.NotNil(t, h.Outstanding["S3"])
	assert.Equal(t, []string{"first", "second", "> third"}, h.Outstanding["S3"].Items)
}

func TestParseHandoverDiscardsUnsectionedLines(t *testing.T) {
	text := `S4
- floating item
Completed
- item with no unit code yet
S4
- wash`
	h := ParseHandover(text)

	// Before any header, and items before any code, are both dropped.
	assert.Equal(t, []string{"wash"}, h.Completed["S4"])
	assert.Empty(t, h.Outstanding)
}

func TestParseHandoverProjectionOrdering(t *testing.T) {
	text := "• 112D/150Hrly\n- combined item\n• 112D\n- plain item"
	h := ParseHandover(text)
	assert.Equal(t, []string{"combined item"}, h.Extra[CatProj112D150Hrly])
	assert.Equal(t, []string{"plain item"}, h.Extra[CatProj112D])
}

func TestParseHandoverCategoryNamedItemsStayItems(t *testing.T) {
	text := `Outstanding
S4
gnd run
awp
info
- FCF profile

🔧 Ground Runs
- S4 post rect`
	h := ParseHandover(text)

	s4 := h.Outstanding["S4"]
	require.NotNil(t, s4)
	// Undecorated lines that read like category names stay in the
	// active group rather than opening a new section.
	assert.Equal(t, []string{"gnd run", "awp", "info", "FCF profile"}, s4.Items)
	assert.Equal(t, []string{"S4 post rect"}, h.Extra[CatGroundRuns])
}

func TestParseHandoverDecoratedCategoryHeaderClosesGroup(t *testing.T) {
	text := `Outstanding
S4
- chip detector analysis
Gnd Runs:
- S4 post rect`
	h := ParseHandover(text)

	require.NotNil(t, h.Outstanding["S4"])
	assert.Equal(t, []string{"chip detector analysis"}, h.Outstanding["S4"].Items)
	assert.Equal(t, []string{"S4 post rect"}, h.Extra[CatGroundRuns])
}

func TestParseHandoverUnknownCodesIgnored(t *testing.T) {
	text := `Outstanding
X7
- not a tracked unit
S1
- real item`
	h := ParseHandover(text)
	for code := range h.Outstanding {
		assert.True(t, IsUnitCode(code), "unexpected key %q", code)
	}
	require.NotNil(t, h.Outstanding["S1"])
	assert.Equal(t, []string{"real item"}, h.Outstanding["S1"].Items)
}

func TestParseHandoverEmptyInput(t *testing.T) {
	h := ParseHandover("")
	assert.Empty(t, h.Completed)
	assert.Empty(t, h.Outstanding)
	assert.Empty(t, h.Extra)
}

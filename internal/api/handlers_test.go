package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/fleet"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

const testStatusReport = `S4 - Engine chip light, u/s
Input: 1830
ETR: 15 Aug
- Chip detector pulled for analysis

F1 - S
Input: 1900`

const testHandover = `Outstanding
S4 (AF)
- chip detector analysis
- gnd run`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg, err := config.Load("")
	require.NoError(t, err)

	documentStorage := sqlite.NewDocumentStorage(db, log)
	scheduleStorage := sqlite.NewScheduleStorage(db, log)
	statusStorage := sqlite.NewStatusStorage(db, log)
	handoverStorage := sqlite.NewHandoverStorage(db, log)
	defectStorage := sqlite.NewDefectStorage(db, log)
	briefingStorage := sqlite.NewBriefingStorage(db, log)

	wsServer := websocket.NewServer(nil, log)
	fleetService := fleet.NewService(
		documentStorage, scheduleStorage, statusStorage,
		handoverStorage, defectStorage, wsServer, cfg, log,
	)

	return NewRouter(fleetService, statusStorage, defectStorage, briefingStorage, cfg, log, wsServer).Routes()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIngestAndGetStatus(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/status", testStatusReport)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/status/S4", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entry struct {
		UnitCode string `json:"unit_code"`
		Title    string `json:"title"`
		ETR      string `json:"etr"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "S4", entry.UnitCode)
	assert.Equal(t, "S4 - Engine chip light, u/s", entry.Title)
	assert.Equal(t, "15 Aug", entry.ETR)
}

func TestGetStatusUnknownCode(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/status/S9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/status/X1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestEmptyBodyRejected(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/api/v1/schedule", "/api/v1/status", "/api/v1/hoto", "/api/v1/defects"} {
		rec := doRequest(t, router, http.MethodPost, path, "  \n ")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestHandoverTickFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/hoto", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no handover ingested yet")

	rec = doRequest(t, router, http.MethodPost, "/api/v1/hoto", testHandover)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/api/v1/hoto/ticks",
		`{"unit_code":"S4","item":"gnd run","done":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/v1/hoto", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var h struct {
		Completed   map[string][]string `json:"completed"`
		Outstanding map[string]struct {
			Items []string `json:"items"`
		} `json:"outstanding"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Contains(t, h.Completed["S4"], "gnd run")
	assert.Equal(t, []string{"chip detector analysis"}, h.Outstanding["S4"].Items)
}

func TestSetTickInvalidCode(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/hoto/ticks",
		`{"unit_code":"Z9","item":"x","done":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndConfig(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "briefing_enabled")
}

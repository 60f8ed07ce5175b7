package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/fleet"
	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// maxPasteBytes bounds ingest bodies; the source documents are chat
// pastes, never more than a few hundred lines.
const maxPasteBytes = 1 << 20

// Handler contains the API handlers
type Handler struct {
	fleetService    *fleet.Service
	statusStorage   *sqlite.StatusStorage
	defectStorage   *sqlite.DefectStorage
	briefingStorage *sqlite.BriefingStorage
	config          *config.Config
	logger          *logger.Logger
	wsServer        *websocket.Server
	startTime       time.Time
}

// NewHandler creates a new API handler
func NewHandler(
	fleetService *fleet.Service,
	statusStorage *sqlite.StatusStorage,
	defectStorage *sqlite.DefectStorage,
	briefingStorage *sqlite.BriefingStorage,
	cfg *config.Config,
	log *logger.Logger,
	wsServer *websocket.Server,
) *Handler {
	return &Handler{
		fleetService:    fleetService,
		statusStorage:   statusStorage,
		defectStorage:   defectStorage,
		briefingStorage: briefingStorage,
		config:          cfg,
		logger:          log.Named("api-handler"),
		wsServer:        wsServer,
		startTime:       time.Now(),
	}
}

// readPaste reads a raw text document from the request body.
func (h *Handler) readPaste(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPasteBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to read request body")
		return "", false
	}
	text := string(body)
	if strings.TrimSpace(text) == "" {
		h.respondError(w, http.StatusBadRequest, "Request body is empty")
		return "", false
	}
	return text, true
}

// IngestSchedule handles POST /api/v1/schedule
func (h *Handler) IngestSchedule(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readPaste(w, r)
	if !ok {
		return
	}

	records, err := h.fleetService.IngestSchedule(text)
	if err != nil {
		h.logger.Error("Failed to ingest schedule", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to ingest schedule")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":  records,
		"count": len(records),
	})
}

// GetSchedule handles GET /api/v1/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	records := h.fleetService.Week()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":  records,
		"count": len(records),
	})
}

// IngestStatus handles POST /api/v1/status
func (h *Handler) IngestStatus(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readPaste(w, r)
	if !ok {
		return
	}

	entries, err := h.fleetService.IngestStatus(text)
	if err != nil {
		h.logger.Error("Failed to ingest status report", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to ingest status report")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"statuses": entries,
		"count":    len(entries),
	})
}

// GetStatuses handles GET /api/v1/status
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	entries := h.fleetService.Statuses()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"statuses": entries,
		"count":    len(entries),
	})
}

// GetStatusByCode handles GET /api/v1/status/{code}
func (h *Handler) GetStatusByCode(w http.ResponseWriter, r *http.Request) {
	code, ok := h.unitCodeParam(w, r)
	if !ok {
		return
	}

	entry := h.fleetService.StatusByCode(code)
	if entry == nil {
		h.respondError(w, http.StatusNotFound, "No status for unit "+code)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

// GetStatusHistory handles GET /api/v1/status/{code}/history
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	code, ok := h.unitCodeParam(w, r)
	if !ok {
		return
	}
	limit := queryLimit(r, 50)

	entries, err := h.statusStorage.GetStatusHistory(code, limit)
	if err != nil {
		h.logger.Error("Failed to get status history",
			logger.String("unit_code", code), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get status history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"unit_code": code,
		"statuses":  entries,
		"count":     len(entries),
	})
}

// IngestHandover handles POST /api/v1/hoto
func (h *Handler) IngestHandover(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readPaste(w, r)
	if !ok {
		return
	}

	handover, err := h.fleetService.IngestHandover(text)
	if err != nil {
		h.logger.Error("Failed to ingest handover", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to ingest handover")
		return
	}

	h.respondJSON(w, http.StatusOK, handover)
}

// GetHandover handles GET /api/v1/hoto
func (h *Handler) GetHandover(w http.ResponseWriter, r *http.Request) {
	handover := h.fleetService.Handover()
	if handover == nil {
		h.respondError(w, http.StatusNotFound, "No handover ingested yet")
		return
	}
	h.respondJSON(w, http.StatusOK, handover)
}

// tickRequest is the body of POST /api/v1/hoto/ticks
type tickRequest struct {
	UnitCode string `json:"unit_code"`
	Item     string `json:"item"`
	Done     bool   `json:"done"`
}

// SetTick handles POST /api/v1/hoto/ticks
func (h *Handler) SetTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !parse.IsUnitCode(req.UnitCode) {
		h.respondError(w, http.StatusBadRequest, "Invalid unit code: "+req.UnitCode)
		return
	}
	if strings.TrimSpace(req.Item) == "" {
		h.respondError(w, http.StatusBadRequest, "Item must not be empty")
		return
	}

	h.fleetService.SetTick(req.UnitCode, req.Item, req.Done)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticks": h.fleetService.Ticks(),
	})
}

// GetTicks handles GET /api/v1/hoto/ticks
func (h *Handler) GetTicks(w http.ResponseWriter, r *http.Request) {
	ticks := h.fleetService.Ticks()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticks": ticks,
		"count": len(ticks),
	})
}

// IngestDefects handles POST /api/v1/defects
func (h *Handler) IngestDefects(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readPaste(w, r)
	if !ok {
		return
	}

	records, err := h.fleetService.IngestDefects(text)
	if err != nil {
		h.logger.Error("Failed to ingest defect feed", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to ingest defect feed")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"defects": records,
		"count":   len(records),
	})
}

// GetDefects handles GET /api/v1/defects
func (h *Handler) GetDefects(w http.ResponseWriter, r *http.Request) {
	records := h.fleetService.Defects()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"defects": records,
		"count":   len(records),
	})
}

// GetDefectByCode handles GET /api/v1/defects/{code}
func (h *Handler) GetDefectByCode(w http.ResponseWriter, r *http.Request) {
	code, ok := h.unitCodeParam(w, r)
	if !ok {
		return
	}

	record := h.fleetService.DefectByCode(code)
	if record == nil {
		h.respondError(w, http.StatusNotFound, "No defect record for unit "+code)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// GetDefectHistory handles GET /api/v1/defects/{code}/history
func (h *Handler) GetDefectHistory(w http.ResponseWriter, r *http.Request) {
	code, ok := h.unitCodeParam(w, r)
	if !ok {
		return
	}
	limit := queryLimit(r, 50)

	records, err := h.defectStorage.GetDefectHistory(code, limit)
	if err != nil {
		h.logger.Error("Failed to get defect history",
			logger.String("unit_code", code), logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get defect history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"unit_code": code,
		"defects":   records,
		"count":     len(records),
	})
}

// GetBriefing handles GET /api/v1/briefing
func (h *Handler) GetBriefing(w http.ResponseWriter, r *http.Request) {
	if h.briefingStorage == nil {
		h.respondError(w, http.StatusNotFound, "Briefing generation is disabled")
		return
	}

	record, err := h.briefingStorage.GetLatestBriefing()
	if err != nil {
		h.logger.Error("Failed to get briefing", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get briefing")
		return
	}
	if record == nil {
		h.respondError(w, http.StatusNotFound, "No briefing generated yet")
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// HandleWebSocket handles GET /api/v1/ws
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"ws_clients":     h.wsServer.ClientCount(),
	})
}

// GetConfig handles GET /api/v1/config. Only fields the dashboard needs
// are exposed.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"unit_codes":       h.config.Fleet.UnitCodes,
		"briefing_enabled": h.config.Briefing.Enabled,
	})
}

// unitCodeParam extracts and validates the {code} URL parameter.
func (h *Handler) unitCodeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if !parse.IsUnitCode(code) {
		h.respondError(w, http.StatusBadRequest, "Invalid unit code: "+code)
		return "", false
	}
	return code, true
}

// queryLimit parses the limit query parameter with a default.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", logger.Error(err))
	}
}

// respondError writes an error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

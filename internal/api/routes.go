package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/fleet"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(fleetService *fleet.Service, statusStorage *sqlite.StatusStorage, defectStorage *sqlite.DefectStorage, briefingStorage *sqlite.BriefingStorage, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:    NewHandler(fleetService, statusStorage, defectStorage, briefingStorage, config, logger, wsServer),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Weekly schedule routes
		router.Post("/schedule", r.handler.IngestSchedule)
		router.Get("/schedule", r.handler.GetSchedule)

		// Status report routes
		router.Post("/status", r.handler.IngestStatus)
		router.Get("/status", r.handler.GetStatuses)
		router.Get("/status/{code}", r.handler.GetStatusByCode)
		router.Get("/status/{code}/history", r.handler.GetStatusHistory)

		// Handover routes
		router.Post("/hoto", r.handler.IngestHandover)
		router.Get("/hoto", r.handler.GetHandover)
		router.Post("/hoto/ticks", r.handler.SetTick)
		router.Get("/hoto/ticks", r.handler.GetTicks)

		// Defect feed routes
		router.Post("/defects", r.handler.IngestDefects)
		router.Get("/defects", r.handler.GetDefects)
		router.Get("/defects/{code}", r.handler.GetDefectByCode)
		router.Get("/defects/{code}/history", r.handler.GetDefectHistory)

		// Briefing route
		router.Get("/briefing", r.handler.GetBriefing)

		// WebSocket route
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	// Serve static files from the configured directory
	staticHandler := NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger)
	router.Handle("/*", staticHandler)

	return router
}

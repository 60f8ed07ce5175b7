package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakmund/fleetboard/internal/api"
	"github.com/oakmund/fleetboard/internal/briefing"
	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/fleet"
	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fleetboard",
	Short: "fleetboard - structured fleet state from pasted ops text",
	Long: `fleetboard parses the loosely formatted text documents a maintenance
flight actually produces (weekly schedules, nightly status reports,
HOTO notes, Telegram defect feeds) into structured records, persists
them, and serves them to a dashboard over HTTP and WebSocket.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fleetboard server",
	RunE:  runServe,
}

var parseCmd = &cobra.Command{
	Use:   "parse [kind] [file]",
	Short: "Parse one document and print the result as JSON",
	Long: `Parse a single document from a file (or stdin when file is "-") and
print the structured result. Kind is one of: schedule, status, hoto,
defects.`,
	Args: cobra.ExactArgs(2),
	RunE: runParse,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting fleetboard",
		logger.String("database", cfg.Storage.DatabasePath),
		logger.Int("port", cfg.Server.Port))

	db, err := sqlite.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	documentStorage := sqlite.NewDocumentStorage(db, log)
	scheduleStorage := sqlite.NewScheduleStorage(db, log)
	statusStorage := sqlite.NewStatusStorage(db, log)
	handoverStorage := sqlite.NewHandoverStorage(db, log)
	defectStorage := sqlite.NewDefectStorage(db, log)
	briefingStorage := sqlite.NewBriefingStorage(db, log)

	wsServer := websocket.NewServer(cfg.Server.CORSAllowedOrigins, log)

	fleetService := fleet.NewService(
		documentStorage,
		scheduleStorage,
		statusStorage,
		handoverStorage,
		defectStorage,
		wsServer,
		cfg,
		log,
	)
	if err := fleetService.LoadFromStorage(); err != nil {
		log.Error("Failed to restore state from storage", logger.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var briefingService *briefing.Service
	if cfg.Briefing.Enabled {
		apiKey := os.Getenv(cfg.Briefing.APIKeyEnv)
		if apiKey == "" {
			return fmt.Errorf("briefing enabled but %s is not set", cfg.Briefing.APIKeyEnv)
		}
		aggregator := briefing.NewAggregator(fleetService, log)
		client := briefing.NewOpenAIClient(apiKey, log)
		briefingService = briefing.NewService(ctx, aggregator, client, briefingStorage, wsServer, cfg.Briefing, log)
		if err := briefingService.Start(); err != nil {
			return fmt.Errorf("failed to start briefing service: %w", err)
		}
	}

	router := api.NewRouter(fleetService, statusStorage, defectStorage, briefingStorage, cfg, log, wsServer)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("server error: %w", err)
		log.Error("HTTP server failed, shutting down", logger.Error(err))
	case sig := <-sigCh:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	}

	if briefingService != nil {
		briefingService.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("server shutdown failed: %w", err)
	}

	if serveErr != nil {
		return serveErr
	}
	log.Info("Shutdown complete")
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	kind, file := args[0], args[1]

	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	text := string(data)

	var result interface{}
	switch kind {
	case "schedule":
		result = parse.ParseWeeklySchedule(text)
	case "status":
		result = parse.ParseStatusReport(text)
	case "hoto":
		result = parse.ParseHandover(text)
	case "defects":
		result = parse.ParseDefectBlocks(text)
	default:
		return fmt.Errorf("unknown document kind %q (want schedule, status, hoto or defects)", kind)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

package briefing

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

const defaultSystemPrompt = `You are a maintenance operations assistant. ` +
	`Summarize the fleet picture below into a short shift briefing. ` +
	`Lead with anything unserviceable or aircraft-on-ground, then the day's ` +
	`flying programme, then outstanding handover items. Be factual and terse; ` +
	`do not invent details that are not in the input.`

// Generator is the interface the service uses to produce briefing text.
// Satisfied by OpenAIClient; tests substitute a fake.
type Generator interface {
	GenerateBriefing(ctx context.Context, systemPrompt, userInput, model string) (string, error)
}

// Service periodically generates fleet briefings
type Service struct {
	ctx             context.Context
	cancel          context.CancelFunc
	aggregator      *Aggregator
	generator       Generator
	briefingStorage *sqlite.BriefingStorage
	wsServer        *websocket.Server
	config          config.BriefingConfig
	logger          *logger.Logger
	wg              sync.WaitGroup
}

// NewService creates a new briefing service
func NewService(
	ctx context.Context,
	aggregator *Aggregator,
	generator Generator,
	briefingStorage *sqlite.BriefingStorage,
	wsServer *websocket.Server,
	cfg config.BriefingConfig,
	log *logger.Logger,
) *Service {
	svcCtx, svcCancel := context.WithCancel(ctx)
	return &Service{
		ctx:             svcCtx,
		cancel:          svcCancel,
		aggregator:      aggregator,
		generator:       generator,
		briefingStorage: briefingStorage,
		wsServer:        wsServer,
		config:          cfg,
		logger:          log.Named("briefing"),
	}
}

// Start starts the briefing generation loop
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Briefing generation is disabled, not starting")
		return nil
	}

	interval := time.Duration(s.config.IntervalSeconds) * time.Second
	s.logger.Info("Starting briefing generation loop",
		logger.String("model", s.config.Model),
		logger.Duration("interval", interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("Briefing loop stopped due to context cancellation")
				return
			case <-ticker.C:
				if err := s.generate(); err != nil {
					s.logger.Error("Failed to generate briefing", logger.Error(err))
				}
			}
		}
	}()
	return nil
}

// Stop stops the briefing generation loop
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// generate builds the fleet context, runs the model and stores the
// result.
func (s *Service) generate() error {
	userInput := s.aggregator.BuildContext()

	timeout := time.Duration(s.config.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	content, err := s.generator.GenerateBriefing(ctx, s.systemPrompt(), userInput, s.config.Model)
	if err != nil {
		return err
	}

	if _, err := s.briefingStorage.StoreBriefing(content, s.config.Model); err != nil {
		return err
	}

	s.logger.Info("Stored new briefing", logger.Int("content_length", len(content)))
	if s.wsServer != nil {
		s.wsServer.Broadcast(&websocket.Message{
			Type: "briefing_update",
			Data: map[string]interface{}{"model": s.config.Model},
		})
	}
	return nil
}

// systemPrompt loads the configured prompt file, falling back to the
// built-in prompt.
func (s *Service) systemPrompt() string {
	if s.config.SystemPromptPath == "" {
		return defaultSystemPrompt
	}
	data, err := os.ReadFile(s.config.SystemPromptPath)
	if err != nil {
		s.logger.Error("Failed to read system prompt file, using default",
			logger.String("path", s.config.SystemPromptPath),
			logger.Error(err))
		return defaultSystemPrompt
	}
	return string(data)
}

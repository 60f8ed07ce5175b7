// Package fleet owns the current parsed picture of the fleet: the latest
// schedule, status, handover and defect snapshots, plus the ticked-items
// overlay. Ingest methods re-run the parsers, persist the results and
// broadcast changes to dashboard clients.
package fleet

import (
	"fmt"
	"sync"

	"github.com/oakmund/fleetboard/internal/config"
	"github.com/oakmund/fleetboard/internal/parse"
	"github.com/oakmund/fleetboard/internal/storage/sqlite"
	"github.com/oakmund/fleetboard/internal/websocket"
	"github.com/oakmund/fleetboard/pkg/logger"
)

// Service holds the latest structured fleet state
type Service struct {
	documentStorage *sqlite.DocumentStorage
	scheduleStorage *sqlite.ScheduleStorage
	statusStorage   *sqlite.StatusStorage
	handoverStorage *sqlite.HandoverStorage
	defectStorage   *sqlite.DefectStorage
	wsServer        *websocket.Server
	changeDetector  *ChangeDetector
	logger          *logger.Logger

	// Non-empty means only these codes are tracked.
	allowedCodes map[string]struct{}

	mu       sync.RWMutex
	week     []*parse.DayRecord
	statuses map[string]*parse.StatusEntry
	handover *parse.Handover
	defects  map[string]*parse.DefectRecord
	ticks    TickSet
}

// NewService creates a new fleet service
func NewService(
	documentStorage *sqlite.DocumentStorage,
	scheduleStorage *sqlite.ScheduleStorage,
	statusStorage *sqlite.StatusStorage,
	handoverStorage *sqlite.HandoverStorage,
	defectStorage *sqlite.DefectStorage,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	allowed := make(map[string]struct{}, len(cfg.Fleet.UnitCodes))
	for _, code := range cfg.Fleet.UnitCodes {
		allowed[code] = struct{}{}
	}

	return &Service{
		documentStorage: documentStorage,
		scheduleStorage: scheduleStorage,
		statusStorage:   statusStorage,
		handoverStorage: handoverStorage,
		defectStorage:   defectStorage,
		wsServer:        wsServer,
		changeDetector:  NewChangeDetector(log),
		logger:          log.Named("fleet"),
		allowedCodes:    allowed,
		statuses:        make(map[string]*parse.StatusEntry),
		defects:         make(map[string]*parse.DefectRecord),
		ticks:           NewTickSet(),
	}
}

// LoadFromStorage restores the latest persisted snapshots so the
// dashboard is populated immediately after a restart.
func (s *Service) LoadFromStorage() error {
	week, err := s.scheduleStorage.GetLatestWeek()
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	statuses, err := s.statusStorage.GetLatestStatuses()
	if err != nil {
		return fmt.Errorf("failed to load statuses: %w", err)
	}
	handover, err := s.handoverStorage.GetLatestHandover()
	if err != nil {
		return fmt.Errorf("failed to load handover: %w", err)
	}
	defects, err := s.defectStorage.GetLatestDefects()
	if err != nil {
		return fmt.Errorf("failed to load defects: %w", err)
	}

	s.mu.Lock()
	s.week = week
	s.statuses = statuses
	s.handover = handover
	s.defects = defects
	s.mu.Unlock()

	// Seed the change detector so the first ingest after restart reports
	// real differences rather than everything as added.
	s.changeDetector.DetectChanges(statuses)

	s.logger.Info("Restored fleet state from storage",
		logger.Int("day_records", len(week)),
		logger.Int("statuses", len(statuses)),
		logger.Int("defects", len(defects)),
		logger.Bool("handover", handover != nil))
	return nil
}

// IngestSchedule parses a weekly schedule paste and replaces the current
// week.
func (s *Service) IngestSchedule(text string) ([]*parse.DayRecord, error) {
	records := parse.ParseWeeklySchedule(text)

	if _, err := s.documentStorage.StoreDocument(sqlite.DocSchedule, text); err != nil {
		s.logger.Error("Failed to store schedule document", logger.Error(err))
	}
	if err := s.scheduleStorage.ReplaceWeek(records); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	s.mu.Lock()
	s.week = records
	s.mu.Unlock()

	s.logger.Info("Ingested weekly schedule", logger.Int("day_records", len(records)))
	s.broadcast("schedule_update", map[string]interface{}{"day_count": len(records)})
	return records, nil
}

// IngestStatus parses a nightly status report, replaces the current
// status set and broadcasts per-unit changes.
func (s *Service) IngestStatus(text string) (map[string]*parse.StatusEntry, error) {
	entries := s.filterStatusCodes(parse.ParseStatusReport(text))

	if _, err := s.documentStorage.StoreDocument(sqlite.DocStatus, text); err != nil {
		s.logger.Error("Failed to store status document", logger.Error(err))
	}
	if err := s.statusStorage.ReplaceStatuses(entries); err != nil {
		return nil, fmt.Errorf("failed to persist statuses: %w", err)
	}

	s.mu.Lock()
	s.statuses = entries
	s.mu.Unlock()

	changes := s.changeDetector.DetectChanges(entries)
	s.logger.Info("Ingested status report",
		logger.Int("entries", len(entries)),
		logger.Int("changes", len(changes)))

	for _, change := range changes {
		data := map[string]interface{}{
			"change":    change.Type,
			"unit_code": change.UnitCode,
		}
		if change.Entry != nil {
			data["entry"] = change.Entry
		}
		s.broadcast("status_change", data)
	}
	return entries, nil
}

// IngestHandover parses a HOTO paste, replaces the current handover and
// clears ticks that no longer refer to an outstanding item.
func (s *Service) IngestHandover(text string) (*parse.Handover, error) {
	h := parse.ParseHandover(text)

	if _, err := s.documentStorage.StoreDocument(sqlite.DocHandover, text); err != nil {
		s.logger.Error("Failed to store handover document", logger.Error(err))
	}
	if _, err := s.handoverStorage.StoreHandover(h); err != nil {
		return nil, fmt.Errorf("failed to persist handover: %w", err)
	}

	s.mu.Lock()
	s.handover = h
	s.pruneTicksLocked()
	s.mu.Unlock()

	s.logger.Info("Ingested handover",
		logger.Int("completed_units", len(h.Completed)),
		logger.Int("outstanding_units", len(h.Outstanding)))
	s.broadcast("handover_update", nil)
	return h, nil
}

// IngestDefects parses a Telegram defect feed and replaces the current
// defect set.
func (s *Service) IngestDefects(text string) (map[string]*parse.DefectRecord, error) {
	records := s.filterDefectCodes(parse.ParseDefectBlocks(text))

	if _, err := s.documentStorage.StoreDocument(sqlite.DocDefects, text); err != nil {
		s.logger.Error("Failed to store defect document", logger.Error(err))
	}
	if err := s.defectStorage.ReplaceDefects(records); err != nil {
		return nil, fmt.Errorf("failed to persist defects: %w", err)
	}

	s.mu.Lock()
	s.defects = records
	s.mu.Unlock()

	s.logger.Info("Ingested defect feed", logger.Int("records", len(records)))
	s.broadcast("defects_update", map[string]interface{}{"record_count": len(records)})
	return records, nil
}

// Week returns the current week's day records.
func (s *Service) Week() []*parse.DayRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.week
}

// Statuses returns the current status set keyed by unit code.
func (s *Service) Statuses() map[string]*parse.StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses
}

// StatusByCode returns one unit's status entry, or nil.
func (s *Service) StatusByCode(code string) *parse.StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[code]
}

// Handover returns the current handover with the ticked-items overlay
// applied.
func (s *Service) Handover() *parse.Handover {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ApplyTicks(s.handover, s.ticks)
}

// Defects returns the current defect set keyed by unit code.
func (s *Service) Defects() map[string]*parse.DefectRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defects
}

// DefectByCode returns one unit's defect record, or nil.
func (s *Service) DefectByCode(code string) *parse.DefectRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defects[code]
}

// SetTick marks or clears one outstanding handover item as done.
func (s *Service) SetTick(unitCode, item string, done bool) {
	s.mu.Lock()
	if done {
		s.ticks.Add(unitCode, item)
	} else {
		s.ticks.Remove(unitCode, item)
	}
	s.mu.Unlock()

	s.broadcast("handover_update", nil)
}

// Ticks returns the ticked items in stable order.
func (s *Service) Ticks() []TickKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks.Keys()
}

// pruneTicksLocked drops ticks whose item no longer appears in the
// current handover's outstanding lists. Caller holds the write lock.
func (s *Service) pruneTicksLocked() {
	if s.handover == nil {
		s.ticks = NewTickSet()
		return
	}
	kept := NewTickSet()
	for key := range s.ticks {
		if group, ok := s.handover.Outstanding[key.UnitCode]; ok {
			for _, item := range group.Items {
				if item == key.Item {
					kept[key] = struct{}{}
					break
				}
			}
		}
	}
	s.ticks = kept
}

// filterStatusCodes drops entries whose code is not tracked.
func (s *Service) filterStatusCodes(entries map[string]*parse.StatusEntry) map[string]*parse.StatusEntry {
	if len(s.allowedCodes) == 0 {
		return entries
	}
	out := make(map[string]*parse.StatusEntry, len(entries))
	for code, entry := range entries {
		if _, ok := s.allowedCodes[code]; ok {
			out[code] = entry
		} else {
			s.logger.Debug("Dropping untracked unit code", logger.String("unit_code", code))
		}
	}
	return out
}

// filterDefectCodes drops records whose code is not tracked.
func (s *Service) filterDefectCodes(records map[string]*parse.DefectRecord) map[string]*parse.DefectRecord {
	if len(s.allowedCodes) == 0 {
		return records
	}
	out := make(map[string]*parse.DefectRecord, len(records))
	for code, rec := range records {
		if _, ok := s.allowedCodes[code]; ok {
			out[code] = rec
		} else {
			s.logger.Debug("Dropping untracked unit code", logger.String("unit_code", code))
		}
	}
	return out
}

// broadcast sends a dashboard event when a websocket server is wired.
func (s *Service) broadcast(msgType string, data map[string]interface{}) {
	if s.wsServer == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	s.wsServer.Broadcast(&websocket.Message{Type: msgType, Data: data})
}

// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/martlaht/ferrywatch/internal/entities"
	"github.com/martlaht/ferrywatch/internal/notify"
	"github.com/martlaht/ferrywatch/internal/repository"
	"github.com/robfig/cron/v3"
)

// ScheduleClient is the read-only view of the ferry schedule API that the
// session manager needs
type ScheduleClient interface {
	Events(ctx context.Context, direction, departureDate string) (*entities.EventsResponse, error)
}

// SessionManager owns the set of active watch sessions, their polling
// timers and their notification dispatch. Session records are persisted
// after every mutation; scheduling handles live only in memory.
type SessionManager struct {
	repo     repository.SessionRepository
	schedule ScheduleClient
	channels notify.Factory
	interval time.Duration
	cron     *cron.Cron

	// startMu serializes whole StartSession calls so that the
	// stop-then-install sequence cannot interleave for one departure
	startMu sync.Mutex

	mu       sync.Mutex
	sessions map[string]*entities.WatchSession
	entries  map[string]cron.EntryID // ephemeral scheduling handles, never persisted
	open     map[string]notify.Channel
	inFlight map[string]bool // per-session poll overlap guard
}

// NewSessionManager creates a session manager polling on the given interval.
// An interval of zero falls back to the one minute default.
func NewSessionManager(repo repository.SessionRepository, schedule ScheduleClient, channels notify.Factory, interval time.Duration) *SessionManager {
	if interval <= 0 {
		interval = time.Minute
	}
	c := cron.New()
	c.Start()
	return &SessionManager{
		repo:     repo,
		schedule: schedule,
		channels: channels,
		interval: interval,
		cron:     c,
		sessions: make(map[string]*entities.WatchSession),
		entries:  make(map[string]cron.EntryID),
		open:     make(map[string]notify.Channel),
		inFlight: make(map[string]bool),
	}
}

// StartSession installs a new watch session and begins polling it. Any
// existing session with the same id or for the same departure is fully
// stopped first. A failed start notification does not fail the start;
// invalid configuration does.
func (m *SessionManager) StartSession(cfg entities.WatchSession) error {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	if cfg.Threshold <= 0 {
		return fmt.Errorf("threshold must be a positive integer, got %d", cfg.Threshold)
	}
	if cfg.Channel == entities.ChannelTelegram && (cfg.TelegramBotToken == "" || cfg.TelegramChatID == "") {
		return fmt.Errorf("telegram channel selected but credentials are missing")
	}

	channel, err := m.channels.ChannelFor(&cfg)
	if err != nil {
		return fmt.Errorf("failed to set up notification channel: %v", err)
	}

	// Generate unique ID if not provided
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("%s-%d", cfg.DepartureUID, time.Now().UnixMilli())
	}

	// Stop any session already covering this id or departure
	m.StopSession(cfg.ID)
	for _, id := range m.sessionsForDeparture(cfg.DepartureUID) {
		log.Printf("Departure %s already monitored by session %s, stopping it first", cfg.DepartureUID, id)
		m.StopSession(id)
	}

	cfg.Active = true
	cfg.CreatedAt = time.Now()
	cfg.LastCapacityCheck = time.Now()

	m.mu.Lock()
	session := cfg
	m.sessions[session.ID] = &session
	m.open[session.ID] = channel
	entryID, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), func() { m.poll(session.ID) })
	if err != nil {
		delete(m.sessions, session.ID)
		delete(m.open, session.ID)
		m.mu.Unlock()
		return fmt.Errorf("failed to schedule poll timer: %v", err)
	}
	m.entries[session.ID] = entryID
	m.mu.Unlock()

	m.persist()
	log.Printf("Started watch session %s for departure %s (%s at %s, threshold %d)",
		session.ID, session.DepartureUID, session.Route, session.DepartureTime, session.Threshold)

	if err := channel.Deliver(notify.MonitoringStarted(session.Route, session.DepartureTime, session.Threshold)); err != nil {
		log.Printf("Failed to send start notification for session %s: %v", session.ID, err)
	}

	// Do initial check so the user doesn't wait a full interval
	go m.poll(session.ID)

	return nil
}

// StopSession cancels the session's timer, sends a stop notification if the
// session was active, removes the record and persists the remaining set.
// Stopping an unknown id is a no-op.
func (m *SessionManager) StopSession(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if entryID, ok := m.entries[id]; ok {
		m.cron.Remove(entryID)
		delete(m.entries, id)
	}
	stopped := *session
	channel := m.open[id]
	delete(m.sessions, id)
	delete(m.open, id)
	delete(m.inFlight, id)
	m.mu.Unlock()

	if stopped.Active && channel != nil {
		if err := channel.Deliver(notify.MonitoringStopped(stopped.Route, stopped.DepartureTime)); err != nil {
			log.Printf("Failed to send stop notification for session %s: %v", id, err)
		}
	}

	m.persist()
	log.Printf("Stopped watch session %s for departure %s", id, stopped.DepartureUID)
}

// StopAllSessions stops every active session individually
func (m *SessionManager) StopAllSessions() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.StopSession(id)
	}
}

// ListActiveSessions returns a snapshot copy of all active sessions
func (m *SessionManager) ListActiveSessions() []entities.WatchSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]entities.WatchSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, *s)
	}
	return result
}

// IsMonitored reports whether any active session targets the departure
func (m *SessionManager) IsMonitored(departureUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.DepartureUID == departureUID {
			return true
		}
	}
	return false
}

// RestoreSessions reloads persisted sessions at process start. Sessions
// whose departure time has already passed are dropped; the rest are resumed
// through the full start path, re-scheduling their timers and re-sending a
// start notification. An empty result clears the store.
func (m *SessionManager) RestoreSessions() error {
	saved, err := m.repo.Load()
	if err != nil {
		return fmt.Errorf("failed to load persisted sessions: %v", err)
	}
	log.Printf("Loaded %d persisted watch sessions", len(saved))

	now := time.Now()
	for _, s := range saved {
		departureAt, err := s.DepartureAt()
		if err != nil {
			log.Printf("Skipping persisted session %s: %v", s.ID, err)
			continue
		}
		if !departureAt.After(now) {
			log.Printf("Dropping persisted session %s: departure %s has passed", s.ID, departureAt.Format(time.RFC3339))
			continue
		}
		if err := m.StartSession(s); err != nil {
			log.Printf("Failed to resume session %s: %v", s.ID, err)
		}
	}

	m.mu.Lock()
	remaining := len(m.sessions)
	m.mu.Unlock()
	if remaining == 0 {
		if err := m.repo.Clear(); err != nil {
			log.Printf("Failed to clear session store: %v", err)
		}
	}
	return nil
}

// Close stops the timer scheduler without stopping the sessions themselves;
// the persisted records stay in place for the next start.
func (m *SessionManager) Close() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// poll runs one capacity check cycle for a session. Errors are logged and
// swallowed; the next tick retries. A vanished departure stops the session.
func (m *SessionManager) poll(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if m.inFlight[id] {
		// Previous poll for this session still outstanding, skip this tick
		m.mu.Unlock()
		log.Printf("Poll for session %s still in flight, skipping tick", id)
		return
	}
	m.inFlight[id] = true
	session.LastCapacityCheck = time.Now()
	direction := session.Direction
	departureDate := session.DepartureDate
	departureUID := session.DepartureUID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, id)
		m.mu.Unlock()
	}()

	events, err := m.schedule.Events(context.Background(), direction, departureDate)
	if err != nil {
		log.Printf("Error checking capacity for session %s: %v", id, err)
		return
	}

	var target *entities.Departure
	for i := range events.Items {
		if events.Items[i].UID == departureUID {
			target = &events.Items[i]
			break
		}
	}
	if target == nil {
		log.Printf("Target departure %s not found for session %s, stopping monitoring", departureUID, id)
		m.StopSession(id)
		return
	}

	currentCapacity := target.Capacities.SmallVehicles

	m.mu.Lock()
	session, ok = m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	session.LastCheckedCapacity = currentCapacity
	snapshot := *session
	m.mu.Unlock()
	m.persist()

	// Send notification immediately when capacity drops below threshold (no spam protection)
	if currentCapacity < snapshot.Threshold {
		log.Printf("Session %s: capacity %d below threshold %d, sending alert",
			id, currentCapacity, snapshot.Threshold)
		m.dispatch(id, notify.CapacityAlert(snapshot.Route, snapshot.DepartureTime, currentCapacity, snapshot.Threshold))

		m.mu.Lock()
		if session, ok := m.sessions[id]; ok {
			session.LastNotificationSent = time.Now()
		}
		m.mu.Unlock()
		m.persist()
	}
}

// dispatch delivers a message on the session's channel, best-effort
func (m *SessionManager) dispatch(id string, msg notify.Message) {
	m.mu.Lock()
	channel := m.open[id]
	m.mu.Unlock()
	if channel == nil {
		log.Printf("No notification channel open for session %s", id)
		return
	}
	if err := channel.Deliver(msg); err != nil {
		log.Printf("Failed to deliver notification for session %s: %v", id, err)
	}
}

// sessionsForDeparture returns the ids of active sessions targeting the departure
func (m *SessionManager) sessionsForDeparture(departureUID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, s := range m.sessions {
		if s.DepartureUID == departureUID {
			ids = append(ids, id)
		}
	}
	return ids
}

// persist writes the current session set to the store
func (m *SessionManager) persist() {
	snapshot := m.ListActiveSessions()
	if err := m.repo.Save(snapshot); err != nil {
		log.Printf("Failed to persist watch sessions: %v", err)
	}
}

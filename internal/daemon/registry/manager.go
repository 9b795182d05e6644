// Package registry tracks the set of background agent sessions.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ahostbr/kuroryuu/internal/logging"
	"github.com/ahostbr/kuroryuu/internal/models"
)

// DefaultPollInterval is the registry refresh cadence when none is configured.
const DefaultPollInterval = 5 * time.Second

// refreshTimeout bounds a single control API round trip so a hung backend
// never blocks the poll loop indefinitely.
const refreshTimeout = 15 * time.Second

// ControlAPI is the subset of the session control API the registry consumes.
type ControlAPI interface {
	Start(ctx context.Context, cfg models.SpawnConfig) (string, error)
	Stop(ctx context.Context, sessionID string) (bool, error)
	Resume(ctx context.Context, sessionID, prompt string) (string, error)
	List(ctx context.Context) ([]models.Session, error)
	Logs(ctx context.Context, sessionID string) (string, error)
}

// Archiver persists terminated sessions.
type Archiver interface {
	Archive(snapshot models.Session, logs string) error
}

// Manager is the single source of truth for which sessions exist and
// their lifecycle state. State transitions come from the control API;
// the registry never originates them, it only observes and archives.
type Manager struct {
	mu           sync.RWMutex
	client       ControlAPI
	archiver     Archiver
	sessions     map[string]models.Session
	order        []string // upstream list order
	seenTerminal map[string]struct{}
	lastErr      error
	lastRefresh  time.Time
	onChangeFn   func([]models.Session)
	pollInterval time.Duration
	log          *logrus.Entry

	cancel    context.CancelFunc
	done      chan struct{}
	refreshCh chan struct{}
}

// NewManager creates a registry over the given control API and archiver.
// pollInterval <= 0 uses DefaultPollInterval.
func NewManager(client ControlAPI, archiver Archiver, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Manager{
		client:       client,
		archiver:     archiver,
		sessions:     make(map[string]models.Session),
		seenTerminal: make(map[string]struct{}),
		pollInterval: pollInterval,
		log:          logging.NewLogger("registry"),
		refreshCh:    make(chan struct{}, 1),
	}
}

// SetOnChange sets a callback invoked with the full session set after each
// successful refresh. Used to drive graph rebuilds.
func (m *Manager) SetOnChange(fn func([]models.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChangeFn = fn
}

// Start launches the poll loop. The timer re-arms after each refresh
// completes, so refreshes never overlap.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Stop tears the poll loop down and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// run drives refreshes from both the poll timer and push notifications.
func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	for {
		if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
			m.log.WithError(err).Warn("Session refresh failed; keeping previous snapshot")
		}

		timer := time.NewTimer(m.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-m.refreshCh:
			timer.Stop()
		}
	}
}

// RefreshNow requests an immediate refresh from the poll loop. Signals are
// coalesced; both push notifications and post-operation refreshes funnel
// through here so polling and push share one code path.
func (m *Manager) RefreshNow() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

// NotifyStatusChange handles a pushed status-change notification.
func (m *Manager) NotifyStatusChange(sessionID string, status models.SessionStatus) {
	m.log.WithFields(logrus.Fields{"session": sessionID, "status": status}).Debug("Status change pushed")
	m.RefreshNow()
}

// NotifyCompleted handles a pushed completion notification.
func (m *Manager) NotifyCompleted(sessionID string) {
	m.log.WithField("session", sessionID).Debug("Completion pushed")
	m.RefreshNow()
}

// Refresh fetches the current full session list and replaces the in-memory
// snapshot. On error the previous snapshot is retained and the error is
// recorded for callers to surface; it is never fatal.
func (m *Manager) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	list, err := m.client.List(ctx)
	if err != nil {
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	m.mu.Lock()
	m.lastErr = nil
	m.lastRefresh = time.Now().UTC()

	next := make(map[string]models.Session, len(list))
	order := make([]string, 0, len(list))
	var newlyTerminal []models.Session
	for _, s := range list {
		next[s.ID] = s
		order = append(order, s.ID)

		if s.Status.IsTerminal() {
			if _, seen := m.seenTerminal[s.ID]; !seen {
				// Mark before archiving: duplicate terminal observations
				// must not double-archive, and a failed write is not
				// retried until the session re-enters a terminal state.
				m.seenTerminal[s.ID] = struct{}{}
				newlyTerminal = append(newlyTerminal, s)
			}
		}
	}
	m.sessions = next
	m.order = order
	onChange := m.onChangeFn
	m.mu.Unlock()

	for _, snapshot := range newlyTerminal {
		m.archiveSession(ctx, snapshot)
	}

	if onChange != nil {
		onChange(m.Sessions())
	}
	return nil
}

// archiveSession writes a terminated session to durable storage, fetching
// a log excerpt best-effort. A failed write leaves the session visible in
// the live registry only; it is logged, never raised.
func (m *Manager) archiveSession(ctx context.Context, snapshot models.Session) {
	logs, err := m.client.Logs(ctx, snapshot.ID)
	if err != nil {
		m.log.WithError(err).WithField("session", snapshot.ID).Debug("No log excerpt available")
		logs = ""
	}

	if err := m.archiver.Archive(snapshot, logs); err != nil {
		m.log.WithError(err).WithField("session", snapshot.ID).Error("Failed to archive session")
		return
	}
	m.log.WithFields(logrus.Fields{"session": snapshot.ID, "status": snapshot.Status}).Info("Session archived")
}

// StartSession asks the backend to spawn a session, then refreshes
// immediately so the new session appears without waiting for the next tick.
func (m *Manager) StartSession(ctx context.Context, cfg models.SpawnConfig) (string, error) {
	id, err := m.client.Start(ctx, cfg)
	if err != nil {
		return "", err
	}
	if err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("Post-start refresh failed")
	}
	return id, nil
}

// StopSession asks the backend to stop a session, then refreshes immediately.
func (m *Manager) StopSession(ctx context.Context, sessionID string) (bool, error) {
	ok, err := m.client.Stop(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("Post-stop refresh failed")
	}
	return ok, nil
}

// ResumeSession asks the backend to resume a terminated session with a new
// prompt, then refreshes immediately. The backend may assign a fresh id.
func (m *Manager) ResumeSession(ctx context.Context, sessionID, prompt string) (string, error) {
	id, err := m.client.Resume(ctx, sessionID, prompt)
	if err != nil {
		return "", err
	}
	if err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("Post-resume refresh failed")
	}
	return id, nil
}

// Sessions returns all tracked sessions in upstream list order.
func (m *Manager) Sessions() []models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Session, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Live returns the sessions not yet in a terminal state.
func (m *Manager) Live() []models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Session
	for _, id := range m.order {
		if s, ok := m.sessions[id]; ok && !s.Status.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// Get returns a tracked session by id.
func (m *Manager) Get(sessionID string) (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// LastError returns the error from the most recent failed refresh, or nil
// after a successful one. Surfaced to the UI as a non-fatal condition.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastRefresh returns the time of the most recent successful refresh.
func (m *Manager) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefresh
}

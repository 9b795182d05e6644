// Package server wires the daemon's components together and exposes the
// query surface consumed by UI layers.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ahostbr/kuroryuu/internal/control"
	"github.com/ahostbr/kuroryuu/internal/daemon/archive"
	"github.com/ahostbr/kuroryuu/internal/daemon/events"
	"github.com/ahostbr/kuroryuu/internal/daemon/graph"
	"github.com/ahostbr/kuroryuu/internal/daemon/registry"
	"github.com/ahostbr/kuroryuu/internal/logging"
	"github.com/ahostbr/kuroryuu/internal/models"
)

// Server owns one instance of every component, constructed once per
// process and torn down together. No component state lives in package
// globals; consumers hold a *Server.
type Server struct {
	registry       *registry.Manager
	store          *archive.Store
	archiveWatcher *archive.Watcher
	stream         *events.Stream
	feed           *events.Feed
	correlator     *events.Correlator
	builder        *graph.Builder
	log            *logrus.Entry

	onArchiveChange func()
	watcherDone     chan struct{}
	started         bool
}

// New builds a server from settings. archiveDir roots the durable store.
func New(settings *models.Settings, archiveDir string) (*Server, error) {
	store, err := archive.NewStore(archiveDir, settings.Archive.MaxRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive store: %w", err)
	}

	client := control.New(settings.Control.BaseURL, time.Duration(settings.Control.TimeoutSeconds)*time.Second)
	reg := registry.NewManager(client, store, time.Duration(settings.Registry.PollIntervalSeconds)*time.Second)

	stream := events.NewStream(settings.Events.MaxBuffered, time.Duration(settings.Events.MaxAgeMinutes)*time.Minute)
	feed := events.NewFeed(events.FeedConfig{
		BaseURL:       settings.Feed.URL,
		BackfillLimit: settings.Feed.BackfillLimit,
	}, stream)

	builder := graph.NewBuilder(time.Duration(settings.Graph.DebounceMs) * time.Millisecond)
	reg.SetOnChange(builder.Notify)

	return &Server{
		registry:   reg,
		store:      store,
		stream:     stream,
		feed:       feed,
		correlator: events.NewCorrelator(stream),
		builder:    builder,
		log:        logging.NewLogger("server"),
	}, nil
}

// SetOnArchiveChange sets a callback fired when archive records change on
// disk. Must be called before Start.
func (s *Server) SetOnArchiveChange(fn func()) {
	s.onArchiveChange = fn
}

// Start brings up the poll loop, the telemetry feed, and the archive
// watcher.
func (s *Server) Start() error {
	if s.started {
		return fmt.Errorf("server already started")
	}
	s.started = true

	watcher, err := archive.NewWatcher(s.store.Dir())
	if err != nil {
		// The store still works without change notifications.
		s.log.WithError(err).Warn("Archive watcher unavailable")
	} else {
		s.archiveWatcher = watcher
		s.watcherDone = make(chan struct{})
		go s.forwardArchiveChanges()
	}

	s.registry.Start()
	s.feed.Start()
	s.log.Info("Daemon components started")
	return nil
}

// Stop tears every subscription down: poll timer, feed connection, archive
// watcher, and any pending graph debounce. Nothing fires after Stop returns.
func (s *Server) Stop() {
	if !s.started {
		return
	}
	s.started = false

	s.registry.Stop()
	s.feed.Stop()
	s.builder.Close()
	if s.archiveWatcher != nil {
		s.archiveWatcher.Stop()
		<-s.watcherDone
	}
	s.log.Info("Daemon components stopped")
}

// forwardArchiveChanges relays archive-dir change signals to the callback
// until the watcher stops.
func (s *Server) forwardArchiveChanges() {
	defer close(s.watcherDone)
	for {
		select {
		case <-s.archiveWatcher.Done():
			return
		case <-s.archiveWatcher.Changes():
			if s.onArchiveChange != nil {
				s.onArchiveChange()
			}
		}
	}
}

// ListSessions returns all tracked sessions.
func (s *Server) ListSessions() []models.Session {
	return s.registry.Sessions()
}

// LiveSessions returns tracked sessions not yet in a terminal state.
func (s *Server) LiveSessions() []models.Session {
	return s.registry.Live()
}

// RegistryError returns the most recent refresh error, nil when healthy.
func (s *Server) RegistryError() error {
	return s.registry.LastError()
}

// StartSession spawns a new session via the control API.
func (s *Server) StartSession(ctx context.Context, cfg models.SpawnConfig) (string, error) {
	return s.registry.StartSession(ctx, cfg)
}

// StopSession stops a session via the control API.
func (s *Server) StopSession(ctx context.Context, sessionID string) (bool, error) {
	return s.registry.StopSession(ctx, sessionID)
}

// ResumeSession resumes a terminated session via the control API.
func (s *Server) ResumeSession(ctx context.Context, sessionID, prompt string) (string, error) {
	return s.registry.ResumeSession(ctx, sessionID, prompt)
}

// NotifyStatusChange feeds a pushed status change into the registry.
func (s *Server) NotifyStatusChange(sessionID string, status models.SessionStatus) {
	s.registry.NotifyStatusChange(sessionID, status)
}

// NotifyCompleted feeds a pushed completion notification into the registry.
func (s *Server) NotifyCompleted(sessionID string) {
	s.registry.NotifyCompleted(sessionID)
}

// ListArchived returns archived sessions, most recent first.
func (s *Server) ListArchived() ([]*models.ArchivedSession, error) {
	return s.store.List()
}

// DeleteArchived removes one archived record. Caller-initiated only.
func (s *Server) DeleteArchived(id string) error {
	return s.store.Delete(id)
}

// EventsForSession returns the hook events belonging to a tracked session,
// resolved through the correlator so runtime id churn is handled.
func (s *Server) EventsForSession(trackedID string) []models.HookEvent {
	return s.correlator.EventsFor(trackedID)
}

// QueryEvents returns buffered events matching the filter.
func (s *Server) QueryEvents(f events.Filter) []models.HookEvent {
	return s.stream.Query(f)
}

// BucketedCounts returns a time-bucketed histogram over the filtered set.
func (s *Server) BucketedCounts(f events.Filter, rangeSeconds int) events.Histogram {
	return s.stream.BucketedCounts(f, rangeSeconds)
}

// Graph returns the most recently built layout.
func (s *Server) Graph() *graph.Graph {
	return s.builder.Graph()
}

// Stream exposes the event stream for pause/resume and stats queries.
func (s *Server) Stream() *events.Stream {
	return s.stream
}

// FeedStats fetches aggregate counters from the telemetry feed.
func (s *Server) FeedStats(ctx context.Context) (*events.FeedStats, error) {
	return s.feed.Stats(ctx)
}

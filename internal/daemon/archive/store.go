// Package archive persists terminated sessions to durable storage.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ahostbr/kuroryuu/internal/config"
	"github.com/ahostbr/kuroryuu/internal/logging"
	"github.com/ahostbr/kuroryuu/internal/models"
)

// DefaultMaxRecords is the retention cap applied when none is configured.
const DefaultMaxRecords = 200

// Store is the durable, append-mostly record of terminated sessions.
// One YAML file per session id; writes overwrite by key (last write wins).
type Store struct {
	mu         sync.Mutex
	dir        string
	maxRecords int
	seq        int64
	log        *logrus.Entry
}

// NewStore opens (creating if needed) an archive store rooted at dir.
// maxRecords <= 0 uses DefaultMaxRecords.
func NewStore(dir string, maxRecords int) (*Store, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}

	s := &Store{
		dir:        dir,
		maxRecords: maxRecords,
		log:        logging.NewLogger("archive"),
	}

	// Resume the insertion counter past any existing records so the
	// prune tie-break stays monotonic across restarts.
	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Seq > s.seq {
			s.seq = r.Seq
		}
	}
	return s, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Archive writes a new record for a terminated session and prunes the store
// to the configured retention cap. Each id is archived at most once in
// practice (the registry enforces idempotence); the store itself simply
// overwrites on a repeated id.
func (s *Store) Archive(snapshot models.Session, logs string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	record := models.NewArchivedSession(snapshot, logs, s.seq)

	if err := config.SaveYAML(s.recordPath(record.ID), record); err != nil {
		s.log.WithError(err).WithField("session", record.ID).Error("Failed to persist archive record")
		return err
	}

	if _, err := s.pruneLocked(s.maxRecords); err != nil {
		s.log.WithError(err).Warn("Archive prune failed")
	}
	return nil
}

// List returns all archived records, most recently archived first.
func (s *Store) List() ([]*models.ArchivedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAll()
}

// Get returns one archived record by id, or nil if absent.
func (s *Store) Get(id string) (*models.ArchivedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(id)
	if !config.FileExists(path) {
		return nil, nil
	}
	var record models.ArchivedSession
	if err := config.LoadYAML(path, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes one archived record. Caller-initiated only.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(id)
	if !config.FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// Prune deletes all but the maxCount most recently archived records.
// Returns the number of records deleted.
func (s *Store) Prune(maxCount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(maxCount)
}

// pruneLocked implements Prune. Must be called while holding s.mu.
func (s *Store) pruneLocked(maxCount int) (int, error) {
	if maxCount < 0 {
		maxCount = 0
	}

	records, err := s.loadAll()
	if err != nil {
		return 0, err
	}
	if len(records) <= maxCount {
		return 0, nil
	}

	deleted := 0
	for _, r := range records[maxCount:] {
		if err := os.Remove(s.recordPath(r.ID)); err != nil {
			s.log.WithError(err).WithField("session", r.ID).Warn("Failed to delete archive record")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// loadAll reads every record in the store, most recent first.
// Ordering: archived_at descending, then insertion order (seq) descending.
func (s *Store) loadAll() ([]*models.ArchivedSession, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []*models.ArchivedSession
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		var record models.ArchivedSession
		if err := config.LoadYAML(filepath.Join(s.dir, e.Name()), &record); err != nil {
			s.log.WithError(err).WithField("file", e.Name()).Warn("Skipping unreadable archive record")
			continue
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ArchivedAt.Equal(records[j].ArchivedAt) {
			return records[i].ArchivedAt.After(records[j].ArchivedAt)
		}
		return records[i].Seq > records[j].Seq
	})
	return records, nil
}

// recordPath returns the file path for a session id.
func (s *Store) recordPath(id string) string {
	// Session ids come from the backend; flatten anything path-like.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(id)
	return filepath.Join(s.dir, safe+".yaml")
}

package models

import "time"

// ArchivedSession is the durable record of a terminated session.
// This corresponds to archive YAML files in ~/.kuroryuu/archive/.
// Records are written exactly once per terminal transition and never mutated.
type ArchivedSession struct {
	Version    int       `yaml:"version"`
	ID         string    `yaml:"id"`
	Seq        int64     `yaml:"seq"` // insertion order, prune tie-break after archived_at
	ArchivedAt time.Time `yaml:"archived_at"`
	Snapshot   Session   `yaml:"snapshot"`
	Logs       string    `yaml:"logs,omitempty"`
}

// NewArchivedSession creates an archive record for a terminated session.
func NewArchivedSession(snapshot Session, logs string, seq int64) *ArchivedSession {
	now := time.Now().UTC()
	if now.Before(snapshot.StartedAt) {
		now = snapshot.StartedAt
	}
	return &ArchivedSession{
		Version:    1,
		ID:         snapshot.ID,
		Seq:        seq,
		ArchivedAt: now,
		Snapshot:   snapshot,
		Logs:       logs,
	}
}

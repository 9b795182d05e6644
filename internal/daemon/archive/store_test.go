package archive

import (
	"testing"
	"time"

	"github.com/ahostbr/kuroryuu/internal/models"
)

func snapshot(id string) models.Session {
	return models.Session{
		ID:        id,
		Backend:   models.BackendSDK,
		Status:    models.StatusCompleted,
		StartedAt: time.Now().UTC().Add(-time.Minute),
	}
}

func TestArchiveAndGet(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Archive(snapshot("sess-1"), "some logs"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	record, err := store.Get("sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record == nil {
		t.Fatal("expected record, got nil")
	}
	if record.ID != "sess-1" || record.Logs != "some logs" {
		t.Errorf("unexpected record: id=%s logs=%q", record.ID, record.Logs)
	}
	if record.Snapshot.Status != models.StatusCompleted {
		t.Errorf("snapshot status not preserved: %s", record.Snapshot.Status)
	}
	if record.ArchivedAt.Before(record.Snapshot.StartedAt) {
		t.Error("archived_at must not precede started_at")
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	record, err := store.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for missing id, got %v", record)
	}
}

func TestArchivedAtClampedToStartedAt(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	// Clock skew between hosts can put the start time in our future.
	s := snapshot("skewed")
	s.StartedAt = time.Now().UTC().Add(time.Hour)
	if err := store.Archive(s, ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	record, err := store.Get("skewed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.ArchivedAt.Before(record.Snapshot.StartedAt) {
		t.Errorf("archived_at %v precedes started_at %v", record.ArchivedAt, record.Snapshot.StartedAt)
	}
}

func TestListMostRecentFirst(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Archive(snapshot(id), ""); err != nil {
			t.Fatalf("Archive %s: %v", id, err)
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	// Identical wall-clock times fall back to insertion order.
	want := []string{"third", "second", "first"}
	for i, id := range want {
		if records[i].ID != id {
			t.Errorf("records[%d] = %s, want %s", i, records[i].ID, id)
		}
	}
}

func TestArchiveOverwritesByID(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Archive(snapshot("dup"), "old"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := store.Archive(snapshot("dup"), "new"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single record for a repeated id, got %d", len(records))
	}
	if records[0].Logs != "new" {
		t.Errorf("expected last write to win, got logs %q", records[0].Logs)
	}
}

func TestPruneKeepsMostRecent(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := store.Archive(snapshot(id), ""); err != nil {
			t.Fatalf("Archive %s: %v", id, err)
		}
	}

	deleted, err := store.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(records))
	}
	if records[0].ID != "e" || records[1].ID != "d" {
		t.Errorf("expected the most recent records to survive, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestPruneNoopUnderCap(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Archive(snapshot("only"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	deleted, err := store.Prune(10)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected no deletions under the cap, got %d", deleted)
	}
}

func TestArchiveEnforcesRetentionCap(t *testing.T) {
	store, err := NewStore(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := store.Archive(snapshot(id), ""); err != nil {
			t.Fatalf("Archive %s: %v", id, err)
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected the cap to hold at 2, got %d", len(records))
	}
	if records[0].ID != "d" || records[1].ID != "c" {
		t.Errorf("expected d, c to survive, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestDelete(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Archive(snapshot("gone"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	record, err := store.Get("gone")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record != nil {
		t.Error("record should be gone after delete")
	}

	// Deleting a missing id is not an error.
	if err := store.Delete("never-existed"); err != nil {
		t.Errorf("Delete of missing id: %v", err)
	}
}

func TestSeqResumesAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Archive(snapshot("a"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := store.Archive(snapshot("b"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	reopened, err := NewStore(dir, 0)
	if err != nil {
		t.Fatalf("NewStore (reopen): %v", err)
	}
	if err := reopened.Archive(snapshot("c"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	record, err := reopened.Get("c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Seq != 3 {
		t.Errorf("expected seq to resume past existing records, got %d", record.Seq)
	}
}

func TestPathUnsafeIDsAreFlattened(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Archive(snapshot("../escape/attempt"), ""); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	record, err := store.Get("../escape/attempt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record == nil {
		t.Fatal("expected record for path-like id")
	}
}

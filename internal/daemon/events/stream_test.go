package events

import (
	"testing"
	"time"

	"github.com/ahostbr/kuroryuu/internal/models"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func hookEvent(id int64, sessionID string, typ models.EventType, tool string, at time.Time) models.HookEvent {
	return models.HookEvent{
		ID:               id,
		SourceApp:        "agent",
		RuntimeSessionID: sessionID,
		EventType:        typ,
		ToolName:         tool,
		Timestamp:        at,
	}
}

func TestIngestEvictsByCount(t *testing.T) {
	s := NewStream(3, 0)
	for i := int64(1); i <= 5; i++ {
		s.Ingest(hookEvent(i, "rt-1", models.EventPreToolUse, "Bash", base.Add(time.Duration(i)*time.Second)))
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 buffered events, got %d", s.Len())
	}
	got := s.Query(Filter{})
	for i, want := range []int64{3, 4, 5} {
		if got[i].ID != want {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestIngestEvictsByAge(t *testing.T) {
	s := NewStream(0, 10*time.Minute)
	s.Ingest(hookEvent(1, "rt-1", models.EventSessionStart, "", base))
	s.Ingest(hookEvent(2, "rt-1", models.EventPreToolUse, "Read", base.Add(5*time.Minute)))
	s.Ingest(hookEvent(3, "rt-1", models.EventPostToolUse, "Read", base.Add(20*time.Minute)))

	got := s.Query(Filter{})
	if len(got) != 2 {
		t.Fatalf("expected the oldest event evicted, got %d events", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("unexpected survivors: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestPauseDoesNotStopIngestion(t *testing.T) {
	s := NewStream(0, 0)
	s.SetPaused(true)
	if !s.IsPaused() {
		t.Fatal("expected paused")
	}

	s.Ingest(hookEvent(1, "rt-1", models.EventNotification, "", base))
	if s.Len() != 1 {
		t.Error("pause must not drop incoming events")
	}

	s.SetPaused(false)
	if s.IsPaused() {
		t.Error("expected unpaused")
	}
}

func TestClear(t *testing.T) {
	s := NewStream(0, 0)
	s.Ingest(hookEvent(1, "rt-1", models.EventStop, "", base))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty buffer after Clear, got %d", s.Len())
	}
}

func TestQueryFiltersAreConjunctive(t *testing.T) {
	s := NewStream(0, 0)
	s.Ingest(hookEvent(1, "rt-1", models.EventPreToolUse, "Bash", base))
	s.Ingest(hookEvent(2, "rt-1", models.EventPostToolUse, "Bash", base.Add(time.Second)))
	s.Ingest(hookEvent(3, "rt-2", models.EventPreToolUse, "Bash", base.Add(2*time.Second)))
	s.Ingest(hookEvent(4, "rt-1", models.EventPreToolUse, "Read", base.Add(3*time.Second)))

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no filter", Filter{}, []int64{1, 2, 3, 4}},
		{"by session", Filter{SessionID: "rt-2"}, []int64{3}},
		{"by type", Filter{EventType: models.EventPreToolUse}, []int64{1, 3, 4}},
		{"by tool substring", Filter{ToolName: "Ba"}, []int64{1, 2, 3}},
		{"session and type", Filter{SessionID: "rt-1", EventType: models.EventPreToolUse}, []int64{1, 4}},
		{"all fields", Filter{SourceApp: "agent", SessionID: "rt-1", EventType: models.EventPreToolUse, ToolName: "Read"}, []int64{4}},
		{"no match", Filter{SourceApp: "other"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Query(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSearchAsRegex(t *testing.T) {
	s := NewStream(0, 0)
	s.Ingest(hookEvent(1, "rt-1", models.EventPreToolUse, "Bash", base))
	s.Ingest(hookEvent(2, "rt-1", models.EventNotification, "", base.Add(time.Second)))

	got := s.Query(Filter{Search: "Pre.*Use"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("regex search failed: %v", got)
	}
}

func TestSearchInvalidRegexFallsBackToSubstring(t *testing.T) {
	s := NewStream(0, 0)
	ev := hookEvent(1, "rt-1", models.EventPreToolUse, "Bash", base)
	ev.Payload = map[string]any{"command": "echo (hello"}
	s.Ingest(ev)
	s.Ingest(hookEvent(2, "rt-1", models.EventNotification, "", base.Add(time.Second)))

	// "(hello" does not compile as a regex; it must degrade to a
	// case-insensitive substring match instead of erroring out.
	got := s.Query(Filter{Search: "(HELLO"})
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("substring fallback failed: %v", got)
	}
}

func TestSearchCoversPayload(t *testing.T) {
	s := NewStream(0, 0)
	ev := hookEvent(1, "rt-1", models.EventPostToolUse, "Write", base)
	ev.Payload = map[string]any{"filePath": "/tmp/report.txt"}
	s.Ingest(ev)

	got := s.Query(Filter{Search: "report"})
	if len(got) != 1 {
		t.Errorf("search should match against payload JSON, got %v", got)
	}
}

func TestToolUsageStats(t *testing.T) {
	s := NewStream(0, 0)
	for i, tool := range []string{"Bash", "Read", "Bash", "Edit", "Bash", "Read", ""} {
		s.Ingest(hookEvent(int64(i), "rt-1", models.EventPreToolUse, tool, base.Add(time.Duration(i)*time.Second)))
	}

	stats := s.ToolUsageStats(Filter{}, false)
	want := []StatEntry{{"Bash", 3}, {"Read", 2}, {"Edit", 1}}
	if len(stats) != len(want) {
		t.Fatalf("got %d entries, want %d", len(stats), len(want))
	}
	for i, w := range want {
		if stats[i] != w {
			t.Errorf("stats[%d] = %v, want %v", i, stats[i], w)
		}
	}

	alpha := s.ToolUsageStats(Filter{}, true)
	wantAlpha := []StatEntry{{"Bash", 3}, {"Edit", 1}, {"Read", 2}}
	for i, w := range wantAlpha {
		if alpha[i] != w {
			t.Errorf("alpha[%d] = %v, want %v", i, alpha[i], w)
		}
	}
}

func TestEventTypeStatsTieBreaksAlphabetically(t *testing.T) {
	s := NewStream(0, 0)
	s.Ingest(hookEvent(1, "rt-1", models.EventStop, "", base))
	s.Ingest(hookEvent(2, "rt-1", models.EventNotification, "", base.Add(time.Second)))

	stats := s.EventTypeStats(Filter{}, false)
	if len(stats) != 2 {
		t.Fatalf("got %d entries, want 2", len(stats))
	}
	if stats[0].Name != "Notification" || stats[1].Name != "Stop" {
		t.Errorf("equal counts should sort alphabetically: %v", stats)
	}
}

func TestBucketWidthSeconds(t *testing.T) {
	tests := []struct {
		rangeSeconds int
		want         int
	}{
		{60, 1},
		{600, 1},
		{601, 10},
		{3600, 10},
		{3601, 60},
		{21600, 60},
		{21601, 300},
		{86400, 300},
	}
	for _, tt := range tests {
		if got := BucketWidthSeconds(tt.rangeSeconds); got != tt.want {
			t.Errorf("BucketWidthSeconds(%d) = %d, want %d", tt.rangeSeconds, got, tt.want)
		}
	}
}

func TestBucketedCountsSumMatchesWindow(t *testing.T) {
	s := NewStream(0, 0)
	// 9 events spread over 90 seconds, plus one far outside the window.
	for i := 0; i < 9; i++ {
		s.Ingest(hookEvent(int64(i), "rt-1", models.EventPreToolUse, "Bash", base.Add(time.Duration(i*10)*time.Second)))
	}
	s.Ingest(hookEvent(99, "rt-1", models.EventPreToolUse, "Bash", base.Add(-time.Hour)))

	h := s.BucketedCounts(Filter{}, 120)
	if h.BucketSeconds != 1 {
		t.Errorf("BucketSeconds = %d, want 1", h.BucketSeconds)
	}
	if !h.End.Equal(base.Add(80 * time.Second)) {
		t.Errorf("End = %v, want max event timestamp", h.End)
	}
	if len(h.Counts) != 120 {
		t.Errorf("got %d buckets, want 120", len(h.Counts))
	}

	sum := 0
	for _, c := range h.Counts {
		sum += c
	}
	if sum != h.Total {
		t.Errorf("sum of counts %d != Total %d", sum, h.Total)
	}
	if h.Total != 9 {
		t.Errorf("Total = %d, want 9 events inside the window", h.Total)
	}
}

func TestBucketedCountsAnchorsToEventTime(t *testing.T) {
	s := NewStream(0, 0)
	// All events hours in the past; the axis must follow them, not the clock.
	old := time.Now().UTC().Add(-6 * time.Hour)
	s.Ingest(hookEvent(1, "rt-1", models.EventStop, "", old))
	s.Ingest(hookEvent(2, "rt-1", models.EventStop, "", old.Add(time.Minute)))

	h := s.BucketedCounts(Filter{}, 600)
	if !h.End.Equal(old.Add(time.Minute)) {
		t.Errorf("End = %v, want %v", h.End, old.Add(time.Minute))
	}
	if h.Total != 2 {
		t.Errorf("Total = %d, want 2", h.Total)
	}
}

func TestBucketedCountsEmpty(t *testing.T) {
	s := NewStream(0, 0)
	h := s.BucketedCounts(Filter{}, 600)
	if h.Total != 0 || len(h.Counts) != 0 {
		t.Errorf("expected empty histogram, got %+v", h)
	}
}

func TestBucketedCountsRespectsFilter(t *testing.T) {
	s := NewStream(0, 0)
	s.Ingest(hookEvent(1, "rt-1", models.EventPreToolUse, "Bash", base))
	s.Ingest(hookEvent(2, "rt-2", models.EventPreToolUse, "Bash", base.Add(time.Second)))

	h := s.BucketedCounts(Filter{SessionID: "rt-1"}, 60)
	if h.Total != 1 {
		t.Errorf("Total = %d, want 1", h.Total)
	}
	if !h.End.Equal(base) {
		t.Errorf("End should anchor to the filtered set, got %v", h.End)
	}
}

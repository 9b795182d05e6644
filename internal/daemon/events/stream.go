// Package events maintains the hook event buffer and its derived views.
package events

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahostbr/kuroryuu/internal/models"
)

// Buffer defaults.
const (
	DefaultMaxBuffered = 5000
)

// Stream is the recency-bounded, filterable buffer of hook events.
//
// Ingestion order is the only ordering guarantee: event timestamps are
// feed-assigned and not necessarily monotonic across sources, so anything
// chronological (bucketing, correlation) compares Timestamp explicitly.
type Stream struct {
	mu          sync.RWMutex
	buf         []models.HookEvent
	maxBuffered int
	maxAge      time.Duration // 0 = no age eviction
	paused      bool
}

// NewStream creates an event stream with the given retention bounds.
// maxBuffered <= 0 uses DefaultMaxBuffered; maxAge 0 disables age eviction.
func NewStream(maxBuffered int, maxAge time.Duration) *Stream {
	if maxBuffered <= 0 {
		maxBuffered = DefaultMaxBuffered
	}
	return &Stream{
		buf:         make([]models.HookEvent, 0, 256),
		maxBuffered: maxBuffered,
		maxAge:      maxAge,
	}
}

// Ingest appends an event to the buffer, evicting the oldest entries beyond
// the retention bounds. Ingestion continues while the stream is paused;
// pause is a presentation-layer suspension, not backpressure.
func (s *Stream) Ingest(ev models.HookEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, ev)

	if excess := len(s.buf) - s.maxBuffered; excess > 0 {
		s.buf = append(s.buf[:0], s.buf[excess:]...)
	}

	if s.maxAge > 0 {
		cutoff := ev.Timestamp.Add(-s.maxAge)
		firstKept := 0
		for firstKept < len(s.buf) && s.buf[firstKept].Timestamp.Before(cutoff) {
			firstKept++
		}
		if firstKept > 0 {
			s.buf = append(s.buf[:0], s.buf[firstKept:]...)
		}
	}
}

// Len returns the number of buffered events.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

// SetPaused sets the presentation-pause flag. Consumers reading the live
// view should stop auto-refreshing while paused.
func (s *Stream) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// IsPaused reports whether the live view is paused.
func (s *Stream) IsPaused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// Clear discards all buffered events.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
}

// Filter selects a subset of buffered events. All set fields are ANDed;
// a zero field is a wildcard.
type Filter struct {
	SourceApp string           // exact
	SessionID string           // exact runtime session id
	EventType models.EventType // exact
	ToolName  string           // substring
	Search    string           // regex, falling back to substring
}

// Query returns buffered events matching the filter, in ingestion order.
func (s *Stream) Query(f Filter) []models.HookEvent {
	match := f.matcher()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HookEvent, 0, len(s.buf))
	for i := range s.buf {
		if match(&s.buf[i]) {
			out = append(out, s.buf[i])
		}
	}
	return out
}

// matcher compiles the filter into a single predicate. The search term is
// tried as a regular expression; if it fails to compile it degrades to a
// case-insensitive substring match over the same text. Never errors.
func (f Filter) matcher() func(*models.HookEvent) bool {
	var re *regexp.Regexp
	var plain string
	if f.Search != "" {
		compiled, err := regexp.Compile(f.Search)
		if err == nil {
			re = compiled
		} else {
			plain = strings.ToLower(f.Search)
		}
	}

	return func(ev *models.HookEvent) bool {
		if f.SourceApp != "" && ev.SourceApp != f.SourceApp {
			return false
		}
		if f.SessionID != "" && ev.RuntimeSessionID != f.SessionID {
			return false
		}
		if f.EventType != "" && ev.EventType != f.EventType {
			return false
		}
		if f.ToolName != "" && !strings.Contains(ev.ToolName, f.ToolName) {
			return false
		}
		if f.Search != "" {
			text := string(ev.EventType) + " " + ev.ToolName + " " + ev.PayloadJSON()
			if re != nil {
				if !re.MatchString(text) {
					return false
				}
			} else if !strings.Contains(strings.ToLower(text), plain) {
				return false
			}
		}
		return true
	}
}

// StatEntry is one row of a frequency table.
type StatEntry struct {
	Name  string
	Count int
}

// ToolUsageStats returns tool-name frequencies over the filtered event set.
// Sorted descending by count (ties alphabetical), or fully alphabetical
// when alphabetical is true. Events without a tool name are skipped.
func (s *Stream) ToolUsageStats(f Filter, alphabetical bool) []StatEntry {
	counts := make(map[string]int)
	for _, ev := range s.Query(f) {
		if ev.ToolName == "" {
			continue
		}
		counts[ev.ToolName]++
	}
	return sortedStats(counts, alphabetical)
}

// EventTypeStats returns event-type frequencies over the filtered event set.
func (s *Stream) EventTypeStats(f Filter, alphabetical bool) []StatEntry {
	counts := make(map[string]int)
	for _, ev := range s.Query(f) {
		counts[string(ev.EventType)]++
	}
	return sortedStats(counts, alphabetical)
}

func sortedStats(counts map[string]int, alphabetical bool) []StatEntry {
	entries := make([]StatEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, StatEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if alphabetical || entries[i].Count == entries[j].Count {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// Histogram is a time-bucketed count of events ending at End.
// Counts[0] is the oldest bucket; the sum of Counts equals the number of
// filtered events with a timestamp inside [End - range, End].
type Histogram struct {
	BucketSeconds int
	End           time.Time
	Counts        []int
	Total         int
}

// BucketWidthSeconds chooses an adaptive bucket width so the number of
// bars stays bounded for any requested range.
func BucketWidthSeconds(rangeSeconds int) int {
	switch {
	case rangeSeconds <= 600:
		return 1
	case rangeSeconds <= 3600:
		return 10
	case rangeSeconds <= 21600:
		return 60
	default:
		return 300
	}
}

// BucketedCounts computes a histogram over the filtered event set.
// The time axis end is anchored to the maximum event timestamp actually
// present in the filtered set, not wall-clock now, so charts remain
// meaningful when replaying historical data.
func (s *Stream) BucketedCounts(f Filter, rangeSeconds int) Histogram {
	width := BucketWidthSeconds(rangeSeconds)
	h := Histogram{BucketSeconds: width}
	if rangeSeconds <= 0 {
		return h
	}

	filtered := s.Query(f)
	if len(filtered) == 0 {
		return h
	}

	end := filtered[0].Timestamp
	for _, ev := range filtered[1:] {
		if ev.Timestamp.After(end) {
			end = ev.Timestamp
		}
	}
	h.End = end

	numBuckets := (rangeSeconds + width - 1) / width
	h.Counts = make([]int, numBuckets)

	start := end.Add(-time.Duration(rangeSeconds) * time.Second)
	for _, ev := range filtered {
		if ev.Timestamp.Before(start) || ev.Timestamp.After(end) {
			continue
		}
		// Buckets are aligned to the axis end; the exact window start
		// lands in the oldest bucket.
		behind := int(end.Sub(ev.Timestamp) / time.Second)
		idx := numBuckets - 1 - behind/width
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
		h.Total++
	}
	return h
}

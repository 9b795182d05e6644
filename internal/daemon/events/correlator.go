package events

import (
	"github.com/ahostbr/kuroryuu/internal/models"
)

// Correlator resolves a tracked session's stable id to the runtime session
// id currently representing it.
//
// The runtime assigns its own session id, and that id can change mid-session
// (context compaction, process resume). Resolution is therefore a scan over
// the live buffer rather than a cached pointer: the correlation-carrying
// event with the maximum timestamp wins, so a newer event with a fresh
// runtime id re-resolves the session with no invalidation logic.
type Correlator struct {
	stream *Stream
}

// NewCorrelator creates a correlator over the given stream.
func NewCorrelator(stream *Stream) *Correlator {
	return &Correlator{stream: stream}
}

// Resolve returns the runtime session id for a tracked session id, or
// ok=false if no event carrying that correlation id has been observed yet.
// Callers should treat ok=false as "waiting for events", not an error.
//
// Events with equal timestamps resolve to the later-ingested one. If two
// tracked sessions ever share a correlation id upstream, the newest event
// wins regardless of ownership and events may be misattributed.
func (c *Correlator) Resolve(trackedID string) (string, bool) {
	if trackedID == "" {
		return "", false
	}

	c.stream.mu.RLock()
	defer c.stream.mu.RUnlock()

	var found bool
	var best models.HookEvent
	for i := range c.stream.buf {
		ev := &c.stream.buf[i]
		if ev.CorrelationID() != trackedID {
			continue
		}
		if !found || !ev.Timestamp.Before(best.Timestamp) {
			best = *ev
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.RuntimeSessionID, true
}

// EventsFor returns the buffered events belonging to a tracked session:
// those carrying its currently resolved runtime session id. Returns nil
// when the session has not produced any correlated events yet.
func (c *Correlator) EventsFor(trackedID string) []models.HookEvent {
	runtimeID, ok := c.Resolve(trackedID)
	if !ok {
		return nil
	}
	return c.stream.Query(Filter{SessionID: runtimeID})
}

package graph

import (
	"sync"
	"time"

	"github.com/ahostbr/kuroryuu/internal/models"
)

// DefaultDebounce coalesces a burst of session-list updates into one
// layout pass.
const DefaultDebounce = 200 * time.Millisecond

// Builder recomputes the layout on a debounce. Any new trigger cancels
// and reschedules the pending rebuild (single-slot timer, reset not
// accumulated), so N rapid updates produce one layout pass.
type Builder struct {
	mu        sync.Mutex
	delay     time.Duration
	timer     *time.Timer
	pending   []models.Session
	graph     *Graph
	onRebuild func(*Graph)
	closed    bool
}

// NewBuilder creates a layout builder. delay <= 0 uses DefaultDebounce.
func NewBuilder(delay time.Duration) *Builder {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Builder{
		delay: delay,
		graph: BuildLayout(nil),
	}
}

// SetOnRebuild sets a callback invoked with each freshly built graph.
func (b *Builder) SetOnRebuild(fn func(*Graph)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onRebuild = fn
}

// Notify schedules a rebuild for the given session set, resetting any
// pending debounce timer.
func (b *Builder) Notify(sessions []models.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.pending = sessions
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.rebuild)
}

// Graph returns the most recently built layout. Never nil.
func (b *Builder) Graph() *Graph {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graph
}

// Close cancels any pending rebuild. Further Notify calls are ignored.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// rebuild runs on the debounce timer goroutine.
func (b *Builder) rebuild() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	sessions := b.pending
	g := BuildLayout(sessions)
	b.graph = g
	fn := b.onRebuild
	b.mu.Unlock()

	if fn != nil {
		fn(g)
	}
}

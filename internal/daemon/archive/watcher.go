package archive

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/ahostbr/kuroryuu/internal/logging"
)

// Watcher watches the archive directory for external changes so that
// list views can refresh when records are written or deleted by another
// process (or by the prune policy of a second daemon instance).
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	changeCh   chan struct{}
	done       chan struct{}
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
	log        *logrus.Entry
}

// NewWatcher creates a watcher for the given archive directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		changeCh:  make(chan struct{}, 1),
		done:      make(chan struct{}),
		debounce:  make(map[string]*time.Timer),
		log:       logging.NewLogger("archive-watcher"),
	}
	go w.processEvents()
	return w, nil
}

// Changes returns a channel that receives a signal after archive records
// change on disk. Signals are coalesced; a burst of writes produces one.
// The channel is never closed; consumers must also select on Done so that
// Stop unblocks them.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changeCh
}

// Done returns a channel that is closed when the watcher stops.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Stop stops the watcher. Pending debounce timers are cancelled.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()

	w.debounceMu.Lock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
	w.debounceMu.Unlock()
}

// processEvents consumes fsnotify events until the watcher stops.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("Watcher error")
		}
	}
}

// handleEvent filters and debounces a single file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename matters: atomic writes (write tmp → rename to target) produce
	// Rename events on the target file.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	if !strings.HasSuffix(filepath.Base(event.Name), ".yaml") {
		return
	}

	w.debounceEvent(event.Name, w.notify)
}

// debounceEvent coalesces rapid events for the same path. The timer is
// reset on each new event, not accumulated.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(100*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

// notify signals a change without blocking; one pending signal is enough.
func (w *Watcher) notify() {
	select {
	case <-w.done:
	case w.changeCh <- struct{}{}:
	default:
	}
}

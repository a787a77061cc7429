package file

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/brightvale-health/remitdesk/internal/core/ports/driven"
	"github.com/brightvale-health/remitdesk/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.DocumentWatcher = (*Watcher)(nil)

// Watcher flags external modification of the open document file. The parent
// directory is watched rather than the file itself, so replace-by-rename
// writes from other processes are seen too.
//
// Filesystem events arrive asynchronously, so an event alone cannot tell the
// session's own write apart from an external one. The watcher therefore keeps
// a content baseline, recorded at Watch and Reset; a flagged event only counts
// as an external change while the file differs from that baseline. Reset after
// the session's own write re-baselines, and any in-flight events for that
// write are discounted.
type Watcher struct {
	mu         sync.Mutex
	fw         *fsnotify.Watcher
	path       string
	changed    bool
	baseline   [sha256.Size]byte
	baselineOK bool
	done       chan struct{}
}

// NewWatcher creates an idle watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fw: fw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

// Watch starts watching the given document path and records its current
// content as the baseline.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.path = abs
	w.changed = false
	w.baseline, w.baselineOK = snapshot(abs)
	w.mu.Unlock()
	return w.fw.Add(filepath.Dir(abs))
}

// Changed reports whether the watched file was modified by someone else since
// Watch or the last Reset. An event whose resulting content still matches the
// baseline was the session's own write and clears the flag instead.
func (w *Watcher) Changed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.changed {
		return false
	}
	sum, ok := snapshot(w.path)
	if ok && w.baselineOK && sum == w.baseline {
		w.changed = false
		return false
	}
	return true
}

// Reset records the file's current content as the new baseline, typically
// after the session itself wrote or reloaded it.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.changed = false
	w.baseline, w.baselineOK = snapshot(w.path)
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			if w.path != "" && ev.Name == w.path {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					w.changed = true
				}
			}
			w.mu.Unlock()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

func snapshot(path string) ([sha256.Size]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}

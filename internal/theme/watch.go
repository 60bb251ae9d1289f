package theme

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces editors that write a file several times
const reloadDelay = 150 * time.Millisecond

// Watcher reloads a Theme when terminal configs change
type Watcher struct {
	theme    *Theme
	fsw      *fsnotify.Watcher
	onChange func()
	done     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching the config directories of t. onChange, if set, runs
// after each reload.
func Watch(t *Theme, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if t.home != "" {
		for _, dir := range watchDirs(t.home) {
			if _, err := os.Stat(dir); err == nil {
				_ = fsw.Add(dir)
			}
		}
	}

	w := &Watcher{
		theme:    t,
		fsw:      fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Dirs returns the watched directories
func (w *Watcher) Dirs() []string {
	return w.fsw.WatchList()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDelay, func() {
		w.theme.Reload()
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Stop ends watching
func (w *Watcher) Stop() {
	close(w.done)
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

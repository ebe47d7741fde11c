// Package watcher notifies hosts when a review-platform export directory
// changes, so charts can reload without restarting. It rides fsnotify where
// the platform supports it and falls back to stat polling where it doesn't,
// debouncing either way because exports are written in bursts.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrDirRemoved     = errors.New("watched directory was removed")
)

// snapshotExts are the export extensions worth reacting to.
var snapshotExts = map[string]bool{
	".json":   true,
	".db":     true,
	".sqlite": true,
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce quiet period.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked when an export changes.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even when fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors an export directory for snapshot changes.
type Watcher struct {
	dir              string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	lastState map[string]time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// New creates a watcher for the given export directory.
func New(dir string, opts ...Option) (*Watcher, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:              absDir,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. The directory must exist.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if _, err := os.Stat(w.dir); err != nil {
		return err
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.lastState, _ = w.snapshotState()
	w.polling = w.forcePoll

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.polling = true
		} else if err := fsw.Add(w.dir); err != nil {
			fsw.Close()
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify()
		}
	}
	if w.polling {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// Stop stops watching. The change channel stays open; a stopped watcher
// simply never signals it again.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the watcher fell back to polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that signals when an export changes. An
// alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// snapshotState stats every export file in the directory.
func (w *Watcher) snapshotState() (map[string]time.Time, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	state := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.IsDir() || !snapshotExts[filepath.Ext(entry.Name())] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		state[entry.Name()] = info.ModTime()
	}
	return state, nil
}

func (w *Watcher) watchFsnotify() {
	w.mu.RLock()
	if w.fsWatcher == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors
	w.mu.RUnlock()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !snapshotExts[filepath.Ext(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			state, err := w.snapshotState()
			if err != nil {
				if os.IsNotExist(err) {
					w.onError(ErrDirRemoved)
				} else {
					w.onError(err)
				}
				continue
			}

			w.mu.Lock()
			changed := len(state) != len(w.lastState)
			if !changed {
				for name, mtime := range state {
					if prev, ok := w.lastState[name]; !ok || mtime.After(prev) {
						changed = true
						break
					}
				}
			}
			if changed {
				w.lastState = state
			}
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// notifyChange invokes the callback and signals the change channel without
// blocking.
func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange()
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}

// Package watcher reports changes to todo files for live reload.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/todoq/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets the callback invoked with the files changed since the
// last notification.
func WithOnChange(fn func(paths []string)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithExtraPaths watches more files, such as done.txt or other lists.
func WithExtraPaths(paths ...string) WatcherOption {
	return func(w *Watcher) {
		w.extra = append(w.extra, paths...)
	}
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher monitors todo files using fsnotify with polling fallback.
type Watcher struct {
	paths            []string
	extra            []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func([]string)
	onError          func(error)
	forcePoll        bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	state       map[string]fileState
	pending     map[string]bool

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for path and any WithExtraPaths files.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func([]string) {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
		pending:          make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range append([]string{path}, w.extra...) {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(w.paths, abs) {
			w.paths = append(w.paths, abs)
		}
	}
	if len(w.paths) == 0 {
		return nil, fmt.Errorf("no file to watch")
	}

	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.useFallback = false
	w.fsType = detectFilesystemTypeFunc(w.paths[0])

	forcePoll := w.forcePoll || envBool("TQ_FORCE_POLLING") || envBool("TQ_FORCE_POLL")
	if forcePoll || isRemoteFilesystem(w.fsType) {
		w.useFallback = true
	}

	w.state = make(map[string]fileState, len(w.paths))
	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsPermission(err) {
				w.cancel()
				return fmt.Errorf("%w: %s", ErrPermission, p)
			}
			// Not created yet.
			w.state[p] = fileState{}
			continue
		}
		w.state[p] = fileState{mtime: info.ModTime(), size: info.Size()}
	}

	if !w.useFallback {
		if fsw, err := w.newFsnotify(); err == nil {
			w.fsWatcher = fsw
			go w.watchFsnotify(fsw)
		} else {
			debug.Log("watcher: fsnotify unavailable, polling: %v", err)
			w.useFallback = true
		}
	}
	if w.useFallback {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// newFsnotify watches the directory of every file, which survives atomic
// rename-over saves.
func (w *Watcher) newFsnotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]bool)
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return fsw, nil
}

// Stop stops watching. Changed is left open so a receiver blocked on it
// does not see a spurious change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when a watched file changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the primary watched file.
func (w *Watcher) Path() string {
	return w.paths[0]
}

// Paths returns every watched file.
func (w *Watcher) Paths() []string {
	return slices.Clone(w.paths)
}

// FilesystemType returns the classification of the primary file's filesystem.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) watched(path string) bool {
	return slices.Contains(w.paths, path)
}

func (w *Watcher) watchFsnotify(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.watched(name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(fmt.Errorf("%w: %s", ErrFileRemoved, name))
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.markChanged(name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			for _, p := range w.paths {
				w.pollOnce(p)
			}
		}
	}
}

func (w *Watcher) pollOnce(path string) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			w.mu.Lock()
			prev := w.state[path]
			w.state[path] = fileState{}
			w.mu.Unlock()
			// Only report once, and only if the file existed.
			if !prev.mtime.IsZero() {
				w.onError(fmt.Errorf("%w: %s", ErrFileRemoved, path))
			}
		case os.IsPermission(err):
			w.onError(fmt.Errorf("%w: %s", ErrPermission, path))
		default:
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	prev := w.state[path]
	changed := info.ModTime().After(prev.mtime) || info.Size() != prev.size
	if changed {
		w.state[path] = fileState{mtime: info.ModTime(), size: info.Size()}
	}
	w.mu.Unlock()

	if changed {
		w.markChanged(path)
	}
}

func (w *Watcher) markChanged(path string) {
	w.mu.Lock()
	w.pending[path] = true
	w.mu.Unlock()
	w.debouncer.Trigger(w.notifyChange)
}

// notifyChange invokes the onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	w.mu.Lock()
	started := w.started
	changed := make([]string, 0, len(w.pending))
	for _, p := range w.paths {
		if w.pending[p] {
			changed = append(changed, p)
		}
	}
	clear(w.pending)
	w.mu.Unlock()

	if !started || len(changed) == 0 {
		return
	}

	w.onChange(changed)

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}

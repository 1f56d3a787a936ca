package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"launcher/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait after the last change
	// before OnChange is called.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultPollInterval is used when fsnotify is not available.
	DefaultPollInterval = 2 * time.Second
)

// Config holds configuration for the file watcher.
type Config struct {
	// Files are the files to watch. Their directories are watched so that
	// files replaced by rename are still noticed.
	Files []string

	// Debounce collapses bursts of changes into one OnChange call.
	Debounce time.Duration

	// PollInterval is the fallback polling interval.
	PollInterval time.Duration

	// OnChange is called after a change once the debounce interval passed.
	OnChange func()
}

// Watcher monitors configuration files and reports changes.
type Watcher struct {
	mu sync.Mutex

	config Config

	// files maps the cleaned absolute path of every watched file.
	files map[string]struct{}

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTimes map[string]time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// New creates a watcher for config.Files.
func New(config Config) (*Watcher, error) {
	if len(config.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}

	files := make(map[string]struct{}, len(config.Files))
	for _, f := range config.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		files[abs] = struct{}{}
	}

	return &Watcher{
		config:       config,
		files:        files,
		lastModTimes: make(map[string]time.Time),
	}, nil
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Watcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}

	for _, dir := range w.dirs() {
		if err := fsWatcher.Add(dir); err != nil {
			logging.Warn("Watcher", "Failed to watch directory %s, falling back to polling: %v", dir, err)
			fsWatcher.Close()
			go w.pollForChanges(w.stopCh)
			return nil
		}
	}

	w.fsWatcher = fsWatcher
	go w.processEvents(w.stopCh, fsWatcher.Events, fsWatcher.Errors)

	logging.Info("Watcher", "Watching %d file(s) for changes", len(w.files))
	return nil
}

func (w *Watcher) dirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	for f := range w.files {
		dir := filepath.Dir(f)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

func (w *Watcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Watcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.files[name]; !ok {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	logging.Debug("Watcher", "File changed: %s", event.Name)
	w.triggerDebounced()
}

func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("Watcher", "File changes detected via polling")
				w.triggerDebounced()
			}
		}
	}
}

// checkForChanges records the modification times of the watched files and
// reports whether any moved forward since the previous call.
func (w *Watcher) checkForChanges() bool {
	changed := false
	for file := range w.files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		modTime := info.ModTime()
		if last, exists := w.lastModTimes[file]; exists && modTime.After(last) {
			changed = true
		}
		w.lastModTimes[file] = modTime
	}
	return changed
}

// Stop stops the watcher and cancels a pending OnChange.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("Watcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("Watcher", "Stopped file watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

package keywords

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumescore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the custom taxonomy file when it changes
type Watcher struct {
	mu sync.Mutex

	file        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	service *Service
	logger  *errors.Logger

	// onReload is called after every reload attempt, mainly for tests
	onReload func(error)

	running bool
}

// NewWatcher creates a watcher that reloads file into service
func NewWatcher(file string, service *Service, debounceDelay time.Duration, logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	return &Watcher{
		file:          file,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		service:       service,
		logger:        logger,
	}
}

// Start begins watching the taxonomy file
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("taxonomy watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = watcher

	if stat, err := os.Stat(w.file); err == nil {
		w.lastModTime = stat.ModTime()
	}

	// The directory catches atomic writes done through rename
	dir := filepath.Dir(w.file)
	if err := w.fsWatcher.Add(dir); err != nil {
		_ = w.fsWatcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Keyword taxonomy watcher started",
			"file", w.file,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "File watcher error")
			}

		case <-w.reloadChan:
			if w.hasFileChanged() {
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.file) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) hasFileChanged() bool {
	stat, err := os.Stat(w.file)
	if err != nil {
		return false
	}
	if stat.ModTime().Equal(w.lastModTime) {
		return false
	}
	w.lastModTime = stat.ModTime()
	return true
}

// reload keeps the previous taxonomy when the new file is invalid
func (w *Watcher) reload() {
	err := w.service.LoadFile(w.file)
	if err != nil && w.logger != nil {
		w.logger.LogError(err, "Keyword taxonomy reload failed, keeping previous taxonomy", "file", w.file)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

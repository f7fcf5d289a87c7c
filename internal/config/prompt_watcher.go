package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"candidatelens/internal/errors"
)

// PromptWatcher watches prompt files and reloads the prompt store when they change
type PromptWatcher struct {
	mu sync.Mutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reload func() error
	logger *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for the prompt files referenced by cfg
func NewPromptWatcher(cfg *Config, debounceDelay time.Duration, logger *errors.Logger) *PromptWatcher {
	return newPromptWatcher(cfg.PromptFiles(), debounceDelay, cfg.ReloadPrompts, logger)
}

func newPromptWatcher(files []string, debounceDelay time.Duration, reload func() error, logger *errors.Logger) *PromptWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.Discard()
	}
	abs := make([]string, 0, len(files))
	for _, f := range files {
		if p, err := filepath.Abs(f); err == nil {
			f = p
		}
		if !slices.Contains(abs, f) {
			abs = append(abs, f)
		}
	}
	return &PromptWatcher{
		files:         abs,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		reload:        reload,
		logger:        logger,
	}
}

// Start begins watching. It is a no-op when no prompt files are configured.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher
	pw.updateModTimes()

	// Directories are watched so atomic replace-by-rename is seen.
	dirs := map[string]bool{}
	for _, f := range pw.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := pw.fsWatcher.Add(dir); err != nil {
			pw.logger.Warn("Failed to watch prompt directory", "directory", dir, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	pw.logger.Info("Prompt file watcher started", "files", pw.files, "debounce_delay", pw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		pw.logger.LogError(err, "Failed to close prompt file watcher")
		return err
	}
	pw.logger.Info("Prompt file watcher stopped")
	return nil
}

func (pw *PromptWatcher) updateModTimes() {
	for _, file := range pw.files {
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
	}
}

func (pw *PromptWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		return false
	}
	lastMod, exists := pw.lastModTime[file]
	if !exists || !stat.ModTime().Equal(lastMod) {
		pw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			pw.logger.LogError(err, "Prompt file watcher error")

		case <-pw.reloadChan:
			if !slices.ContainsFunc(pw.files, pw.hasFileChanged) {
				continue
			}
			if err := pw.reload(); err != nil {
				pw.logger.LogError(err, "Prompt reload failed, keeping previous prompts")
				continue
			}
			pw.logger.Info("Prompt files changed, prompts reloaded")

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := event.Name
	if p, err := filepath.Abs(name); err == nil {
		name = p
	}
	if !slices.Contains(pw.files, name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// Files returns the watched prompt files
func (pw *PromptWatcher) Files() []string {
	return slices.Clone(pw.files)
}

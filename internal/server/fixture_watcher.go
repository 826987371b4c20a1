package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"careertools/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// FixtureWatcher watches fixture files for changes and triggers reloads
type FixtureWatcher struct {
	mu sync.RWMutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

// NewFixtureWatcher creates a watcher for files. A zero debounceDelay means one second.
func NewFixtureWatcher(files []string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) *FixtureWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	if logger == nil {
		logger = errors.Discard()
	}

	return &FixtureWatcher{
		files:          slices.Clone(files),
		lastModTime:    make(map[string]time.Time),
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1),
		reloadCallback: reloadCallback,
		logger:         logger,
	}
}

// Start begins watching the fixture files
func (fw *FixtureWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("fixture watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	if err := fw.updateModTimes(); err != nil {
		if closeErr := fw.fsWatcher.Close(); closeErr != nil {
			fw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to get initial file modification times: %w", err)
	}

	fw.addDirectories()

	fw.running = true
	go fw.watchLoop()

	fw.logger.Info("Fixture watcher started",
		"files", fw.files,
		"debounce_delay", fw.debounceDelay)
	return nil
}

// Run starts the watcher and stops it when ctx is done
func (fw *FixtureWatcher) Run(ctx context.Context) error {
	if err := fw.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return fw.Stop()
}

// addDirectories watches the parent directories so atomic renames and new files are seen
func (fw *FixtureWatcher) addDirectories() {
	dirs := make([]string, 0, 1)
	for _, file := range fw.files {
		if dir := filepath.Dir(file); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := fw.fsWatcher.Add(dir); err != nil {
			fw.logger.Warn("Failed to watch fixture directory", "directory", dir, "error", err)
		}
	}
}

// Stop stops the watcher
func (fw *FixtureWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}

	close(fw.stopChan)

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.running = false

	if err := fw.fsWatcher.Close(); err != nil {
		fw.logger.LogError(err, "Failed to close file system watcher")
		return err
	}

	fw.logger.Info("Fixture watcher stopped")
	return nil
}

func (fw *FixtureWatcher) updateModTimes() error {
	for _, file := range fw.files {
		if stat, err := os.Stat(file); err == nil {
			fw.lastModTime[file] = stat.ModTime()
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat file %s: %w", file, err)
		}
	}
	return nil
}

// hasFileChanged reports a modification, creation or deletion since the last check
func (fw *FixtureWatcher) hasFileChanged(file string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	stat, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := fw.lastModTime[file]; exists {
				delete(fw.lastModTime, file)
				return true
			}
		}
		return false
	}

	lastMod, exists := fw.lastModTime[file]
	if !exists || stat.ModTime().After(lastMod) {
		fw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (fw *FixtureWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if fw.shouldProcessEvent(event) {
				fw.scheduleReload()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			fw.logger.LogError(err, "File watcher error")

		case <-fw.reloadChan:
			if slices.ContainsFunc(fw.files, fw.hasFileChanged) {
				fw.logger.Info("Fixture files changed, triggering reload")
				fw.reloadCallback()
			}

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FixtureWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	watched := slices.ContainsFunc(fw.files, func(file string) bool {
		return event.Name == file || filepath.Base(event.Name) == filepath.Base(file)
	})
	if !watched {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleReload debounces bursts of events from editors writing in several steps
func (fw *FixtureWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}

	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (fw *FixtureWatcher) IsRunning() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

// GetWatchedFiles returns the list of files being watched
func (fw *FixtureWatcher) GetWatchedFiles() []string {
	return slices.Clone(fw.files)
}

package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/modcycle/modcycle/pkg/logging"
)

// ChangeEvent is a batch of changed module source files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// skipDirs are directories never worth watching
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

// watchedExts are the file extensions that trigger re-analysis
var watchedExts = map[string]bool{
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// FileWatcher watches a workspace for module source changes
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	workspace string
	events    chan ChangeEvent
}

// NewFileWatcher creates a new file system watcher for a workspace
func NewFileWatcher(workspace string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:   watcher,
		workspace: workspace,
		events:    make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.watchSourceDirs(); err != nil {
		return err
	}

	logging.Info("started watching workspace", "path", fw.workspace)

	go fw.processEvents(ctx)
	return nil
}

// watchSourceDirs registers every source directory with the watcher. fsnotify
// is not recursive, so each directory is added individually. Directories
// created later are picked up when a create event for them arrives.
func (fw *FileWatcher) watchSourceDirs() error {
	count := 0
	err := filepath.WalkDir(fw.workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] {
			return filepath.SkipDir
		}

		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk workspace: %w", err)
	}

	logging.Info("monitoring source directories", "count", count)
	return nil
}

// processEvents batches raw fsnotify events into ChangeEvents
func (fw *FileWatcher) processEvents(ctx context.Context) {
	var changed []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(changed) == 0 {
			return
		}
		fw.events <- ChangeEvent{
			Paths:     changed,
			Timestamp: time.Now(),
		}
		changed = nil
	}

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			close(fw.events)
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				// The underlying watcher shut down; unblock downstream readers
				flush()
				close(fw.events)
				return
			}

			// New directories need to be registered to keep coverage complete
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					fw.maybeWatchDir(event.Name)
					continue
				}
			}

			if !watchedExts[filepath.Ext(event.Name)] {
				continue
			}

			changed = append(changed, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				flush()
				close(fw.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// maybeWatchDir adds a newly created directory to the watch set
func (fw *FileWatcher) maybeWatchDir(path string) {
	if skipDirs[filepath.Base(path)] {
		return
	}
	if err := fw.watcher.Add(path); err == nil {
		logging.Debug("watching new directory", "path", path)
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

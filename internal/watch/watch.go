// Package watch observes the project tree and coalesces file change
// bursts into single change notifications.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of events must settle before a
// change notification fires.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Paths are the directories to watch, recursively.
	Paths []string

	// IgnorePaths are directory prefixes that never produce
	// notifications. The output directory belongs here so served
	// artifacts do not retrigger the watcher.
	IgnorePaths []string

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// OnChange receives the batch of paths that changed once a burst
	// settles. It runs on the watch goroutine.
	OnChange func(paths []string)

	Logger *slog.Logger
}

// Watcher debounces filesystem events over a set of directories.
type Watcher struct {
	options Options
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
}

// New creates a Watcher over the configured paths. Directories are
// registered recursively; paths that do not exist yet are skipped.
func New(options Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	w := &Watcher{options: options, fsw: fsw, logger: logger}
	for _, root := range options.Paths {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree registers root and every directory below it.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		w.logger.Debug("watch path missing, skipping", "path", root)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) || isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, prefix := range w.options.IgnorePaths {
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isHidden reports whether a directory name is dot-prefixed, such as
// .git. The current directory "." is not hidden.
func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// Run processes events until ctx is cancelled. Change bursts are
// coalesced: the OnChange callback fires once per settled burst with
// the deduplicated set of changed paths.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer   = time.NewTimer(0)
		pending = map[string]struct{}{}
	)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be registered so future events
			// inside them are seen.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.options.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			pending = map[string]struct{}{}
			w.logger.Debug("change burst settled", "files", len(changed))
			if w.options.OnChange != nil {
				w.options.OnChange(changed)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	// Chmod alone carries no content change.
	return event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}

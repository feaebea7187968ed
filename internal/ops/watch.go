package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// changeDebounce is how long Watch waits after the last filesystem event
// before treating the burst as one code change.
const changeDebounce = 300 * time.Millisecond

// liveness is how often Watch polls the managed process for an exit.
const liveness = time.Second

// Watch recursively watches the workspace tree (honoring the same
// exclude-name set Sync uses) and invokes onEvent for every filesystem
// change until ctx is cancelled. fsnotify itself is not recursive, so this
// walks the tree once at startup to arm a watch on every directory.
//
// When a managed process is configured, Watch keeps it running alongside:
// change bursts are debounced into one restart (per the restart policy),
// crashes are respawned (likewise), and captured stderr is surfaced as
// feedback after each change.
func (f *Facade) Watch(ctx context.Context, req WatchRequest, onEvent func(WatchEvent)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	excluded := make(map[string]bool, len(f.cfg.ExcludeNames))
	for _, name := range f.cfg.ExcludeNames {
		excluded[name] = true
	}

	err = filepath.WalkDir(req.WorkspacePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != filepath.Base(req.WorkspacePath) && excluded[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("arming watches: %w", err)
	}

	var process *ManagedProcess
	if f.cfg.Process.Cmd != "" {
		process = NewManagedProcess(f.cfg.Process, req.WorkspacePath, f.logger)
		if err := process.Spawn(); err != nil {
			return fmt.Errorf("starting managed process: %w", err)
		}
		defer process.Stop()
	}

	// A stopped timer whose firing marks the end of a change burst.
	debounce := time.NewTimer(changeDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	alive := time.NewTicker(liveness)
	defer alive.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			onEvent(WatchEvent{Path: event.Name, Op: event.Op.String()})

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !excluded[filepath.Base(event.Name)] {
						_ = watcher.Add(event.Name)
					}
				}
			}

			if process != nil && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debounce.Reset(changeDebounce)
			}

		case <-debounce.C:
			if process == nil {
				continue
			}
			if err := process.OnCodeChange(); err != nil {
				f.logger.Warn("restart after change failed", "error", err)
			}
			fb := process.Feedback()
			if len(fb.Errors) > 0 {
				f.logger.Warn("managed process reported diagnostics",
					"errors", len(fb.Errors), "crashes", fb.CrashCount)
			}

		case <-alive.C:
			if process == nil || process.CheckAlive() {
				continue
			}
			fb := process.Feedback()
			if fb.ExitCode == nil || *fb.ExitCode == 0 {
				continue // clean exit stays down
			}
			if err := process.OnCrash(); err != nil {
				f.logger.Warn("restart after crash failed", "error", err)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watch error", "error", werr)
		}
	}
}

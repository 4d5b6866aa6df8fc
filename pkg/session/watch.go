package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// DefaultDebounce is how long a file must stay quiet before it is exported.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Debounce coalesces the Create and Write events of one file.
	Debounce time.Duration
	// Exported is called after each new file. err is nil on success.
	Exported func(src, dst string, err error)
	Log      zerolog.Logger
}

// Watcher exports every image that appears below a folder, using the
// settings of its session. Files already in the session are skipped, so
// each new file is exported once.
type Watcher struct {
	exp      *Exporter
	s        *Session
	dir      string
	debounce time.Duration
	exported func(src, dst string, err error)
	log      zerolog.Logger

	started   chan struct{}
	processed atomic.Int64
	failed    atomic.Int64
}

// NewWatcher creates a Watcher for dir.
func NewWatcher(exp *Exporter, s *Session, dir string, opts WatchOptions) *Watcher {
	d := opts.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	return &Watcher{
		exp:      exp,
		s:        s,
		dir:      dir,
		debounce: d,
		exported: opts.Exported,
		log:      opts.Log.With().Str("component", "watcher").Logger(),
		started:  make(chan struct{}),
	}
}

// Started is closed once every directory is being watched.
func (w *Watcher) Started() <-chan struct{} {
	return w.started
}

// Stats returns how many files were exported and how many failed.
func (w *Watcher) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}

// Run watches until ctx is done and returns ctx.Err(). The session is only
// touched from the calling goroutine. Run must be called at most once.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.dir)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(root); err != nil {
		return err
	} else if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", w.dir)
	}
	if err := checkOutputFolder(w.s.Output.Folder); err != nil {
		return err
	}
	out, err := filepath.Abs(w.s.Output.Folder)
	if err != nil {
		return err
	}
	if within(root, out) {
		return fmt.Errorf("%w: %s is inside the watched folder %s", ErrOutputFolderInvalid, out, root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("error walking directory")
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				w.log.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
			} else {
				dirs++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.log.Info().Int("directories", dirs).Str("watch_dir", root).Msg("watching for new images")
	close(w.started)

	ready := make(chan string)
	done := make(chan struct{})
	pending := make(map[string]*time.Timer)
	defer func() {
		close(done)
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			processed, failed := w.Stats()
			w.log.Info().Int64("files_processed", processed).Int64("files_failed", failed).Msg("watcher stopped")
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
				if err := fw.Add(event.Name); err != nil {
					w.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
				}
				continue
			}
			if !watermark.SupportedExtension(event.Name) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				t.Reset(w.debounce)
				continue
			}
			pending[event.Name] = w.schedule(event.Name, ready, done)

		case name := <-ready:
			delete(pending, name)
			w.handle(ctx, name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// schedule hands name to ready after the debounce delay, or gives up once
// done is closed.
func (w *Watcher) schedule(name string, ready chan<- string, done <-chan struct{}) *time.Timer {
	return time.AfterFunc(w.debounce, func() {
		select {
		case ready <- name:
		case <-done:
		}
	})
}

func (w *Watcher) handle(ctx context.Context, path string) {
	dst, err := w.exp.ExportFile(ctx, w.s, path)
	if errors.Is(err, ErrDuplicate) {
		w.log.Debug().Str("path", path).Msg("already exported, skipping")
		return
	}
	if err != nil {
		// a later write of the same file gets another chance
		w.s.Remove(path)
		w.failed.Add(1)
		w.log.Warn().Err(err).Str("path", path).Msg("failed to export watched file")
	} else {
		w.processed.Add(1)
		w.log.Info().Str("path", path).Str("output", dst).Msg("exported")
	}
	if w.exported != nil {
		w.exported(path, dst, err)
	}
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Package dropzone turns files copied into a local folder into upload
// batches, the terminal stand-in for dragging files onto the page.
package dropzone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultQuiet is how long the folder must stay quiet before a batch is cut.
const DefaultQuiet = 750 * time.Millisecond

// Batch is a set of files that arrived together, sorted by name.
type Batch struct {
	Paths []string
}

// BatchMsg delivers a batch to the bubbletea loop.
type BatchMsg Batch

type Watcher struct {
	dir   string
	quiet time.Duration
	log   *zap.SugaredLogger
}

// New watches dir. Files already present are ignored.
func New(dir string, quiet time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("drop directory is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watcher{dir: abs, quiet: quiet, log: log}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Start begins watching. The returned channel closes when ctx is done.
func (w *Watcher) Start(ctx context.Context) (<-chan Batch, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch: %w", err)
	}

	out := make(chan Batch, 8)
	go w.run(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Batch) {
	defer func() {
		_ = fsw.Close()
		close(out)
	}()

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.quiet)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warnw("drop folder watch error", "dir", w.dir, "err", err)

		case <-timer.C:
			batch := w.collect(pending)
			pending = map[string]struct{}{}
			if len(batch.Paths) == 0 {
				continue
			}
			w.log.Infow("drop folder batch", "dir", w.dir, "files", len(batch.Paths))
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// collect keeps the pending paths that are still regular files.
func (w *Watcher) collect(pending map[string]struct{}) Batch {
	var paths []string
	for p := range pending {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return Batch{Paths: paths}
}

// Listen waits for the next batch. It returns nil when the watcher stops.
func Listen(ch <-chan Batch) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		b, ok := <-ch
		if !ok {
			return nil
		}
		return BatchMsg(b)
	}
}

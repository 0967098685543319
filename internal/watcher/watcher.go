// Package watcher re-runs indexing when the watched source files change.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/DeusData/codegraph/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

const maxLoggedPaths = 5

type fileSnapshot struct {
	rel     string
	modTime time.Time
	size    int64
}

// IndexFunc is called when a change is detected.
type IndexFunc func(ctx context.Context) error

// Watcher polls a set of roots and triggers re-indexing on change.
type Watcher struct {
	roots    []string
	opts     *discover.Options
	indexFn  IndexFunc
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// New creates a Watcher over roots. opts selects files the same way
// indexing does; nil means defaults.
func New(roots []string, opts *discover.Options, indexFn IndexFunc) *Watcher {
	return &Watcher{
		roots:   roots,
		opts:    opts,
		indexFn: indexFn,
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling only
// when the adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// Baseline records the current state of the roots without indexing. Call it
// before an initial index so edits made during that index are seen by the
// first poll. Without it the first poll records the baseline instead.
func (w *Watcher) Baseline(ctx context.Context) error {
	snap, err := captureSnapshot(ctx, w.roots, w.opts)
	if err != nil {
		return err
	}
	w.setBaseline(snap)
	return nil
}

func (w *Watcher) setBaseline(snap map[string]fileSnapshot) {
	slog.Debug("watcher.baseline", "files", len(snap))
	w.snapshot = snap
	w.interval = pollInterval(len(snap))
	w.nextPoll = time.Now().Add(w.interval)
}

// poll captures a snapshot and compares it with the previous one.
func (w *Watcher) poll(ctx context.Context) {
	for _, root := range w.roots {
		if _, err := os.Stat(root); err != nil {
			slog.Warn("watcher.root_gone", "path", root)
			w.nextPoll = time.Now().Add(maxInterval)
			return
		}
	}

	snap, err := captureSnapshot(ctx, w.roots, w.opts)
	if err != nil {
		slog.Warn("watcher.snapshot", "err", err)
		w.nextPoll = time.Now().Add(w.interval)
		return
	}

	if w.snapshot == nil {
		w.setBaseline(snap)
		return
	}

	interval := pollInterval(len(snap))
	changed := changedFiles(w.snapshot, snap)
	if len(changed) == 0 {
		w.interval = interval
		w.nextPoll = time.Now().Add(interval)
		return
	}

	logged := changed
	if len(logged) > maxLoggedPaths {
		logged = logged[:maxLoggedPaths]
	}
	slog.Info("watcher.changed", "files", len(changed), "paths", logged)
	if err := w.indexFn(ctx); err != nil {
		slog.Warn("watcher.index", "err", err)
		// old snapshot kept so the next cycle retries
		w.nextPoll = time.Now().Add(interval)
		return
	}

	w.snapshot = snap
	w.interval = interval
	w.nextPoll = time.Now().Add(interval)
}

// captureSnapshot records mtime and size of every discovered file, keyed by
// absolute path.
func captureSnapshot(ctx context.Context, roots []string, opts *discover.Options) (map[string]fileSnapshot, error) {
	snap := make(map[string]fileSnapshot)
	for _, root := range roots {
		files, err := discover.Discover(ctx, root, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			info, statErr := os.Stat(f.Path)
			if statErr != nil {
				continue
			}
			snap[f.Path] = fileSnapshot{
				rel:     f.RelPath,
				modTime: info.ModTime(),
				size:    info.Size(),
			}
		}
	}
	return snap, nil
}

// changedFiles returns the root-relative paths of files added, removed or
// modified between prev and next, sorted.
func changedFiles(prev, next map[string]fileSnapshot) []string {
	var changed []string
	for path, n := range next {
		p, ok := prev[path]
		if !ok || !p.modTime.Equal(n.modTime) || p.size != n.size {
			changed = append(changed, n.rel)
		}
	}
	for path, p := range prev {
		if _, ok := next[path]; !ok {
			changed = append(changed, p.rel)
		}
	}
	sort.Strings(changed)
	return changed
}

// pollInterval is 1s plus 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	d := baseInterval + time.Duration(fileCount/500)*time.Second
	if d > maxInterval {
		d = maxInterval
	}
	return d
}

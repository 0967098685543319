package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/DeusData/codegraph/internal/config"
	"github.com/DeusData/codegraph/internal/discover"
	"github.com/DeusData/codegraph/internal/store"
	"github.com/DeusData/codegraph/internal/watcher"
)

// DefaultWatchRefresh is how often WatchProjects re-reads the project list.
const DefaultWatchRefresh = 10 * time.Second

// WatchProjects keeps one watcher per stored project until ctx is done,
// re-indexing a project when files under its root change. The project list
// is re-read every refresh, so projects indexed or deleted through the tools
// gain or lose their watcher.
func (s *Server) WatchProjects(ctx context.Context, refresh time.Duration) {
	watching := map[string]context.CancelFunc{}
	defer func() {
		for _, cancel := range watching {
			cancel()
		}
	}()

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	for {
		s.syncWatchers(ctx, watching)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// syncWatchers starts watchers for new projects and stops those whose
// project no longer exists. The baseline is taken before the watcher
// goroutine starts.
func (s *Server) syncWatchers(ctx context.Context, watching map[string]context.CancelFunc) {
	projects, err := s.store.ListProjects()
	if err != nil {
		slog.Warn("watcher.list_projects", "err", err)
		return
	}

	live := make(map[string]bool, len(projects))
	for _, p := range projects {
		live[p.Name] = true
		if _, ok := watching[p.Name]; ok {
			continue
		}
		w := s.projectWatcher(p)
		if err := w.Baseline(ctx); err != nil {
			slog.Warn("watcher.baseline", "project", p.Name, "err", err)
		}
		wctx, cancel := context.WithCancel(ctx)
		watching[p.Name] = cancel
		go w.Run(wctx)
		slog.Info("watcher.start", "project", p.Name, "root", p.RootPath)
	}

	for name, cancel := range watching {
		if !live[name] {
			cancel()
			delete(watching, name)
			slog.Info("watcher.stop", "project", name)
		}
	}
}

func (s *Server) projectWatcher(p *store.Project) *watcher.Watcher {
	cfg := config.Load(p.RootPath)
	opts := &discover.Options{
		Extension:      cfg.EffectiveExtension(),
		IgnorePatterns: cfg.EffectiveIgnorePatterns(),
	}
	name, root := p.Name, p.RootPath
	return watcher.New([]string{root}, opts, func(ctx context.Context) error {
		return s.reindex(ctx, root, name)
	})
}

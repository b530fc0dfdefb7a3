package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"adhoc-index/internal/favorites"
	"adhoc-index/internal/filesystem"
	"adhoc-index/internal/indexer"
	"adhoc-index/internal/logging"
	"adhoc-index/internal/memory"
	"adhoc-index/internal/metrics"
	"adhoc-index/internal/startup"
)

// statsInterval is how often gauge metrics are refreshed while watching.
const statsInterval = 30 * time.Second

func newWatchCommand(a *app) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the type index current and print changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd, duration)
		},
	}

	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, duration time.Duration) error {
	cfg := a.cfg
	startup.LogConfig(cfg)
	if err := startup.PrepareDirectories(cfg); err != nil {
		return err
	}

	memory.ConfigureFromEnv()
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	pc := projectConfig(cfg)
	pc.Throttle = monitor
	s, err := openSessionWith(cmd.Context(), cfg, pc)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.project
	idx := p.Index()
	out := newPrinter(cmd)

	unsubIndex := idx.Subscribe(func(ev indexer.Event) {
		switch ev.Kind {
		case indexer.CategoriesChanged:
			out.Title("Types: %s", joinCategories(idx))
		case indexer.ListingChanged:
			out.Muted("Listing %s changed", ev.Category.DisplayName())
		}
	})
	defer unsubIndex()

	unsubFavorites := p.SubscribeFavorites(func(entries []favorites.Entry) {
		out.Muted("Favorites: %s", countLabel(len(entries), "entry"))
	})
	defer unsubFavorites()

	startup.LogIndexerInit(idx.MaxDepth(), cfg.RefreshDelay)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if err := idx.Open(); err != nil {
		return err
	}
	watcher, err := indexer.Watch(ctx, idx)
	if err != nil {
		return err
	}
	startup.LogIndexerStarted(watcher.Watched())

	collector := metrics.NewCollector(p, statsInterval)
	collector.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case <-ctx.Done():
		startup.LogShutdownInitiated(ctx.Err().Error())
	}

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping watcher")
	if err := watcher.Close(); err != nil {
		logging.Warn("Watcher shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Watcher stopped")
	}

	startup.LogShutdownStep("Closing index")
	idx.Close()
	startup.LogShutdownStepComplete("Index closed")

	startup.LogShutdownComplete()
	return nil
}

func joinCategories(idx *indexer.Index) string {
	categories := idx.Categories()
	if len(categories) == 0 {
		return "(none)"
	}
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.DisplayName()
	}
	return strings.Join(names, ", ")
}

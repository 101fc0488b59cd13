package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/history"
	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/serve"
	"github.com/bookforge/bookforge/internal/site"
	"github.com/bookforge/bookforge/internal/watch"
)

// ServeCmd implements the 'serve' command: build once, serve the output
// directory, and rebuild whenever the content store changes.
type ServeCmd struct {
	Output   string        `short:"o" help:"Output directory for the generated site (overrides config)"`
	Port     int           `short:"p" help:"Port to listen on (overrides config)"`
	Drafts   bool          `short:"D" default:"true" negatable:"" help:"Include draft chapters in the preview"`
	Debounce time.Duration `default:"300ms" help:"Quiet window before a change triggers a rebuild"`
}

// rebuilder serializes builds so the watcher goroutine, the periodic
// scheduler, and configuration reloads never run concurrently against the
// shared generator and configuration.
type rebuilder struct {
	mu         sync.Mutex
	generator  *site.Generator
	cfg        *config.Config
	configPath string
	notify     func()
}

// Rebuild runs one build under the lock, persists its report and history
// row, and notifies connected browsers when output changed.
func (r *rebuilder) Rebuild(ctx context.Context, reason string) *site.BuildReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Info("Rebuilding", "reason", reason)
	report, err := runBuildCycle(ctx, r.generator, r.cfg, r.configPath)
	if err != nil {
		slog.Error("Rebuild failed", "error", err)
		return report
	}
	if report.Diff.Empty() {
		slog.Debug("No output changes, skipping reload")
		return report
	}
	if r.notify != nil {
		r.notify()
	}
	return report
}

// ReloadConfig re-reads the configuration file under the build lock so no
// build observes a half-swapped configuration.
func (r *rebuilder) ReloadConfig() {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh, err := config.Load(r.configPath)
	if err != nil {
		slog.Error("Configuration reload failed", "error", err)
		return
	}
	*r.cfg = *fresh
	slog.Info("Configuration reloaded")
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := ResolveOutputDir(s.Output, cfg)
	port := cfg.Serve.Port
	if s.Port != 0 {
		port = s.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry *prometheus.Registry
	generator := site.NewGenerator(cfg, outputDir).SetIncludeDrafts(s.Drafts)
	if cfg.Serve.Metrics {
		registry = prometheus.NewRegistry()
		generator.SetRecorder(metrics.NewPrometheusRecorder(registry))
	}

	server := serve.NewServer(serve.Options{
		OutputDir:  outputDir,
		Port:       port,
		LiveReload: cfg.Serve.LiveReloadEnabled(),
		Registry:   registry,
		Status:     statusProvider(cfg, root.Config),
	})

	rb := &rebuilder{
		generator:  generator,
		cfg:        cfg,
		configPath: root.Config,
		notify:     server.NotifyReload,
	}

	fmt.Println("Building", cfg.Site.Title)
	// Serve even when the first build fails; the next edit may fix it.
	if report := rb.Rebuild(ctx, "startup"); report != nil &&
		(report.Outcome == site.OutcomeSuccess || report.Outcome == site.OutcomeWarning) {
		fmt.Printf("Build completed: %d pages, %d assets\n", report.PagesRendered, report.AssetsCopied)
	}

	watcher, err := watch.New(s.Debounce)
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, dir := range []string{cfg.Content.Dir, cfg.Content.AssetsDir} {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	if err := watcher.AddFile(root.Config); err != nil {
		return err
	}
	watcher.Start(ctx)

	go func() {
		configAbs, _ := filepath.Abs(root.Config)
		for {
			select {
			case <-ctx.Done():
				return
			case change := <-watcher.Changes():
				for _, p := range change.Paths {
					if abs, _ := filepath.Abs(p); abs == configAbs {
						rb.ReloadConfig()
						break
					}
				}
				rb.Rebuild(ctx, "content changed")
			}
		}
	}()

	if interval := cfg.Serve.RebuildIntervalDuration(); interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create rebuild scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() { rb.Rebuild(ctx, "periodic") }),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic rebuild: %w", err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		slog.Info("Periodic rebuild enabled", "interval", interval)
	}

	fmt.Printf("Serving %s at http://localhost:%d/ (Ctrl+C to stop)\n", cfg.Site.Title, port)
	return server.Run(ctx)
}

// statusProvider exposes the last recorded build on the /status endpoint.
// Returns nil when history is disabled.
func statusProvider(cfg *config.Config, configPath string) serve.StatusProvider {
	if !cfg.History.Enabled() {
		return nil
	}
	dbPath := cfg.History.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(configPath), dbPath)
	}
	return func(ctx context.Context) (any, error) {
		store, err := history.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Last(ctx)
	}
}

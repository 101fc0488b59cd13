package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/history"
	"github.com/bookforge/bookforge/internal/site"
)

// Global holds state shared across subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"book.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the static site from the content store"`
	Init    InitCmd    `cmd:"" help:"Initialize a new book configuration"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site locally, rebuilding on change"`
	Check   CheckCmd   `cmd:"" help:"Verify internal links and asset references in the built site"`
	Lint    LintCmd    `cmd:"" help:"Lint chapter sources and assets"`
	New     NewCmd     `cmd:"" help:"Scaffold a new chapter"`
	Publish PublishCmd `cmd:"" help:"Commit the built site to the publish branch"`
	History HistoryCmd `cmd:"" help:"Show recent build history"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(c.Verbose),
	}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel combines the verbose flag with BOOKFORGE_LOG_LEVEL.
// The environment variable wins so CI can force debug output.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(os.Getenv(config.EnvPrefix + "LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// ResolveOutputDir determines the output directory.
// Priority: CLI flag > configured directory.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Dir
}

// StateDir returns the directory for build reports and history, rooted next
// to the configuration file.
func StateDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".bookforge")
}

// runBuildCycle executes one build and persists its report and history row.
// The build error is returned as-is; persistence failures only warn.
func runBuildCycle(ctx context.Context, generator *site.Generator, cfg *config.Config, configPath string) (*site.BuildReport, error) {
	report, err := generator.Build(ctx)
	if report != nil {
		if perr := report.Persist(StateDir(configPath)); perr != nil {
			slog.Warn("Could not persist build report", "error", perr)
		}
		recordHistory(ctx, cfg, configPath, report)
	}
	return report, err
}

// recordHistory persists a build report to the history database. History
// failures are logged, never fatal: the site itself built fine.
func recordHistory(ctx context.Context, cfg *config.Config, configPath string, report *site.BuildReport) {
	if report == nil || !cfg.History.Enabled() {
		return
	}
	dbPath := cfg.History.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(configPath), dbPath)
	}
	store, err := history.Open(dbPath)
	if err != nil {
		slog.Warn("Failed to open build history", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, report); err != nil {
		slog.Warn("Failed to record build history", "error", err)
	}
}

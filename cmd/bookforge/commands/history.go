package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"10" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.History.Enabled() {
		return fmt.Errorf("build history is disabled in %s", root.Config)
	}

	dbPath := cfg.History.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(root.Config), dbPath)
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), h.Limit)
	if err != nil {
		if errors.Is(err, history.ErrNoBuilds) {
			fmt.Println("No builds recorded yet")
			return nil
		}
		return err
	}
	if len(records) == 0 {
		fmt.Println("No builds recorded yet")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  %-9s  %3d pages  %3d assets  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome, r.PagesRendered, r.AssetsCopied,
			r.Duration.Round(time.Millisecond))
		if r.Warnings > 0 {
			fmt.Printf("  %d warnings", r.Warnings)
		}
		if r.Errors > 0 {
			fmt.Printf("  %d errors", r.Errors)
		}
		fmt.Println()
	}
	return nil
}

package commands

import (
	"fmt"
	"os"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/lint"
)

// LintCmd implements the 'lint' command: source-level hygiene checks over
// the content store, before any build runs.
type LintCmd struct {
	JSON bool `help:"Emit the report as JSON"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	scanner := book.NewScanner(cfg.Content.Dir, cfg.Content.AssetsDir)
	chapters, err := scanner.ScanChapters()
	if err != nil {
		return fmt.Errorf("scan chapters: %w", err)
	}
	assets, err := scanner.ScanAssets()
	if err != nil {
		return fmt.Errorf("scan assets: %w", err)
	}

	result := lint.NewLinter().Lint(chapters, assets)

	if l.JSON {
		if err := lint.FormatJSON(os.Stdout, result); err != nil {
			return err
		}
	} else {
		if err := lint.FormatText(os.Stdout, result); err != nil {
			return err
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("%d lint errors", result.ErrorCount())
	}
	return nil
}

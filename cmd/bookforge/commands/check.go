package commands

import (
	"fmt"
	"os"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/linkcheck"
)

// CheckCmd implements the 'check' command: post-build verification that all
// internal references in the generated site resolve.
type CheckCmd struct {
	Output string `short:"o" help:"Output directory to verify (overrides config)"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := ResolveOutputDir(c.Output, cfg)
	if _, err := os.Stat(outputDir); err != nil {
		return fmt.Errorf("output directory %s not found; run 'bookforge build' first", outputDir)
	}

	result, err := linkcheck.NewService(outputDir, cfg.Site.BaseURL).Check()
	if err != nil {
		return err
	}

	for _, problem := range result.Problems {
		fmt.Println(problem)
	}
	fmt.Printf("Checked %d pages, %d references: %d broken\n",
		result.PagesChecked, result.RefsChecked, len(result.Problems))

	if !result.OK() {
		return fmt.Errorf("%d broken references", len(result.Problems))
	}
	return nil
}

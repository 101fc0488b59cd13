package commands

import (
	"context"
	"fmt"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
	Drafts bool   `short:"D" help:"Include draft chapters"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := ResolveOutputDir(b.Output, cfg)
	return RunBuild(context.Background(), cfg, root.Config, outputDir, b.Drafts)
}

// RunBuild executes one full build, persists the report, and records history.
func RunBuild(ctx context.Context, cfg *config.Config, configPath, outputDir string, drafts bool) error {
	fmt.Println("Building", cfg.Site.Title)

	generator := site.NewGenerator(cfg, outputDir).SetIncludeDrafts(drafts)
	report, buildErr := runBuildCycle(ctx, generator, cfg, configPath)
	if buildErr != nil {
		return fmt.Errorf("build failed: %w", buildErr)
	}

	fmt.Printf("Build completed: %d pages, %d assets -> %s\n",
		report.PagesRendered, report.AssetsCopied, outputDir)
	for _, warning := range report.Warnings {
		fmt.Println("Warning:", warning)
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Output  string `short:"o" help:"Output directory to publish (overrides config)"`
	Push    bool   `help:"Push the publish branch after committing"`
	Message string `short:"m" help:"Commit message"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	outputDir := ResolveOutputDir(p.Output, cfg)
	if _, err := os.Stat(outputDir); err != nil {
		return fmt.Errorf("output directory %s not found; run 'bookforge build' first", outputDir)
	}

	push := p.Push || cfg.Publish.Push
	var remoteURL string
	if push {
		remoteURL, err = publish.ResolveRemoteURL(cfg.Publish.Remote)
		if err != nil {
			return err
		}
	}
	message := p.Message
	if message == "" {
		message = cfg.Publish.Message
	}

	result, err := publish.Publish(context.Background(), publish.Options{
		OutputDir: outputDir,
		Branch:    cfg.Publish.Branch,
		RemoteURL: remoteURL,
		Message:   message,
		Push:      push,
	})
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	switch {
	case result.Committed:
		fmt.Printf("Committed site to %s (%s)\n", cfg.Publish.Branch, result.CommitHash[:8])
	default:
		fmt.Println("Site unchanged, nothing to commit")
	}
	if result.Pushed {
		fmt.Println("Pushed", cfg.Publish.Branch, "to", cfg.Publish.Remote)
	}
	return nil
}

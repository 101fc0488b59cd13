package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/config"
)

// NewCmd implements the 'new' command: scaffolds a chapter file with
// frontmatter so authors never start from a blank page.
type NewCmd struct {
	Title string `arg:"" help:"Title of the new chapter"`
	Part  string `help:"Part the chapter belongs to"`
	Draft bool   `help:"Mark the chapter as a draft"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slug := book.Slugify(n.Title)
	if slug == "" {
		return fmt.Errorf("title %q produces an empty slug", n.Title)
	}
	path := filepath.Join(cfg.Content.Dir, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("chapter %s already exists", path)
	}

	weight := nextWeight(cfg)

	content := fmt.Sprintf("---\ntitle: %q\nweight: %d\n", n.Title, weight)
	if n.Part != "" {
		content += fmt.Sprintf("part: %q\n", n.Part)
	}
	if n.Draft {
		content += "draft: true\n"
	}
	content += fmt.Sprintf("uid: %s\n---\n\nWrite the chapter here.\n", uuid.NewString())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write chapter: %w", err)
	}
	fmt.Println("Created", path)
	return nil
}

// nextWeight places the new chapter after every existing one, in steps of 10
// so chapters can be inserted between neighbors later.
func nextWeight(cfg *config.Config) int {
	chapters, err := book.NewScanner(cfg.Content.Dir, cfg.Content.AssetsDir).ScanChapters()
	if err != nil || len(chapters) == 0 {
		return 10
	}
	max := 0
	for _, ch := range chapters {
		if ch.Weight > max {
			max = ch.Weight
		}
	}
	return max + 10
}

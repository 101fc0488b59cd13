package lint

import (
	"sort"

	"github.com/bookforge/bookforge/internal/book"
)

// Linter runs all rules over a scanned content store.
type Linter struct {
	rules []Rule
}

// NewLinter creates a linter with the default rule set.
func NewLinter() *Linter {
	return &Linter{
		rules: []Rule{
			&FilenameRule{},
			&FrontmatterRule{},
			&LinkRule{},
		},
	}
}

// Lint checks every chapter, then reports assets no chapter references.
// Draft chapters are included: broken references should surface before
// publication, not after.
func (l *Linter) Lint(chapters []*book.Chapter, assets []book.Asset) *Result {
	ctx := &Context{
		Slugs:            make(map[string]bool),
		SourceSlugs:      make(map[string]string),
		Assets:           make(map[string]bool),
		ReferencedAssets: make(map[string]bool),
	}
	for _, ch := range chapters {
		ctx.Slugs[ch.Slug] = true
		ctx.SourceSlugs[ch.RelativePath] = ch.Slug
	}
	for _, a := range assets {
		ctx.Assets[a.OutputPath()] = true
	}

	result := &Result{
		Issues:        []Issue{},
		ChaptersTotal: len(chapters),
		AssetsTotal:   len(assets),
	}
	for _, ch := range chapters {
		for _, rule := range l.rules {
			result.Issues = append(result.Issues, rule.Check(ctx, ch)...)
		}
	}

	result.Issues = append(result.Issues, unreferencedAssets(ctx)...)
	return result
}

// unreferencedAssets reports assets present on disk that no chapter
// references. These bloat the published site without serving any page.
func unreferencedAssets(ctx *Context) []Issue {
	var orphans []string
	for asset := range ctx.Assets {
		if !ctx.ReferencedAssets[asset] {
			orphans = append(orphans, asset)
		}
	}
	sort.Strings(orphans)

	issues := make([]Issue, 0, len(orphans))
	for _, asset := range orphans {
		issues = append(issues, Issue{
			FilePath: asset,
			Severity: SeverityWarning,
			Rule:     "unreferenced-assets",
			Message:  "asset is not referenced by any chapter",
			Fix:      "remove the file or reference it from a chapter",
		})
	}
	return issues
}

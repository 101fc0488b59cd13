package lint

import (
	"net/url"
	"path"
	"strings"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/markdown"
)

// Rule checks one chapter against the shared context.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string
	// Check inspects a chapter and returns any issues found.
	Check(ctx *Context, ch *book.Chapter) []Issue
}

// FilenameRule validates that chapter filenames produce stable URLs.
type FilenameRule struct{}

func (r *FilenameRule) Name() string { return "filename-conventions" }

func (r *FilenameRule) Check(_ *Context, ch *book.Chapter) []Issue {
	name := path.Base(ch.RelativePath)
	var issues []Issue

	if strings.ContainsAny(name, " \t") {
		issues = append(issues, Issue{
			FilePath: ch.RelativePath,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  "filename contains whitespace",
			Fix:      "rename to " + book.Slugify(strings.TrimSuffix(name, path.Ext(name))) + path.Ext(name),
		})
	}
	if name != strings.ToLower(name) {
		issues = append(issues, Issue{
			FilePath: ch.RelativePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "filename contains uppercase letters; URLs are case-sensitive across hosts",
			Fix:      "rename to " + strings.ToLower(name),
		})
	}
	return issues
}

// FrontmatterRule validates required frontmatter fields.
type FrontmatterRule struct{}

func (r *FrontmatterRule) Name() string { return "frontmatter-fields" }

func (r *FrontmatterRule) Check(_ *Context, ch *book.Chapter) []Issue {
	var issues []Issue
	// Title presence is enforced at parse time; here we check ordering hygiene.
	if ch.Weight == 0 {
		issues = append(issues, Issue{
			FilePath: ch.RelativePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "chapter has no weight; ordering falls back to filename",
			Fix:      "add 'weight: <n>' to the frontmatter",
		})
	}
	if ch.Description == "" {
		issues = append(issues, Issue{
			FilePath: ch.RelativePath,
			Severity: SeverityInfo,
			Rule:     r.Name(),
			Message:  "chapter has no description for the table of contents",
		})
	}
	return issues
}

// LinkRule verifies that chapter-to-chapter links and asset references in a
// chapter's markdown resolve. Asset references are recorded in the context
// so the unreferenced-assets pass can run afterwards.
type LinkRule struct{}

func (r *LinkRule) Name() string { return "internal-links" }

func (r *LinkRule) Check(ctx *Context, ch *book.Chapter) []Issue {
	var issues []Issue
	for _, link := range markdown.ExtractLinks(ch.Body) {
		dest := strings.TrimSpace(link.Destination)
		target, internal := normalizeDestination(dest)
		if !internal {
			continue
		}

		if isAssetRef(target) {
			ctx.ReferencedAssets[target] = true
			if !ctx.Assets[target] {
				issues = append(issues, Issue{
					FilePath: ch.RelativePath,
					Severity: SeverityError,
					Rule:     r.Name(),
					Message:  "referenced asset does not exist: " + dest,
				})
			}
			continue
		}

		if link.Kind == markdown.LinkKindImage {
			issues = append(issues, Issue{
				FilePath: ch.RelativePath,
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  "image reference outside the assets directory: " + dest,
				Fix:      "move the image under the assets directory",
			})
			continue
		}

		if !resolvesToChapter(ctx, target) {
			issues = append(issues, Issue{
				FilePath: ch.RelativePath,
				Severity: SeverityError,
				Rule:     r.Name(),
				Message:  "broken internal link: " + dest,
			})
		}
	}
	return issues
}

// normalizeDestination strips fragments and leading ./ or /; external URLs
// and pure fragments report internal=false.
func normalizeDestination(dest string) (string, bool) {
	if dest == "" {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	p := strings.TrimPrefix(u.Path, "/")
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p), true
}

func isAssetRef(target string) bool {
	return strings.HasPrefix(target, "assets/")
}

// resolvesToChapter accepts slug, slug.html, or the chapter's source path.
func resolvesToChapter(ctx *Context, target string) bool {
	if slug, ok := ctx.SourceSlugs[target]; ok && slug != "" {
		return true
	}
	trimmed := strings.TrimSuffix(target, ".html")
	return ctx.Slugs[trimmed]
}

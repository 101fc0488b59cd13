package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RefKind classifies a checked reference.
type RefKind string

const (
	RefLink   RefKind = "link"
	RefImage  RefKind = "image"
	RefStyle  RefKind = "stylesheet"
	RefScript RefKind = "script"
)

// Problem is one unresolved internal reference.
type Problem struct {
	Page string  // output-relative page the reference appears on
	Ref  string  // the raw href/src value
	Kind RefKind
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: broken %s -> %s", p.Page, p.Kind, p.Ref)
}

// Result aggregates a verification run over the generated site.
type Result struct {
	PagesChecked int
	RefsChecked  int
	Problems     []Problem
}

// OK reports whether every internal reference resolved.
func (r *Result) OK() bool { return len(r.Problems) == 0 }

// Service verifies that internal links and asset references in a generated
// site resolve to emitted files.
type Service struct {
	outputDir string
	basePath  string // URL path prefix of the site root, e.g. "/book/"
}

// NewService creates a verifier for the given output directory. baseURL is
// the configured site base URL; only its path component matters here.
func NewService(outputDir, baseURL string) *Service {
	basePath := "/"
	if u, err := url.Parse(baseURL); err == nil && u.Path != "" {
		basePath = u.Path
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return &Service{outputDir: outputDir, basePath: basePath}
}

// Check walks every HTML page in the output directory and verifies its
// internal references.
func (s *Service) Check() (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(s.outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}
		rel, err := filepath.Rel(s.outputDir, p)
		if err != nil {
			return err
		}
		result.PagesChecked++
		return s.checkPage(filepath.ToSlash(rel), p, result)
	})
	if err != nil {
		return nil, fmt.Errorf("walk output directory: %w", err)
	}

	slog.Info("Link check completed",
		"pages", result.PagesChecked,
		"refs", result.RefsChecked,
		"broken", len(result.Problems))
	return result, nil
}

// selectors maps goquery selectors to the attribute carrying the reference.
var selectors = []struct {
	query string
	attr  string
	kind  RefKind
}{
	{"a[href]", "href", RefLink},
	{"img[src]", "src", RefImage},
	{"link[href]", "href", RefStyle},
	{"script[src]", "src", RefScript},
}

func (s *Service) checkPage(relPage, absPath string, result *Result) error {
	f, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", relPage, err)
	}

	for _, sel := range selectors {
		doc.Find(sel.query).Each(func(_ int, node *goquery.Selection) {
			ref, _ := node.Attr(sel.attr)
			target, internal := s.resolve(relPage, ref)
			if !internal {
				return
			}
			result.RefsChecked++
			if !s.targetExists(target) {
				result.Problems = append(result.Problems, Problem{Page: relPage, Ref: ref, Kind: sel.kind})
			}
		})
	}
	return nil
}

// resolve maps a reference on relPage to an output-relative target path.
// internal is false for external URLs, mailto links, and pure fragments.
func (s *Service) resolve(relPage, ref string) (target string, internal bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		// Same-page fragment.
		return "", false
	}

	p := u.Path
	if strings.HasPrefix(p, "/") {
		// Rooted reference; strip the site base path.
		p = strings.TrimPrefix(p, s.basePath)
		p = strings.TrimPrefix(p, "/")
	} else {
		p = path.Join(path.Dir(relPage), p)
	}
	return path.Clean(p), true
}

func (s *Service) targetExists(target string) bool {
	if target == "" || target == "." {
		return true
	}
	full := filepath.Join(s.outputDir, filepath.FromSlash(target))
	if fi, err := os.Stat(full); err == nil {
		if fi.IsDir() {
			// Directory links resolve through their index page.
			_, err := os.Stat(filepath.Join(full, "index.html"))
			return err == nil
		}
		return true
	}
	return false
}

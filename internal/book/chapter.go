package book

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMissingTitle indicates a chapter without a title in its frontmatter.
	ErrMissingTitle = errors.New("chapter frontmatter missing title")
	// ErrInvalidFrontmatter indicates frontmatter that could not be parsed.
	ErrInvalidFrontmatter = errors.New("invalid chapter frontmatter")
)

// Chapter is one unit of book content: a markdown file with YAML frontmatter.
type Chapter struct {
	Path         string // absolute path to the source file
	RelativePath string // path relative to the content directory
	Slug         string // URL slug derived from frontmatter or filename
	Title        string
	Description  string
	Part         string // optional grouping in the table of contents
	Weight       int    // ordering position; lower renders first
	Draft        bool
	UID          string // optional stable identifier from frontmatter
	Body         []byte // markdown body with frontmatter stripped
	Extra        map[string]any
}

// OutputPath returns the site-relative path of the rendered page.
func (c *Chapter) OutputPath() string {
	return c.Slug + ".html"
}

// Href returns the site-relative link target for navigation.
func (c *Chapter) Href() string {
	return c.OutputPath()
}

// Asset is an image or other binary input referenced by chapters.
type Asset struct {
	Path         string // absolute path to the source file
	RelativePath string // path relative to the assets directory
}

// OutputPath returns the site-relative path the asset is copied to.
func (a *Asset) OutputPath() string {
	return "assets/" + filepath.ToSlash(a.RelativePath)
}

type chapterMeta struct {
	Title       string         `yaml:"title"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Part        string         `yaml:"part"`
	Weight      int            `yaml:"weight"`
	Draft       bool           `yaml:"draft"`
	UID         string         `yaml:"uid"`
	Extra       map[string]any `yaml:",inline"`
}

// ParseChapter parses a chapter file's raw bytes into a Chapter.
// relPath is the path relative to the content directory.
func ParseChapter(path, relPath string, raw []byte) (*Chapter, error) {
	var meta chapterMeta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFrontmatter, relPath, err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingTitle, relPath)
	}

	slug := meta.Slug
	if slug == "" {
		base := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
		slug = Slugify(base)
	}

	return &Chapter{
		Path:         path,
		RelativePath: filepath.ToSlash(relPath),
		Slug:         slug,
		Title:        meta.Title,
		Description:  meta.Description,
		Part:         meta.Part,
		Weight:       meta.Weight,
		Draft:        meta.Draft,
		UID:          meta.UID,
		Body:         body,
		Extra:        meta.Extra,
	}, nil
}

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts an arbitrary string into a lowercase URL slug.
// Diacritics are folded to their base characters, runs of non-alphanumerics
// collapse to a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(slugFolder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

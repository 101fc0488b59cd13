package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/config"
)

//go:embed templates/*.html templates/*.css
var templateFS embed.FS

// siteData is the site-wide template context.
type siteData struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
	FooterText  string
	Math        bool
}

// navLink points at a neighboring chapter.
type navLink struct {
	Title string
	Href  string
}

// navItem is one sidebar/TOC entry.
type navItem struct {
	Title       string
	Description string
	Href        string
	Active      bool
}

// navPart groups sidebar entries under an optional part title.
type navPart struct {
	Title string
	Items []navItem
}

// pageData is the per-page template context.
type pageData struct {
	Site        siteData
	Title       string
	Description string
	Content     template.HTML
	Prev        *navLink
	Next        *navLink
	Nav         []navPart
}

// templateSet holds the parsed page templates.
type templateSet struct {
	chapter *template.Template
	index   *template.Template
}

func loadTemplates() (*templateSet, error) {
	base, err := template.ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	chapter, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/chapter.html")
	if err != nil {
		return nil, fmt.Errorf("parse chapter template: %w", err)
	}
	index, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}

	return &templateSet{chapter: chapter, index: index}, nil
}

// themeStatic returns the embedded theme files emitted into the output,
// keyed by output-relative path.
func themeStatic() (map[string][]byte, error) {
	css, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		return nil, fmt.Errorf("read theme stylesheet: %w", err)
	}
	return map[string][]byte{"static/style.css": css}, nil
}

func newSiteData(cfg *config.Config) siteData {
	return siteData{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		BaseURL:     cfg.Site.BaseURL,
		Author:      cfg.Site.Author,
		FooterText:  cfg.Theme.FooterText,
		Math:        cfg.Theme.Math,
	}
}

// buildNav renders the sidebar model for the given active chapter (nil for
// the index page).
func buildNav(toc *book.TOC, active *book.Chapter) []navPart {
	nav := make([]navPart, 0, len(toc.Parts))
	for _, part := range toc.Parts {
		items := make([]navItem, 0, len(part.Chapters))
		for _, ch := range part.Chapters {
			items = append(items, navItem{
				Title:       ch.Title,
				Description: ch.Description,
				Href:        ch.Href(),
				Active:      ch == active,
			})
		}
		nav = append(nav, navPart{Title: part.Title, Items: items})
	}
	return nav
}

func (ts *templateSet) renderChapter(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := ts.chapter.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute chapter template: %w", err)
	}
	return buf.Bytes(), nil
}

func (ts *templateSet) renderIndex(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := ts.index.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute index template: %w", err)
	}
	return buf.Bytes(), nil
}

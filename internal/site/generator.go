package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/internal/book"
	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/manifest"
	"github.com/bookforge/bookforge/internal/markdown"
	"github.com/bookforge/bookforge/internal/metrics"
)

// Stage names, in execution order.
const (
	StageScan   = "scan"
	StageRender = "render"
	StageIndex  = "index"
	StageAssets = "assets"
	StageWrite  = "write"
)

// Generator builds the static site from the content store.
//
// The build is a pure transform: identical content and configuration
// produce byte-identical output, and only files whose content changed are
// rewritten on disk.
type Generator struct {
	cfg           *config.Config
	outputDir     string
	recorder      metrics.Recorder
	renderer      *markdown.Renderer
	includeDrafts bool
}

// NewGenerator creates a generator writing into outputDir.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: filepath.Clean(outputDir),
		recorder:  metrics.NoopRecorder{},
		renderer:  markdown.NewRenderer(),
	}
}

// SetRecorder injects a metrics recorder. Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// SetIncludeDrafts controls whether draft chapters are rendered (preview mode).
func (g *Generator) SetIncludeDrafts(v bool) *Generator {
	g.includeDrafts = v
	return g
}

// OutputDir returns the directory the site is written to.
func (g *Generator) OutputDir() string { return g.outputDir }

// Build runs the full pipeline and returns the build report. The report is
// returned even when the build fails so callers can persist partial results.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(uuid.NewString())
	bs := newBuildState(g, report)

	stages := []namedStage{
		{StageScan, stageScan},
		{StageRender, stageRender},
		{StageIndex, stageIndex},
		{StageAssets, stageAssets},
		{StageWrite, stageWrite},
	}

	err := runStages(ctx, bs, stages)
	report.Duration = time.Since(bs.start)
	g.recorder.ObserveBuildDuration(report.Duration)
	g.recorder.IncBuildOutcome(string(report.Outcome))
	g.recorder.SetPagesRendered(report.PagesRendered)
	g.recorder.SetAssetsCopied(report.AssetsCopied)

	if err != nil {
		return report, err
	}
	slog.Info("Site generated",
		"output", g.outputDir,
		"pages", report.PagesRendered,
		"assets", report.AssetsCopied,
		"changed", len(report.Diff.Added)+len(report.Diff.Changed)+len(report.Diff.Removed),
		"duration", report.Duration)
	return report, nil
}

// stageScan loads chapters and assets from the content store.
func stageScan(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	scanner := book.NewScanner(g.cfg.Content.Dir, g.cfg.Content.AssetsDir)

	chapters, err := scanner.ScanChapters()
	if err != nil {
		return newFatalStageError(StageScan, err)
	}
	if len(chapters) == 0 {
		return newFatalStageError(StageScan, fmt.Errorf("no chapters found under %s", g.cfg.Content.Dir))
	}
	assets, err := scanner.ScanAssets()
	if err != nil {
		return newFatalStageError(StageScan, err)
	}

	bs.Chapters = chapters
	bs.Assets = assets
	bs.TOC = book.NewTOC(chapters, g.includeDrafts)
	bs.Report.ChaptersDraft = len(chapters) - len(bs.TOC.Chapters)
	if bs.Report.ChaptersDraft > 0 {
		slog.Info("Skipping draft chapters", "count", bs.Report.ChaptersDraft)
	}
	return nil
}

// stageRender converts every chapter body to a full HTML page.
func stageRender(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	ts, err := bs.templates()
	if err != nil {
		return newFatalStageError(StageRender, err)
	}
	site := newSiteData(g.cfg)

	bySource := make(map[string]string, len(bs.TOC.Chapters))
	for _, ch := range bs.TOC.Chapters {
		bySource[ch.RelativePath] = ch.OutputPath()
	}

	for _, ch := range bs.TOC.Chapters {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRender, ctx.Err())
		default:
		}

		body, err := g.renderer.RenderResolved(ch.Body, pageLinkResolver(bySource, ch))
		if err != nil {
			return newFatalStageError(StageRender, fmt.Errorf("chapter %s: %w", ch.RelativePath, err))
		}

		data := pageData{
			Site:        site,
			Title:       ch.Title,
			Description: ch.Description,
			Content:     template.HTML(body),
			Nav:         buildNav(bs.TOC, ch),
		}
		if prev := bs.TOC.Prev(ch); prev != nil {
			data.Prev = &navLink{Title: prev.Title, Href: prev.Href()}
		}
		if next := bs.TOC.Next(ch); next != nil {
			data.Next = &navLink{Title: next.Title, Href: next.Href()}
		}

		page, err := ts.renderChapter(data)
		if err != nil {
			return newFatalStageError(StageRender, fmt.Errorf("chapter %s: %w", ch.RelativePath, err))
		}
		bs.Pages[ch.OutputPath()] = page
		bs.Manifest.Record(ch.OutputPath(), page)
	}

	bs.Report.PagesRendered = len(bs.Pages)
	return nil
}

// pageLinkResolver rewrites source-path links (intro.md) to the target
// chapter's rendered page, so chapters can link each other the way editors
// preview them. Destinations are tried root-relative first, matching lint,
// then relative to the linking chapter.
func pageLinkResolver(bySource map[string]string, from *book.Chapter) markdown.LinkResolver {
	fromDir := path.Dir(from.RelativePath)
	return func(dest string) (string, bool) {
		u, err := url.Parse(dest)
		if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
			return "", false
		}
		ext := strings.ToLower(path.Ext(u.Path))
		if ext != ".md" && ext != ".markdown" {
			return "", false
		}

		p := strings.TrimPrefix(u.Path, "/")
		p = strings.TrimPrefix(p, "./")
		candidates := []string{path.Clean(p)}
		if fromDir != "." {
			candidates = append(candidates, path.Clean(path.Join(fromDir, p)))
		}
		for _, c := range candidates {
			out, ok := bySource[c]
			if !ok {
				continue
			}
			if u.Fragment != "" {
				out += "#" + u.Fragment
			}
			return out, true
		}
		return "", false
	}
}

// stageIndex renders the landing page with the full table of contents.
func stageIndex(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	ts, err := bs.templates()
	if err != nil {
		return newFatalStageError(StageIndex, err)
	}

	data := pageData{
		Site: newSiteData(g.cfg),
		Nav:  buildNav(bs.TOC, nil),
	}
	page, err := ts.renderIndex(data)
	if err != nil {
		return newFatalStageError(StageIndex, err)
	}
	bs.Pages["index.html"] = page
	bs.Manifest.Record("index.html", page)
	bs.Report.PagesRendered = len(bs.Pages)
	return nil
}

// stageAssets records user assets and embedded theme files in the manifest.
func stageAssets(ctx context.Context, bs *BuildState) error {
	static, err := themeStatic()
	if err != nil {
		return newFatalStageError(StageAssets, err)
	}
	for path, content := range static {
		bs.Pages[path] = content
		bs.Manifest.Record(path, content)
	}

	for _, asset := range bs.Assets {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageAssets, ctx.Err())
		default:
		}
		hash, err := manifest.HashFile(asset.Path)
		if err != nil {
			return newFatalStageError(StageAssets, fmt.Errorf("asset %s: %w", asset.RelativePath, err))
		}
		bs.Manifest.Entries[asset.OutputPath()] = hash
	}

	bs.Manifest.Pages = bs.Report.PagesRendered
	bs.Manifest.Assets = len(bs.Assets) + len(static)
	bs.Report.AssetsCopied = bs.Manifest.Assets
	return nil
}

// stageWrite flushes changed files to the output directory and removes
// stale ones. Unchanged files are left untouched so repeated builds from
// identical content rewrite nothing.
func stageWrite(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return newFatalStageError(StageWrite, err)
	}

	oldManifest, err := manifest.Load(g.outputDir)
	if err != nil {
		slog.Warn("Ignoring unreadable previous manifest", "error", err)
		oldManifest = manifest.New()
	}
	bs.OldManifest = oldManifest

	// Rendered pages and theme files.
	for relPath, content := range bs.Pages {
		if err := writeIfChanged(filepath.Join(g.outputDir, relPath), content); err != nil {
			return newFatalStageError(StageWrite, err)
		}
	}

	// User assets are copied by hash comparison to avoid rereading output.
	for _, asset := range bs.Assets {
		dst := filepath.Join(g.outputDir, asset.OutputPath())
		wantHash := bs.Manifest.Entries[asset.OutputPath()]
		if existing, err := manifest.HashFile(dst); err == nil && existing == wantHash {
			continue
		}
		content, err := os.ReadFile(asset.Path)
		if err != nil {
			return newFatalStageError(StageWrite, fmt.Errorf("read asset %s: %w", asset.RelativePath, err))
		}
		if err := writeIfChanged(dst, content); err != nil {
			return newFatalStageError(StageWrite, err)
		}
	}

	if g.cfg.Output.Clean {
		if err := removeStale(g.outputDir, oldManifest, bs.Manifest); err != nil {
			return newWarnStageError(StageWrite, err)
		}
	}

	bs.Report.Diff = manifest.Compare(oldManifest, bs.Manifest)
	if err := bs.Manifest.Write(g.outputDir); err != nil {
		return newFatalStageError(StageWrite, err)
	}
	return nil
}

// writeIfChanged writes content to path only when the on-disk bytes differ.
func writeIfChanged(path string, content []byte) error {
	if existing, err := manifest.HashFile(path); err == nil && existing == manifest.HashBytes(content) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// removeStale deletes outputs present in the previous manifest but absent
// from the current one.
func removeStale(outputDir string, oldM, newM *manifest.Manifest) error {
	for relPath := range oldM.Entries {
		if _, ok := newM.Entries[relPath]; ok {
			continue
		}
		path := filepath.Join(outputDir, relPath)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale output %s: %w", relPath, err)
		}
		slog.Debug("Removed stale output", "path", relPath)
	}
	return nil
}

package book

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner walks the content store and loads chapters and assets.
type Scanner struct {
	contentDir string
	assetsDir  string
}

// NewScanner creates a scanner over the given content and assets directories.
func NewScanner(contentDir, assetsDir string) *Scanner {
	return &Scanner{contentDir: contentDir, assetsDir: assetsDir}
}

// assetExtensions are the file types treated as copyable assets.
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".pdf": true, ".ico": true,
	".css": true, ".js": true, ".woff": true, ".woff2": true,
}

// IsAssetFile reports whether the path has a recognized asset extension.
func IsAssetFile(path string) bool {
	return assetExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsChapterFile reports whether the path looks like a markdown chapter.
func IsChapterFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// ScanChapters loads every chapter under the content directory, sorted by
// weight then relative path. Draft chapters are included; callers filter.
func (s *Scanner) ScanChapters() ([]*Chapter, error) {
	if _, err := os.Stat(s.contentDir); err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}

	var chapters []*Chapter
	err := filepath.WalkDir(s.contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsChapterFile(path) {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read chapter %s: %w", path, err)
		}
		relPath, err := filepath.Rel(s.contentDir, path)
		if err != nil {
			return err
		}

		ch, err := ParseChapter(path, relPath, raw)
		if err != nil {
			return err
		}
		chapters = append(chapters, ch)
		slog.Debug("Discovered chapter", "path", ch.RelativePath, "slug", ch.Slug, "weight", ch.Weight)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].Weight != chapters[j].Weight {
			return chapters[i].Weight < chapters[j].Weight
		}
		return chapters[i].RelativePath < chapters[j].RelativePath
	})

	slog.Info("Chapters discovered", "count", len(chapters))
	return chapters, nil
}

// ScanAssets lists every asset under the assets directory, sorted by relative
// path. A missing assets directory yields an empty list, not an error.
func (s *Scanner) ScanAssets() ([]Asset, error) {
	if _, err := os.Stat(s.assetsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var assets []Asset
	err := filepath.WalkDir(s.assetsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && d.Name() != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(s.assetsDir, path)
		if err != nil {
			return err
		}
		assets = append(assets, Asset{Path: path, RelativePath: filepath.ToSlash(relPath)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].RelativePath < assets[j].RelativePath })

	slog.Info("Assets discovered", "count", len(assets))
	return assets, nil
}

package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func chapterSource(title string, weight int) string {
	return "---\ntitle: " + title + "\nweight: " + itoa(weight) + "\n---\nbody\n"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestScanChapters_SortsByWeightThenPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "zz-intro.md"), chapterSource("Intro", 1))
	writeFile(t, filepath.Join(dir, "aa-sharding.md"), chapterSource("Sharding", 5))
	writeFile(t, filepath.Join(dir, "bb-rooflines.md"), chapterSource("Rooflines", 2))
	writeFile(t, filepath.Join(dir, "cc-tpus.md"), chapterSource("TPUs", 2))

	s := NewScanner(dir, filepath.Join(dir, "assets"))
	chapters, err := s.ScanChapters()
	require.NoError(t, err)
	require.Len(t, chapters, 4)
	require.Equal(t, "Intro", chapters[0].Title)
	require.Equal(t, "Rooflines", chapters[1].Title)
	require.Equal(t, "TPUs", chapters[2].Title)
	require.Equal(t, "Sharding", chapters[3].Title)
}

func TestScanChapters_SkipsHiddenAndNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.md"), chapterSource("Intro", 1))
	writeFile(t, filepath.Join(dir, ".hidden.md"), chapterSource("Hidden", 1))
	writeFile(t, filepath.Join(dir, ".git", "config.md"), chapterSource("Git", 1))
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a chapter")

	s := NewScanner(dir, filepath.Join(dir, "assets"))
	chapters, err := s.ScanChapters()
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.Equal(t, "Intro", chapters[0].Title)
}

func TestScanChapters_MissingContentDir(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "nope"), "")
	_, err := s.ScanChapters()
	require.Error(t, err)
}

func TestScanChapters_PropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.md"), "---\nweight: 9\n---\nno title\n")

	s := NewScanner(dir, "")
	_, err := s.ScanChapters()
	require.ErrorIs(t, err, ErrMissingTitle)
}

func TestScanAssets_SortedAndMissingDirOK(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	writeFile(t, filepath.Join(assets, "img", "b.png"), "png")
	writeFile(t, filepath.Join(assets, "img", "a.svg"), "svg")
	writeFile(t, filepath.Join(assets, "style.css"), "css")

	s := NewScanner(dir, assets)
	got, err := s.ScanAssets()
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "img/a.svg", got[0].RelativePath)
	require.Equal(t, "img/b.png", got[1].RelativePath)
	require.Equal(t, "style.css", got[2].RelativePath)
	require.Equal(t, "assets/img/a.svg", got[0].OutputPath())

	s2 := NewScanner(dir, filepath.Join(dir, "missing"))
	got2, err := s2.ScanAssets()
	require.NoError(t, err)
	require.Empty(t, got2)
}

func TestNewTOC_FiltersDraftsAndLinksNeighbors(t *testing.T) {
	a := &Chapter{Title: "A", Slug: "a", Weight: 1}
	b := &Chapter{Title: "B", Slug: "b", Weight: 2, Draft: true}
	c := &Chapter{Title: "C", Slug: "c", Weight: 3}

	toc := NewTOC([]*Chapter{a, b, c}, false)
	require.Len(t, toc.Chapters, 2)
	require.Nil(t, toc.Prev(a))
	require.Equal(t, c, toc.Next(a))
	require.Equal(t, a, toc.Prev(c))
	require.Nil(t, toc.Next(c))
	require.Equal(t, c, toc.BySlug("c"))
	require.Nil(t, toc.BySlug("b"))

	withDrafts := NewTOC([]*Chapter{a, b, c}, true)
	require.Len(t, withDrafts.Chapters, 3)
}

func TestNewTOC_GroupsConsecutiveParts(t *testing.T) {
	chapters := []*Chapter{
		{Title: "Intro", Slug: "intro"},
		{Title: "Rooflines", Slug: "rooflines", Part: "Fundamentals"},
		{Title: "TPUs", Slug: "tpus", Part: "Fundamentals"},
		{Title: "Conclusion", Slug: "conclusion"},
	}

	toc := NewTOC(chapters, false)
	require.Len(t, toc.Parts, 3)
	require.Equal(t, "", toc.Parts[0].Title)
	require.Equal(t, "Fundamentals", toc.Parts[1].Title)
	require.Len(t, toc.Parts[1].Chapters, 2)
	require.Equal(t, "", toc.Parts[2].Title)
}

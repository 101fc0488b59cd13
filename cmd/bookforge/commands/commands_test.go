package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newProject initializes a fresh book project in a temp working directory.
func newProject(t *testing.T) *CLI {
	t.Helper()
	t.Chdir(t.TempDir())

	root := &CLI{Config: "book.yaml"}
	require.NoError(t, (&InitCmd{}).Run(nil, root))
	return root
}

func TestInit_CreatesConfigAndSampleChapter(t *testing.T) {
	newProject(t)

	require.FileExists(t, "book.yaml")
	require.FileExists(t, filepath.Join("chapters", "introduction.md"))
}

func TestInit_ExistingConfigNeedsForce(t *testing.T) {
	root := newProject(t)

	require.Error(t, (&InitCmd{}).Run(nil, root))
	require.NoError(t, (&InitCmd{Force: true}).Run(nil, root))
}

func TestBuild_ScaffoldProducesSite(t *testing.T) {
	root := newProject(t)

	require.NoError(t, (&BuildCmd{}).Run(nil, root))

	require.FileExists(t, filepath.Join("site", "index.html"))
	require.FileExists(t, filepath.Join("site", "introduction.html"))
	require.FileExists(t, filepath.Join("site", "static", "style.css"))
	require.FileExists(t, filepath.Join("site", "manifest.json"))
	require.FileExists(t, filepath.Join(".bookforge", "build-report.json"))
}

func TestBuild_MissingConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())

	err := (&BuildCmd{}).Run(nil, &CLI{Config: "book.yaml"})
	require.Error(t, err)
}

func TestCheck_CleanSitePasses(t *testing.T) {
	root := newProject(t)
	require.NoError(t, (&BuildCmd{}).Run(nil, root))

	require.NoError(t, (&CheckCmd{}).Run(nil, root))
}

func TestCheck_WithoutBuildFails(t *testing.T) {
	root := newProject(t)

	require.Error(t, (&CheckCmd{}).Run(nil, root))
}

func TestLint_ScaffoldReportsNoErrors(t *testing.T) {
	root := newProject(t)

	require.NoError(t, (&LintCmd{}).Run(nil, root))
}

func TestNew_ScaffoldsChapterAfterExisting(t *testing.T) {
	root := newProject(t)

	require.NoError(t, (&NewCmd{Title: "Advanced Topics", Part: "Part II"}).Run(nil, root))

	path := filepath.Join("chapters", "advanced-topics.md")
	require.FileExists(t, path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `title: "Advanced Topics"`)
	require.Contains(t, string(content), "weight: 11")
	require.Contains(t, string(content), `part: "Part II"`)
	require.Contains(t, string(content), "uid: ")
}

func TestNew_DuplicateSlugFails(t *testing.T) {
	root := newProject(t)

	require.Error(t, (&NewCmd{Title: "Introduction"}).Run(nil, root))
}

func TestHistory_RecordsBuilds(t *testing.T) {
	root := newProject(t)
	require.NoError(t, (&BuildCmd{}).Run(nil, root))
	require.NoError(t, (&BuildCmd{}).Run(nil, root))

	require.FileExists(t, filepath.Join(".bookforge", "history.db"))
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(nil, root))
}

func TestStateDir_RootedNextToConfig(t *testing.T) {
	require.Equal(t, filepath.Join("docs", ".bookforge"), StateDir(filepath.Join("docs", "book.yaml")))
	require.Equal(t, ".bookforge", StateDir("book.yaml"))
}

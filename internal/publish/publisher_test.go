package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>v1</html>"), 0o644))
	return dir
}

func TestPublish_CreatesRepoAndCommitsOnBranch(t *testing.T) {
	dir := siteDir(t)

	result, err := Publish(context.Background(), Options{OutputDir: dir, Branch: "gh-pages"})
	require.NoError(t, err)
	require.True(t, result.Committed)
	require.NotEmpty(t, result.CommitHash)

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, plumbing.NewBranchReferenceName("gh-pages"), head.Name())
}

func TestPublish_NoChangesSecondRun(t *testing.T) {
	dir := siteDir(t)
	ctx := context.Background()

	first, err := Publish(ctx, Options{OutputDir: dir})
	require.NoError(t, err)
	require.True(t, first.Committed)

	second, err := Publish(ctx, Options{OutputDir: dir})
	require.NoError(t, err)
	require.False(t, second.Committed)
	require.Equal(t, first.CommitHash, second.CommitHash)
}

func TestPublish_EditedSiteProducesNewCommit(t *testing.T) {
	dir := siteDir(t)
	ctx := context.Background()

	first, err := Publish(ctx, Options{OutputDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>v2</html>"), 0o644))
	second, err := Publish(ctx, Options{OutputDir: dir})
	require.NoError(t, err)
	require.True(t, second.Committed)
	require.NotEqual(t, first.CommitHash, second.CommitHash)
}

func TestPublish_PushToLocalBareRemote(t *testing.T) {
	dir := siteDir(t)
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	result, err := Publish(context.Background(), Options{
		OutputDir: dir,
		Branch:    "gh-pages",
		RemoteURL: remoteDir,
		Push:      true,
	})
	require.NoError(t, err)
	require.True(t, result.Pushed)

	remote, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	require.Equal(t, result.CommitHash, ref.Hash().String())
}

func TestPublish_PushWithoutRemoteFails(t *testing.T) {
	dir := siteDir(t)

	_, err := Publish(context.Background(), Options{OutputDir: dir, Push: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no remote configured")
}

func TestResolveRemoteURL_PassthroughForURLsAndPaths(t *testing.T) {
	for _, v := range []string{
		"https://example.com/repo.git",
		"git@example.com:user/repo.git",
		"/tmp/some/path",
	} {
		got, err := ResolveRemoteURL(v)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	got, err := ResolveRemoteURL("")
	require.NoError(t, err)
	require.Empty(t, got)
}

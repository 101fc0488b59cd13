package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Options configures one publish run.
type Options struct {
	OutputDir string // generated site to publish
	Branch    string // target branch, e.g. gh-pages
	RemoteURL string // push destination; empty disables pushing
	Message   string // commit message; a default is derived when empty
	Push      bool
}

// Result describes what the publish run did.
type Result struct {
	CommitHash string
	Committed  bool
	Pushed     bool
}

// Publish commits the output directory to the publish branch and optionally
// pushes it. The output directory carries its own repository so the site's
// history stays separate from the book source history.
func Publish(ctx context.Context, opts Options) (*Result, error) {
	if opts.Branch == "" {
		opts.Branch = "gh-pages"
	}
	if opts.Message == "" {
		opts.Message = "Publish site " + time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	}

	repo, err := openOrInit(opts.OutputDir, opts.Branch)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("stage site files: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read worktree status: %w", err)
	}

	result := &Result{}
	if status.IsClean() {
		slog.Info("No site changes to publish")
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("resolve head: %w", err)
		}
		result.CommitHash = head.Hash().String()
	} else {
		hash, err := wt.Commit(opts.Message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "bookforge",
				Email: "bookforge@localhost",
				When:  time.Now(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("commit site: %w", err)
		}
		result.CommitHash = hash.String()
		result.Committed = true
		slog.Info("Site committed", "branch", opts.Branch, "commit", hash.String()[:8])
	}

	if !opts.Push {
		return result, nil
	}
	if opts.RemoteURL == "" {
		return nil, fmt.Errorf("push requested but no remote configured")
	}

	if err := ensureRemote(repo, opts.RemoteURL); err != nil {
		return nil, err
	}
	refSpec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/heads/%s", opts.Branch, opts.Branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	})
	switch {
	case err == nil:
		result.Pushed = true
		slog.Info("Site pushed", "remote", opts.RemoteURL, "branch", opts.Branch)
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Info("Remote already up to date", "branch", opts.Branch)
	default:
		return nil, fmt.Errorf("push site: %w", err)
	}
	return result, nil
}

// openOrInit opens the repository embedded in the output directory, creating
// it on the publish branch when absent.
func openOrInit(dir, branch string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open site repository: %w", err)
	}

	repo, err = git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(branch),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init site repository: %w", err)
	}
	return repo, nil
}

// ensureRemote makes origin point at url, replacing a stale URL if needed.
func ensureRemote(repo *git.Repository, url string) error {
	remote, err := repo.Remote("origin")
	if err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 && urls[0] == url {
			return nil
		}
		if err := repo.DeleteRemote("origin"); err != nil {
			return fmt.Errorf("replace remote: %w", err)
		}
	} else if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("inspect remote: %w", err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	return nil
}

// ResolveRemoteURL turns the configured remote setting into a pushable URL.
// Values that look like URLs or paths pass through; bare names are looked up
// as remotes of the repository enclosing the working directory.
func ResolveRemoteURL(remote string) (string, error) {
	if remote == "" {
		return "", nil
	}
	if strings.Contains(remote, "://") || strings.Contains(remote, "@") ||
		strings.ContainsAny(remote, "/\\") {
		return remote, nil
	}

	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("locate source repository for remote %q: %w", remote, err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("remote %q not found in source repository: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", remote)
	}
	return urls[0], nil
}

// Package mirror maintains the local git clone of the upstream dataset.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/snepalysis/internal/core"
	"github.com/JonMunkholm/snepalysis/internal/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const defaultRemote = "origin"

// ErrNotRepository is returned when the clone directory exists, holds files
// and is not a git repository.
var ErrNotRepository = errors.New("directory exists and is not a git repository")

// Git is a core.Mirror backed by a single-branch clone.
type Git struct {
	dir      string
	url      string
	branch   string
	dataPath string
}

var _ core.Mirror = (*Git)(nil)

// New returns a mirror cloning url's branch into dir. dataPath is the CSV
// directory relative to dir.
func New(dir, url, branch, dataPath string) *Git {
	return &Git{dir: dir, url: url, branch: branch, dataPath: dataPath}
}

// DataPath returns the directory holding the daily CSV files.
func (g *Git) DataPath() string {
	return filepath.Join(g.dir, g.dataPath)
}

// EnsureCloned clones the remote unless a repository already exists at dir.
// An empty directory left behind by an interrupted clone is replaced.
func (g *Git) EnsureCloned(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.dir, git.GitDirName)); err == nil {
		return nil
	}

	entries, err := os.ReadDir(g.dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("inspect %s: %w", g.dir, err)
	case len(entries) > 0:
		return fmt.Errorf("%s: %w", g.dir, ErrNotRepository)
	default:
		if err := os.Remove(g.dir); err != nil {
			return fmt.Errorf("remove empty %s: %w", g.dir, err)
		}
	}

	logger := logging.WithFields(ctx, "dir", g.dir, "remote", g.url, "branch", g.branch)
	logger.Info("cloning dataset")

	_, err = git.PlainCloneContext(ctx, g.dir, false, &git.CloneOptions{
		URL:           g.url,
		RemoteName:    defaultRemote,
		ReferenceName: plumbing.NewBranchReferenceName(g.branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", g.url, err)
	}

	logger.Info("dataset cloned")
	return nil
}

// Pull force-pulls the tracked branch and reports whether HEAD moved.
func (g *Git) Pull(ctx context.Context) (bool, error) {
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", g.dir, err)
	}

	before, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("read head: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    defaultRemote,
		ReferenceName: plumbing.NewBranchReferenceName(g.branch),
		SingleBranch:  true,
		Force:         true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		logging.WithFields(ctx, "dir", g.dir).Debug("dataset already up to date")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pull %s: %w", g.branch, err)
	}

	after, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("read head: %w", err)
	}

	changed := before.Hash() != after.Hash()
	logging.WithFields(ctx, "dir", g.dir).Info("dataset pulled",
		"from", before.Hash().String(),
		"to", after.Hash().String(),
		"changed", changed,
	)
	return changed, nil
}

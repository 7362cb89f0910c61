package tree

import (
	"context"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// Provider is the version-control data source a repository subtree pulls
// from. *git.Service is the production implementation; tests substitute
// func-field fakes.
type Provider interface {
	RepoPath() string

	Branches(ctx context.Context) ([]git.Branch, error)
	RemoteBranches(ctx context.Context, remote string) ([]git.Branch, error)
	Remotes(ctx context.Context) ([]git.Remote, error)
	Tags(ctx context.Context) ([]git.Tag, error)
	Stashes(ctx context.Context) ([]git.Stash, error)
	Contributors(ctx context.Context) ([]git.Contributor, error)
	Worktrees(ctx context.Context) ([]git.Worktree, error)
	ReflogEntries(ctx context.Context, limit int) ([]git.ReflogEntry, error)

	// Commits returns one page of history for ref and whether more follows.
	Commits(ctx context.Context, ref string, skip, limit int) ([]git.Commit, bool, error)

	// BranchesContaining resolves the branches whose history includes ref.
	BranchesContaining(ctx context.Context, ref string, remotes bool) ([]string, error)

	Tracking(ctx context.Context, branch git.Branch) (git.TrackingStatus, error)
}

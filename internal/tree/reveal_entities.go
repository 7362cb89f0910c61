package tree

import (
	"context"
	"fmt"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// The per-entity reveal operations compose a query builder, the traversal
// engine and the reveal orchestrator. Each runs under a singleflight key
// derived from the operation and target, so concurrent requests for the same
// reveal share one walk instead of racing expansions on the host surface.

func (v *View) RevealBranch(ctx context.Context, repoPath string, branch git.Branch, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("branch:%s:%s", repoPath, branch.Name)
	return v.revealQuery(ctx, key, branchQuery(RepoNodeID(repoPath), branch), opts)
}

// RevealCommit locates hash by first resolving which branches contain it,
// then searching only those subtrees. With paging enabled the matching
// branch's history is force-loaded page by page until the commit appears.
func (v *View) RevealCommit(ctx context.Context, repoPath, hash string, paging bool, opts RevealOptions) (Match, error) {
	repo, ok := v.root.repoByPath(repoPath)
	if !ok {
		return notFound(), fmt.Errorf("repository %s not mounted", repoPath)
	}
	q, err := commitQuery(ctx, repo.provider, repo.ID(), hash, paging)
	if err != nil {
		if isContextErr(err) {
			return cancelled(), nil
		}
		return notFound(), err
	}
	key := fmt.Sprintf("commit:%s:%s", repoPath, hash)
	return v.revealQuery(ctx, key, q, opts)
}

func (v *View) RevealTag(ctx context.Context, repoPath, name string, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("tag:%s:%s", repoPath, name)
	return v.revealQuery(ctx, key, tagQuery(RepoNodeID(repoPath), name), opts)
}

func (v *View) RevealRemote(ctx context.Context, repoPath, name string, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("remote:%s:%s", repoPath, name)
	return v.revealQuery(ctx, key, remoteQuery(RepoNodeID(repoPath), name), opts)
}

func (v *View) RevealStash(ctx context.Context, repoPath string, index int, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("stash:%s:%d", repoPath, index)
	return v.revealQuery(ctx, key, stashQuery(RepoNodeID(repoPath), index), opts)
}

func (v *View) RevealContributor(ctx context.Context, repoPath, email string, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("contributor:%s:%s", repoPath, email)
	return v.revealQuery(ctx, key, contributorQuery(RepoNodeID(repoPath), email), opts)
}

func (v *View) RevealWorktree(ctx context.Context, repoPath, name string, opts RevealOptions) (Match, error) {
	key := fmt.Sprintf("worktree:%s:%s", repoPath, name)
	return v.revealQuery(ctx, key, worktreeQuery(RepoNodeID(repoPath), name), opts)
}

func (v *View) revealQuery(ctx context.Context, key string, q query, opts RevealOptions) (Match, error) {
	res, err, _ := v.reveals.Do(key, func() (any, error) {
		m, err := v.findChecked(ctx, q.match, q.opts)
		if err != nil || !m.Found() {
			return m, err
		}
		// A failed or cancelled reveal is not a failed search; the match is
		// still returned.
		return m, v.Reveal(ctx, m.Node, opts)
	})
	m, ok := res.(Match)
	if !ok {
		m = notFound()
	}
	if err != nil {
		return m, err
	}
	return m, nil
}

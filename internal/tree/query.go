package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// A query is what an entity-kind builder hands the traversal engine: the id
// prefix of the subtree worth searching, a pruning predicate scoped to it,
// the depth bound sized to that entity's maximum nesting, and the matcher.
// One generic engine parameterized this way replaces a per-entity-kind
// traversal each.
type query struct {
	scopeID string
	match   func(Node) bool
	opts    SearchOptions
}

// Depth bounds per entity kind, counted from the view root: repository nodes
// sit at depth 1, their section nodes at 2.
const (
	depthWorktree = 3
	depthFlat     = 3 // stash, contributor, remote leaves directly under a section
	depthFolders  = 6 // branch/tag leaves under nested folders
	depthCommit   = 8 // commit under repo -> remotes -> remote -> folders -> branch
)

// scopedTraverse descends along the path leading to scopeID and, inside the
// scope, only through the allowed kinds. Everything else is pruned without
// being materialized.
func scopedTraverse(scopeID string, kinds ...Kind) func(context.Context, Node) (bool, error) {
	allowed := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return func(_ context.Context, n Node) (bool, error) {
		if IsDescendant(scopeID, n.ID()) {
			return true, nil
		}
		if InScope(n.ID(), scopeID) {
			return allowed[n.Kind()], nil
		}
		return false, nil
	}
}

func branchQuery(repoID string, branch git.Branch) query {
	if branch.Remote {
		scope := joinID(repoID, "remotes", branch.RemoteName())
		return query{
			scopeID: scope,
			match: func(n Node) bool {
				b, ok := n.(*refHistoryNode)
				return ok && n.Kind() == KindBranch && b.branch.Remote && b.branch.Name == branch.Name
			},
			opts: SearchOptions{
				MaxDepth:    depthFolders,
				CanTraverse: scopedTraverse(scope, KindRemote, KindBranchFolder),
			},
		}
	}
	scope := joinID(repoID, "branches")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			b, ok := n.(*refHistoryNode)
			return ok && n.Kind() == KindBranch && !b.branch.Remote && b.branch.Name == branch.Name
		},
		opts: SearchOptions{
			MaxDepth:    depthFolders,
			CanTraverse: scopedTraverse(scope, KindBranches, KindBranchFolder),
		},
	}
}

// commitQuery resolves which branches contain the commit first, then scopes
// the walk to exactly those branch subtrees. Entering a matching branch with
// paging allowed force-loads its history until the commit's page is
// materialized, so deep commits are found without walking unrelated history.
func commitQuery(ctx context.Context, p Provider, repoID, hash string, allowPaging bool) (query, error) {
	remotes := false
	names, err := p.BranchesContaining(ctx, hash, false)
	if err != nil {
		return query{}, fmt.Errorf("resolve branches containing %s: %w", hash, err)
	}
	if len(names) == 0 {
		names, err = p.BranchesContaining(ctx, hash, true)
		if err != nil {
			return query{}, fmt.Errorf("resolve branches containing %s: %w", hash, err)
		}
		remotes = true
	}
	containing := make(map[string]bool, len(names))
	containingRemotes := make(map[string]bool)
	for _, name := range names {
		containing[name] = true
		if remotes {
			if remoteName, _, ok := strings.Cut(name, "/"); ok {
				containingRemotes[remoteName] = true
			}
		}
	}

	scope := joinID(repoID, "branches")
	sections := []Kind{KindBranches, KindBranchFolder}
	if remotes {
		scope = joinID(repoID, "remotes")
		sections = []Kind{KindRemotes, KindBranchFolder}
	}
	inSections := scopedTraverse(scope, sections...)

	return query{
		scopeID: scope,
		match: func(n Node) bool {
			c, ok := n.(*commitNode)
			return ok && c.commit.Hash == hash
		},
		opts: SearchOptions{
			MaxDepth:    depthCommit,
			AllowPaging: allowPaging,
			CanTraverse: func(ctx context.Context, n Node) (bool, error) {
				if branch, ok := n.(*refHistoryNode); ok && n.Kind() == KindBranch {
					if !InScope(n.ID(), scope) || !containing[branch.branch.Name] {
						return false, nil
					}
					if allowPaging {
						if _, err := branch.loadUntil(ctx, hash); err != nil {
							return false, err
						}
					}
					return true, nil
				}
				// Only remotes owning a containing branch are descended into;
				// the rest keep their branch lists unfetched.
				if r, ok := n.(*remoteNode); ok {
					return InScope(n.ID(), scope) && containingRemotes[r.remote.Name], nil
				}
				return inSections(ctx, n)
			},
		},
	}, nil
}

func tagQuery(repoID, name string) query {
	scope := joinID(repoID, "tags")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			t, ok := n.(*tagNode)
			return ok && t.tag.Name == name
		},
		opts: SearchOptions{
			MaxDepth:    depthFolders,
			CanTraverse: scopedTraverse(scope, KindTags, KindBranchFolder),
		},
	}
}

func remoteQuery(repoID, name string) query {
	scope := joinID(repoID, "remotes")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			r, ok := n.(*remoteNode)
			return ok && r.remote.Name == name
		},
		opts: SearchOptions{
			MaxDepth:    depthFlat,
			CanTraverse: scopedTraverse(scope, KindRemotes),
		},
	}
}

func stashQuery(repoID string, index int) query {
	scope := joinID(repoID, "stashes")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			s, ok := n.(*stashNode)
			return ok && s.stash.Index == index
		},
		opts: SearchOptions{
			MaxDepth:    depthFlat,
			CanTraverse: scopedTraverse(scope, KindStashes),
		},
	}
}

func contributorQuery(repoID, email string) query {
	scope := joinID(repoID, "contributors")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			c, ok := n.(*contributorNode)
			return ok && c.contributor.Email == email
		},
		opts: SearchOptions{
			MaxDepth:    depthFlat,
			CanTraverse: scopedTraverse(scope, KindContributors),
		},
	}
}

func worktreeQuery(repoID, name string) query {
	scope := joinID(repoID, "worktrees")
	return query{
		scopeID: scope,
		match: func(n Node) bool {
			w, ok := n.(*worktreeNode)
			return ok && w.worktree.Name == name
		},
		opts: SearchOptions{
			MaxDepth:    depthWorktree,
			CanTraverse: scopedTraverse(scope, KindWorktrees),
		},
	}
}

package tree

import (
	"context"
	"strings"
	"sync"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// groupBranches builds the folder-nested branch nodes for a Branches section
// or a remote. Slash-separated name segments become BranchFolder levels, the
// way git itself namespaces refs.
func groupBranches(v *View, parent Node, p Provider, branches []git.Branch) []Node {
	leaves := make([]refLeaf, 0, len(branches))
	for _, branch := range branches {
		branch := branch
		path := branch.Name
		if branch.Remote {
			path = branch.ShortName()
		}
		leaves = append(leaves, refLeaf{
			path: path,
			make: func(folder Node, segment string) Node {
				name := branch.Name
				return newRefHistoryNode(v, folder, p, KindBranch, segment, name, branch)
			},
		})
	}
	return groupRefs(v, parent, leaves)
}

func groupTags(v *View, parent Node, tags []git.Tag) []Node {
	leaves := make([]refLeaf, 0, len(tags))
	for _, tag := range tags {
		tag := tag
		leaves = append(leaves, refLeaf{
			path: tag.Name,
			make: func(folder Node, segment string) Node {
				return newTagNode(v, folder, tag)
			},
		})
	}
	return groupRefs(v, parent, leaves)
}

type refLeaf struct {
	path string
	make func(folder Node, segment string) Node
}

// groupRefs turns slash-separated leaf paths into a folder tree, preserving
// first-appearance order on every level. git forbids a ref coexisting with a
// ref prefixed by it, so folder and leaf ids cannot collide.
func groupRefs(v *View, parent Node, leaves []refLeaf) []Node {
	var order []string
	folders := make(map[string][]refLeaf)
	slot := make(map[string]int)
	var out []Node

	for _, leaf := range leaves {
		head, rest, nested := strings.Cut(leaf.path, "/")
		if !nested {
			out = append(out, leaf.make(parent, leaf.path))
			continue
		}
		if _, ok := folders[head]; !ok {
			order = append(order, head)
			out = append(out, nil) // placeholder keeps first-appearance order
			slot[head] = len(out) - 1
		}
		folders[head] = append(folders[head], refLeaf{path: rest, make: leaf.make})
	}
	for _, head := range order {
		folder := newBranchFolderNode(v, parent, head)
		folder.children = groupRefs(v, folder, folders[head])
		out[slot[head]] = folder
	}
	return out
}

type branchFolderNode struct {
	baseNode
	children []Node
}

func newBranchFolderNode(v *View, parent Node, name string) *branchFolderNode {
	return &branchFolderNode{baseNode: v.newBase(parent, KindBranchFolder, name, name)}
}

func (n *branchFolderNode) Children(_ context.Context) ([]Node, error) {
	return append([]Node(nil), n.children...), nil
}

type remoteNode struct {
	baseNode
	provider Provider
	remote   git.Remote

	mu       sync.Mutex
	loaded   bool
	children []Node
}

func newRemoteNode(v *View, parent Node, p Provider, remote git.Remote) *remoteNode {
	return &remoteNode{
		baseNode: v.newBase(parent, KindRemote, remote.Name, remote.Name),
		provider: p,
		remote:   remote,
	}
}

func (n *remoteNode) Children(ctx context.Context) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		branches, err := n.provider.RemoteBranches(ctx, n.remote.Name)
		if err != nil {
			return nil, err
		}
		n.children = groupBranches(n.view, n, n.provider, branches)
		n.loaded = true
	}
	return append([]Node(nil), n.children...), nil
}

func (n *remoteNode) Remote() git.Remote { return n.remote }

// refHistoryNode is a branch (local, remote or compare) whose children are
// its commit history, loaded in pages that only ever grow. A local branch
// with an upstream additionally carries a tracking-status child ahead of the
// commits.
type refHistoryNode struct {
	baseNode
	provider Provider
	branch   git.Branch

	mu          sync.Mutex
	loaded      bool
	hasMore     bool
	children    []Node
	commitCount int
}

func newRefHistoryNode(v *View, parent Node, p Provider, kind Kind, segment, name string, branch git.Branch) *refHistoryNode {
	return &refHistoryNode{
		baseNode: v.newBase(parent, kind, segment, name),
		provider: p,
		branch:   branch,
	}
}

func (n *refHistoryNode) Branch() git.Branch { return n.branch }

func (n *refHistoryNode) Children(ctx context.Context) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		if n.kind == KindBranch && !n.branch.Remote && n.branch.Upstream != "" {
			n.children = append(n.children, newTrackingNode(n.view, n, n.provider, n.branch))
		}
		if err := n.loadPageLocked(ctx); err != nil {
			n.children = nil
			return nil, err
		}
		n.loaded = true
	}
	return append([]Node(nil), n.children...), nil
}

func (n *refHistoryNode) HasMore() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loaded && n.hasMore
}

func (n *refHistoryNode) LoadMore(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded || !n.hasMore {
		return nil
	}
	return n.loadPageLocked(ctx)
}

func (n *refHistoryNode) loadPageLocked(ctx context.Context) error {
	commits, hasMore, err := n.provider.Commits(ctx, n.branch.Name, n.commitCount, n.view.pageSize)
	if err != nil {
		return err
	}
	for _, commit := range commits {
		n.children = append(n.children, newCommitNode(n.view, n, commit))
	}
	n.commitCount += len(commits)
	n.hasMore = hasMore
	return nil
}

// loadUntil pages history in until a commit with the given hash is
// materialized, every page is exhausted, or the auto-load cap is reached.
func (n *refHistoryNode) loadUntil(ctx context.Context, hash string) (bool, error) {
	if _, err := n.Children(ctx); err != nil {
		return false, err
	}
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		n.mu.Lock()
		found := false
		for _, child := range n.children {
			if commit, ok := child.(*commitNode); ok && commit.commit.Hash == hash {
				found = true
				break
			}
		}
		more := n.hasMore
		n.mu.Unlock()
		if found {
			return true, nil
		}
		if !more || page >= autoLoadMaxPages {
			return false, nil
		}
		if err := n.LoadMore(ctx); err != nil {
			return false, err
		}
	}
}

type commitNode struct {
	baseNode
	commit git.Commit
}

func newCommitNode(v *View, parent Node, commit git.Commit) *commitNode {
	return &commitNode{
		baseNode: v.newBase(parent, KindCommit, commit.Hash, commit.Summary()),
		commit:   commit,
	}
}

func (n *commitNode) Children(_ context.Context) ([]Node, error) { return nil, nil }

func (n *commitNode) Commit() git.Commit { return n.commit }

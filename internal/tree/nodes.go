package tree

import (
	"context"
	"sync"

	"github.com/thiagokokada/gitree-go/internal/git"
)

const rootID = "repos"

type rootNode struct {
	baseNode
	mu    sync.Mutex
	repos []*repositoryNode
}

func newRootNode(v *View) *rootNode {
	return &rootNode{baseNode: baseNode{view: v, id: rootID, kind: KindRepositoriesRoot, name: "Repositories"}}
}

func (n *rootNode) Children(_ context.Context) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Node, len(n.repos))
	for i, repo := range n.repos {
		out[i] = repo
	}
	return out, nil
}

func (n *rootNode) addRepository(p Provider) *repositoryNode {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, repo := range n.repos {
		if repo.provider.RepoPath() == p.RepoPath() {
			return repo
		}
	}
	repo := newRepositoryNode(n.view, n, p)
	n.repos = append(n.repos, repo)
	n.view.index.Put(repo)
	return repo
}

func (n *rootNode) removeRepository(repoPath string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, repo := range n.repos {
		if repo.provider.RepoPath() == repoPath {
			n.repos = append(n.repos[:i], n.repos[i+1:]...)
			n.view.index.DeleteSubtree(repo.ID())
			return
		}
	}
}

func (n *rootNode) repoByPath(repoPath string) (*repositoryNode, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, repo := range n.repos {
		if repo.provider.RepoPath() == repoPath {
			return repo, true
		}
	}
	return nil, false
}

func (n *rootNode) refresh() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, repo := range n.repos {
		repo.invalidate()
		n.view.index.Put(repo)
	}
}

// RepoNodeID returns the id of the repository node mounted for repoPath.
func RepoNodeID(repoPath string) string {
	return joinID(rootID, repoSegment(repoPath))
}

type repositoryNode struct {
	baseNode
	provider Provider

	mu         sync.Mutex
	compareRef string
	sections   []Node
}

func newRepositoryNode(v *View, parent Node, p Provider) *repositoryNode {
	name := p.RepoPath()
	return &repositoryNode{
		baseNode: v.newBase(parent, KindRepository, repoSegment(p.RepoPath()), name),
		provider: p,
	}
}

func (n *repositoryNode) Children(_ context.Context) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sections == nil {
		n.sections = n.buildSectionsLocked()
	}
	return append([]Node(nil), n.sections...), nil
}

func (n *repositoryNode) buildSectionsLocked() []Node {
	v := n.view
	p := n.provider
	sections := []Node{
		newSection(v, n, KindBranches, "branches", "Branches", func(ctx context.Context, section Node) ([]Node, error) {
			branches, err := p.Branches(ctx)
			if err != nil {
				return nil, err
			}
			return groupBranches(v, section, p, branches), nil
		}),
		newSection(v, n, KindRemotes, "remotes", "Remotes", func(ctx context.Context, section Node) ([]Node, error) {
			remotes, err := p.Remotes(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]Node, 0, len(remotes))
			for _, remote := range remotes {
				out = append(out, newRemoteNode(v, section, p, remote))
			}
			return out, nil
		}),
		newSection(v, n, KindStashes, "stashes", "Stashes", func(ctx context.Context, section Node) ([]Node, error) {
			stashes, err := p.Stashes(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]Node, 0, len(stashes))
			for _, stash := range stashes {
				out = append(out, newStashNode(v, section, stash))
			}
			return out, nil
		}),
		newSection(v, n, KindTags, "tags", "Tags", func(ctx context.Context, section Node) ([]Node, error) {
			tags, err := p.Tags(ctx)
			if err != nil {
				return nil, err
			}
			return groupTags(v, section, tags), nil
		}),
		newSection(v, n, KindWorktrees, "worktrees", "Worktrees", func(ctx context.Context, section Node) ([]Node, error) {
			worktrees, err := p.Worktrees(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]Node, 0, len(worktrees))
			for _, wt := range worktrees {
				out = append(out, newWorktreeNode(v, section, wt))
			}
			return out, nil
		}),
		newSection(v, n, KindContributors, "contributors", "Contributors", func(ctx context.Context, section Node) ([]Node, error) {
			contributors, err := p.Contributors(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]Node, 0, len(contributors))
			for _, c := range contributors {
				out = append(out, newContributorNode(v, section, c))
			}
			return out, nil
		}),
		newSection(v, n, KindReflog, "reflog", "Reflog", func(ctx context.Context, section Node) ([]Node, error) {
			entries, err := p.ReflogEntries(ctx, v.reflogLimit)
			if err != nil {
				return nil, err
			}
			out := make([]Node, 0, len(entries))
			for _, entry := range entries {
				out = append(out, newReflogEntryNode(v, section, entry))
			}
			return out, nil
		}),
	}
	if n.compareRef != "" {
		compare := newRefHistoryNode(n.view, n, n.provider, KindCompareBranch,
			joinID("compare", n.compareRef), n.compareRef, git.Branch{Name: n.compareRef})
		sections = append(sections, compare)
	}
	return sections
}

// SetCompareRef pins (or, with "", removes) a compare node under the
// repository. The section list is rebuilt on next access.
func (n *repositoryNode) SetCompareRef(ref string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.compareRef == ref {
		return
	}
	n.compareRef = ref
	n.disposeSectionsLocked()
}

func (n *repositoryNode) invalidate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disposeSectionsLocked()
}

func (n *repositoryNode) disposeSectionsLocked() {
	for _, section := range n.sections {
		n.view.index.DeleteSubtree(section.ID())
	}
	n.sections = nil
}

// sectionNode is a lazily loaded grouping node (Branches, Remotes, ...). Its
// children are produced by the load hook on first access and cached until the
// view invalidates the subtree.
type sectionNode struct {
	baseNode
	load func(ctx context.Context, section Node) ([]Node, error)

	mu       sync.Mutex
	loaded   bool
	children []Node
}

func newSection(v *View, parent Node, kind Kind, segment, name string,
	load func(ctx context.Context, section Node) ([]Node, error),
) *sectionNode {
	return &sectionNode{baseNode: v.newBase(parent, kind, segment, name), load: load}
}

func (n *sectionNode) Children(ctx context.Context) ([]Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		children, err := n.load(ctx, n)
		if err != nil {
			return nil, err
		}
		n.children = children
		n.loaded = true
	}
	return append([]Node(nil), n.children...), nil
}

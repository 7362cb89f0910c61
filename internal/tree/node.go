package tree

import (
	"context"
	"net/url"
	"strings"
)

type Kind uint8

const (
	KindRepositoriesRoot Kind = iota
	KindRepository
	KindBranches
	KindBranchFolder
	KindBranch
	KindBranchTrackingStatus
	KindCompareBranch
	KindCommit
	KindRemotes
	KindRemote
	KindTags
	KindTag
	KindStashes
	KindStash
	KindContributors
	KindContributor
	KindWorktrees
	KindWorktree
	KindReflog
	KindReflogEntry
)

func (k Kind) String() string {
	switch k {
	case KindRepositoriesRoot:
		return "repositories"
	case KindRepository:
		return "repository"
	case KindBranches:
		return "branches"
	case KindBranchFolder:
		return "branch-folder"
	case KindBranch:
		return "branch"
	case KindBranchTrackingStatus:
		return "tracking-status"
	case KindCompareBranch:
		return "compare-branch"
	case KindCommit:
		return "commit"
	case KindRemotes:
		return "remotes"
	case KindRemote:
		return "remote"
	case KindTags:
		return "tags"
	case KindTag:
		return "tag"
	case KindStashes:
		return "stashes"
	case KindStash:
		return "stash"
	case KindContributors:
		return "contributors"
	case KindContributor:
		return "contributor"
	case KindWorktrees:
		return "worktrees"
	case KindWorktree:
		return "worktree"
	case KindReflog:
		return "reflog"
	case KindReflogEntry:
		return "reflog-entry"
	default:
		return "unknown"
	}
}

// Node is a typed, identity-bearing element of a lazily materialized tree.
//
// IDs are slash-joined ancestry paths: a node's id always carries the id of
// its owning repository node as a prefix, which is what every scoping and
// pruning decision is based on. Children may require a repository fetch on
// first call; once produced they only ever grow (see Pager) until the view is
// invalidated.
type Node interface {
	ID() string
	Kind() Kind
	Name() string
	Parent() Node
	Children(ctx context.Context) ([]Node, error)
}

// Pager is implemented by nodes whose children load in bounded pages.
type Pager interface {
	Node
	HasMore() bool
	LoadMore(ctx context.Context) error
}

const idSep = "/"

func joinID(parts ...string) string {
	return strings.Join(parts, idSep)
}

// repoSegment encodes a repository path as a single id segment so that
// descendant tests never cross repository boundaries.
func repoSegment(repoPath string) string {
	return "repo:" + url.PathEscape(repoPath)
}

// IsDescendant reports whether id lies strictly below ancestorID.
func IsDescendant(id, ancestorID string) bool {
	return strings.HasPrefix(id, ancestorID+idSep)
}

// InScope reports whether id is ancestorID itself or lies below it.
func InScope(id, ancestorID string) bool {
	return id == ancestorID || IsDescendant(id, ancestorID)
}

// baseNode carries the identity shared by every concrete node. The parent
// relation is non-owning: it resolves through the view's index, so a disposed
// parent is simply gone rather than pinned in memory by its children.
type baseNode struct {
	view     *View
	id       string
	parentID string
	kind     Kind
	name     string
}

func (n *baseNode) ID() string   { return n.id }
func (n *baseNode) Kind() Kind   { return n.kind }
func (n *baseNode) Name() string { return n.name }

func (n *baseNode) Parent() Node {
	if n.parentID == "" {
		return nil
	}
	parent, _ := n.view.index.Get(n.parentID)
	return parent
}

func (v *View) newBase(parent Node, kind Kind, segment, name string) baseNode {
	parentID := ""
	if parent != nil {
		parentID = parent.ID()
	}
	id := segment
	if parentID != "" {
		id = joinID(parentID, segment)
	}
	return baseNode{view: v, id: id, parentID: parentID, kind: kind, name: name}
}

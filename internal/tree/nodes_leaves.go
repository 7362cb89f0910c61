package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// leafNode is the shared shape of nodes without children.
type leafNode struct {
	baseNode
}

func (n *leafNode) Children(_ context.Context) ([]Node, error) { return nil, nil }

type tagNode struct {
	leafNode
	tag git.Tag
}

func newTagNode(v *View, parent Node, tag git.Tag) *tagNode {
	segment := tag.Name
	if idx := strings.LastIndexByte(tag.Name, '/'); idx >= 0 {
		segment = tag.Name[idx+1:]
	}
	return &tagNode{
		leafNode: leafNode{v.newBase(parent, KindTag, segment, tag.Name)},
		tag:      tag,
	}
}

func (n *tagNode) Tag() git.Tag { return n.tag }

type stashNode struct {
	leafNode
	stash git.Stash
}

func newStashNode(v *View, parent Node, stash git.Stash) *stashNode {
	return &stashNode{
		leafNode: leafNode{v.newBase(parent, KindStash, fmt.Sprintf("stash-%d", stash.Index), stash.Message)},
		stash:    stash,
	}
}

func (n *stashNode) Stash() git.Stash { return n.stash }

type contributorNode struct {
	leafNode
	contributor git.Contributor
}

func newContributorNode(v *View, parent Node, c git.Contributor) *contributorNode {
	name := fmt.Sprintf("%s (%d)", c.Name, c.Commits)
	return &contributorNode{
		leafNode:    leafNode{v.newBase(parent, KindContributor, c.Email, name)},
		contributor: c,
	}
}

func (n *contributorNode) Contributor() git.Contributor { return n.contributor }

type worktreeNode struct {
	leafNode
	worktree git.Worktree
}

func newWorktreeNode(v *View, parent Node, wt git.Worktree) *worktreeNode {
	return &worktreeNode{
		leafNode: leafNode{v.newBase(parent, KindWorktree, wt.Name, wt.Name)},
		worktree: wt,
	}
}

func (n *worktreeNode) Worktree() git.Worktree { return n.worktree }

type reflogEntryNode struct {
	leafNode
	entry git.ReflogEntry
}

func newReflogEntryNode(v *View, parent Node, entry git.ReflogEntry) *reflogEntryNode {
	name := fmt.Sprintf("%s %s", entry.Selector, entry.Message)
	segment := strings.ToLower(strings.NewReplacer("@", "-", "{", "", "}", "").Replace(entry.Selector))
	return &reflogEntryNode{
		leafNode: leafNode{v.newBase(parent, KindReflogEntry, segment, name)},
		entry:    entry,
	}
}

// trackingNode sits under a local branch with an upstream. The ahead/behind
// counts are resolved on demand via Status, not at construction, so expanding
// a Branches section stays cheap.
type trackingNode struct {
	leafNode
	provider Provider
	branch   git.Branch
}

func newTrackingNode(v *View, parent Node, p Provider, branch git.Branch) *trackingNode {
	name := "tracking " + branch.Upstream
	return &trackingNode{
		leafNode: leafNode{v.newBase(parent, KindBranchTrackingStatus, "tracking", name)},
		provider: p,
		branch:   branch,
	}
}

func (n *trackingNode) Status(ctx context.Context) (git.TrackingStatus, error) {
	return n.provider.Tracking(ctx, n.branch)
}

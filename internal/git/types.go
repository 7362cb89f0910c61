package git

import (
	"fmt"
	"strings"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

// Summary is the first message line, truncated the way list surfaces show it.
func (c Commit) Summary() string {
	firstLine := strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
	if len(firstLine) > 80 {
		firstLine = firstLine[:77] + "..."
	}
	return firstLine
}

func (c Commit) ShortHash() string {
	if len(c.Hash) < 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

type Branch struct {
	// Name is the short ref name; for remote branches it includes the remote
	// prefix (origin/main).
	Name     string
	Hash     string
	Remote   bool
	Current  bool
	Upstream string // tracking branch of a local branch, e.g. origin/main
}

// RemoteName returns the remote prefix of a remote branch, or "".
func (b Branch) RemoteName() string {
	if !b.Remote {
		return ""
	}
	name, _, ok := strings.Cut(b.Name, "/")
	if !ok {
		return ""
	}
	return name
}

// ShortName strips the remote prefix from a remote branch name.
func (b Branch) ShortName() string {
	if !b.Remote {
		return b.Name
	}
	_, rest, ok := strings.Cut(b.Name, "/")
	if !ok {
		return b.Name
	}
	return rest
}

type Remote struct {
	Name string
	URLs []string
}

type Tag struct {
	Name      string
	Hash      string // peeled commit hash for annotated tags
	Annotated bool
}

type Stash struct {
	Index   int // 0 is the most recent, as in stash@{0}
	Hash    string
	Message string
	When    time.Time
}

func (s Stash) Selector() string {
	return fmt.Sprintf("stash@{%d}", s.Index)
}

type Contributor struct {
	Name    string
	Email   string
	Commits int
	Latest  time.Time
}

type Worktree struct {
	Name   string
	Path   string
	Branch string // short branch name, "" when detached
	Hash   string
	Main   bool
}

type ReflogEntry struct {
	Hash     string
	Selector string // HEAD@{n}
	Message  string
	When     time.Time
}

// TrackingStatus is the ahead/behind relation of a branch to its upstream.
type TrackingStatus struct {
	Upstream string
	Ahead    int
	Behind   int
}

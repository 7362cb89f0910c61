package tree

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/thiagokokada/gitree-go/internal/git"
)

// fakeProvider is a func-field Provider; nil fields return empty results.
type fakeProvider struct {
	path string

	branchesFunc           func(ctx context.Context) ([]git.Branch, error)
	remoteBranchesFunc     func(ctx context.Context, remote string) ([]git.Branch, error)
	remotesFunc            func(ctx context.Context) ([]git.Remote, error)
	tagsFunc               func(ctx context.Context) ([]git.Tag, error)
	stashesFunc            func(ctx context.Context) ([]git.Stash, error)
	contributorsFunc       func(ctx context.Context) ([]git.Contributor, error)
	worktreesFunc          func(ctx context.Context) ([]git.Worktree, error)
	reflogEntriesFunc      func(ctx context.Context, limit int) ([]git.ReflogEntry, error)
	commitsFunc            func(ctx context.Context, ref string, skip, limit int) ([]git.Commit, bool, error)
	branchesContainingFunc func(ctx context.Context, ref string, remotes bool) ([]string, error)
	trackingFunc           func(ctx context.Context, branch git.Branch) (git.TrackingStatus, error)

	mu    sync.Mutex
	calls map[string]int
}

func (p *fakeProvider) record(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[op]++
}

func (p *fakeProvider) callCount(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

func (p *fakeProvider) RepoPath() string {
	if p.path == "" {
		return "/repo"
	}
	return p.path
}

func (p *fakeProvider) Branches(ctx context.Context) ([]git.Branch, error) {
	p.record("branches")
	if p.branchesFunc == nil {
		return nil, nil
	}
	return p.branchesFunc(ctx)
}

func (p *fakeProvider) RemoteBranches(ctx context.Context, remote string) ([]git.Branch, error) {
	p.record("remote-branches:" + remote)
	if p.remoteBranchesFunc == nil {
		return nil, nil
	}
	return p.remoteBranchesFunc(ctx, remote)
}

func (p *fakeProvider) Remotes(ctx context.Context) ([]git.Remote, error) {
	p.record("remotes")
	if p.remotesFunc == nil {
		return nil, nil
	}
	return p.remotesFunc(ctx)
}

func (p *fakeProvider) Tags(ctx context.Context) ([]git.Tag, error) {
	p.record("tags")
	if p.tagsFunc == nil {
		return nil, nil
	}
	return p.tagsFunc(ctx)
}

func (p *fakeProvider) Stashes(ctx context.Context) ([]git.Stash, error) {
	p.record("stashes")
	if p.stashesFunc == nil {
		return nil, nil
	}
	return p.stashesFunc(ctx)
}

func (p *fakeProvider) Contributors(ctx context.Context) ([]git.Contributor, error) {
	p.record("contributors")
	if p.contributorsFunc == nil {
		return nil, nil
	}
	return p.contributorsFunc(ctx)
}

func (p *fakeProvider) Worktrees(ctx context.Context) ([]git.Worktree, error) {
	p.record("worktrees")
	if p.worktreesFunc == nil {
		return nil, nil
	}
	return p.worktreesFunc(ctx)
}

func (p *fakeProvider) ReflogEntries(ctx context.Context, limit int) ([]git.ReflogEntry, error) {
	p.record("reflog")
	if p.reflogEntriesFunc == nil {
		return nil, nil
	}
	return p.reflogEntriesFunc(ctx, limit)
}

func (p *fakeProvider) Commits(ctx context.Context, ref string, skip, limit int) ([]git.Commit, bool, error) {
	p.record("commits:" + ref)
	if p.commitsFunc == nil {
		return nil, false, nil
	}
	return p.commitsFunc(ctx, ref, skip, limit)
}

func (p *fakeProvider) BranchesContaining(ctx context.Context, ref string, remotes bool) ([]string, error) {
	p.record("contains")
	if p.branchesContainingFunc == nil {
		return nil, nil
	}
	return p.branchesContainingFunc(ctx, ref, remotes)
}

func (p *fakeProvider) Tracking(ctx context.Context, branch git.Branch) (git.TrackingStatus, error) {
	p.record("tracking")
	if p.trackingFunc == nil {
		return git.TrackingStatus{}, nil
	}
	return p.trackingFunc(ctx, branch)
}

// pagedCommits builds a Commits func serving pages from a fixed history.
func pagedCommits(history []git.Commit) func(context.Context, string, int, int) ([]git.Commit, bool, error) {
	return func(_ context.Context, _ string, skip, limit int) ([]git.Commit, bool, error) {
		if skip >= len(history) {
			return nil, false, nil
		}
		end := skip + limit
		if end > len(history) {
			end = len(history)
		}
		return history[skip:end], end < len(history), nil
	}
}

func makeCommits(prefix string, n int) []git.Commit {
	commits := make([]git.Commit, n)
	for i := range commits {
		commits[i] = git.Commit{
			Hash:    fmt.Sprintf("%s%03d", prefix, i),
			Message: fmt.Sprintf("commit %s %d", prefix, i),
		}
	}
	return commits
}

// fakeHost records reveal calls in order. Injected errors simulate a broken
// or torn-down UI surface.
type fakeHost struct {
	mu        sync.Mutex
	calls     []string
	expandErr func(n Node) error
}

func (h *fakeHost) log(op string, n Node) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, op+" "+n.ID())
}

func (h *fakeHost) Expand(_ context.Context, n Node) error {
	if h.expandErr != nil {
		if err := h.expandErr(n); err != nil {
			return err
		}
	}
	h.log("expand", n)
	return nil
}

func (h *fakeHost) Select(_ context.Context, n Node) error {
	h.log("select", n)
	return nil
}

func (h *fakeHost) SetFocus(_ context.Context, n Node) error {
	h.log("focus", n)
	return nil
}

func (h *fakeHost) callLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *fakeHost) expandsOf(log []string) []string {
	var out []string
	for _, call := range log {
		if strings.HasPrefix(call, "expand ") {
			out = append(out, strings.TrimPrefix(call, "expand "))
		}
	}
	return out
}

func newTestView(p Provider, cfg Config) (*View, *fakeHost, Node) {
	host := &fakeHost{}
	v := NewView(host, cfg)
	repo := v.AddRepository(p)
	return v, host, repo
}

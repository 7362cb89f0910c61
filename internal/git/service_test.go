package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// testRepo is a small fixture: two commits on master, one on feature/x, a
// lightweight and an annotated tag, one remote with a tracking ref.
//
//	c1 (master, feature/x fork point, v1.0, origin/main)
//	├── c2 (feature/x, v2.0)
//	└── c3 (master)
type testRepo struct {
	svc  *Service
	path string
	c1   string
	c2   string
	c3   string
}

func initTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	commit := func(name, msg, author, email string, offset time.Duration) string {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(msg), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		sig := &object.Signature{Name: author, Email: email, When: base.Add(offset)}
		hash, err := wt.Commit(msg, &gitlib.CommitOptions{Author: sig, Committer: sig})
		if err != nil {
			t.Fatalf("commit %s: %v", msg, err)
		}
		return hash.String()
	}

	c1 := commit("a.txt", "first commit", "Alice", "alice@example.com", 0)
	if err := wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature/x"),
		Create: true,
	}); err != nil {
		t.Fatalf("checkout feature/x: %v", err)
	}
	c2 := commit("b.txt", "feature commit", "Bob", "bob@example.com", time.Minute)
	if err := wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
	}); err != nil {
		t.Fatalf("checkout master: %v", err)
	}
	c3 := commit("c.txt", "second on master", "Alice", "alice@example.com", 2*time.Minute)

	if _, err := repo.CreateTag("v1.0", plumbing.NewHash(c1), nil); err != nil {
		t.Fatalf("create tag v1.0: %v", err)
	}
	tagger := &object.Signature{Name: "Alice", Email: "alice@example.com", When: base.Add(3 * time.Minute)}
	if _, err := repo.CreateTag("v2.0", plumbing.NewHash(c2), &gitlib.CreateTagOptions{
		Tagger:  tagger,
		Message: "feature release",
	}); err != nil {
		t.Fatalf("create tag v2.0: %v", err)
	}

	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://example.com/fixture.git"},
	}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
	upstream := plumbing.NewHashReference(
		plumbing.NewRemoteReferenceName("origin", "main"), plumbing.NewHash(c1))
	if err := repo.Storer.SetReference(upstream); err != nil {
		t.Fatalf("set upstream ref: %v", err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Branches["master"] = &config.Branch{
		Name:   "master",
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName("main"),
	}
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}

	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	return &testRepo{svc: svc, path: svc.RepoPath(), c1: c1, c2: c2, c3: c3}
}

func TestBranches(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	branches, err := tr.svc.Branches(context.Background())
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %+v", branches)
	}
	// Sorted by name: feature/x, master.
	if branches[0].Name != "feature/x" || branches[0].Hash != tr.c2 {
		t.Fatalf("unexpected feature branch: %+v", branches[0])
	}
	if branches[0].Current {
		t.Fatalf("feature/x should not be current")
	}
	master := branches[1]
	if master.Name != "master" || master.Hash != tr.c3 {
		t.Fatalf("unexpected master branch: %+v", master)
	}
	if !master.Current {
		t.Fatalf("master should be current")
	}
	if master.Upstream != "origin/main" {
		t.Fatalf("expected upstream origin/main, got %q", master.Upstream)
	}
}

func TestRemoteBranchesSkipsOtherRemotes(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	branches, err := tr.svc.RemoteBranches(context.Background(), "origin")
	if err != nil {
		t.Fatalf("RemoteBranches: %v", err)
	}
	if len(branches) != 1 || branches[0].Name != "origin/main" {
		t.Fatalf("unexpected remote branches: %+v", branches)
	}
	if !branches[0].Remote {
		t.Fatalf("remote branch not flagged remote: %+v", branches[0])
	}
	if branches[0].RemoteName() != "origin" || branches[0].ShortName() != "main" {
		t.Fatalf("name split wrong: %+v", branches[0])
	}

	none, err := tr.svc.RemoteBranches(context.Background(), "upstream")
	if err != nil {
		t.Fatalf("RemoteBranches(upstream): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no branches for unknown remote, got %+v", none)
	}
}

func TestRemotes(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	remotes, err := tr.svc.Remotes(context.Background())
	if err != nil {
		t.Fatalf("Remotes: %v", err)
	}
	if len(remotes) != 1 || remotes[0].Name != "origin" {
		t.Fatalf("unexpected remotes: %+v", remotes)
	}
	if len(remotes[0].URLs) != 1 || remotes[0].URLs[0] != "https://example.com/fixture.git" {
		t.Fatalf("unexpected remote URLs: %+v", remotes[0].URLs)
	}
}

func TestTagsPeelAnnotated(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	tags, err := tr.svc.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %+v", tags)
	}
	if tags[0].Name != "v1.0" || tags[0].Hash != tr.c1 || tags[0].Annotated {
		t.Fatalf("unexpected lightweight tag: %+v", tags[0])
	}
	if tags[1].Name != "v2.0" || tags[1].Hash != tr.c2 || !tags[1].Annotated {
		t.Fatalf("annotated tag not peeled to commit: %+v", tags[1])
	}
}

func TestCommitsPagingReusesSession(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)
	ctx := context.Background()

	page1, hasMore, err := tr.svc.Commits(ctx, "master", 0, 1)
	if err != nil {
		t.Fatalf("Commits page 1: %v", err)
	}
	if len(page1) != 1 || page1[0].Hash != tr.c3 {
		t.Fatalf("unexpected first page: %+v", page1)
	}
	if !hasMore {
		t.Fatalf("expected more commits after first page")
	}

	page2, hasMore, err := tr.svc.Commits(ctx, "master", 1, 1)
	if err != nil {
		t.Fatalf("Commits page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].Hash != tr.c1 {
		t.Fatalf("unexpected second page: %+v", page2)
	}
	if hasMore {
		t.Fatalf("expected history exhausted after second page")
	}

	// A non-sequential skip resets the session and still lands correctly.
	again, _, err := tr.svc.Commits(ctx, "master", 0, 2)
	if err != nil {
		t.Fatalf("Commits restart: %v", err)
	}
	if len(again) != 2 || again[0].Hash != tr.c3 || again[1].Hash != tr.c1 {
		t.Fatalf("unexpected restarted page: %+v", again)
	}
}

func TestCommitsCancelled(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := tr.svc.Commits(ctx, "master", 0, 1); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestBranchesContaining(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)
	ctx := context.Background()

	names, err := tr.svc.BranchesContaining(ctx, tr.c2, false)
	if err != nil {
		t.Fatalf("BranchesContaining: %v", err)
	}
	if len(names) != 1 || names[0] != "feature/x" {
		t.Fatalf("expected only feature/x to contain c2, got %+v", names)
	}

	// The fork point is on every branch.
	names, err = tr.svc.BranchesContaining(ctx, tr.c1, false)
	if err != nil {
		t.Fatalf("BranchesContaining fork point: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected both branches to contain c1, got %+v", names)
	}

	remote, err := tr.svc.BranchesContaining(ctx, tr.c1, true)
	if err != nil {
		t.Fatalf("BranchesContaining remotes: %v", err)
	}
	if len(remote) != 1 || remote[0] != "origin/main" {
		t.Fatalf("expected origin/main, got %+v", remote)
	}
}

func TestTracking(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	branches, err := tr.svc.Branches(context.Background())
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	var master Branch
	for _, b := range branches {
		if b.Name == "master" {
			master = b
		}
	}
	status, err := tr.svc.Tracking(context.Background(), master)
	if err != nil {
		t.Fatalf("Tracking: %v", err)
	}
	// master has c3 on top of the upstream tip c1.
	if status.Upstream != "origin/main" || status.Ahead != 1 || status.Behind != 0 {
		t.Fatalf("unexpected tracking status: %+v", status)
	}

	if _, err := tr.svc.Tracking(context.Background(), Branch{Name: "feature/x"}); err == nil {
		t.Fatalf("expected error for branch without upstream")
	}
}

func TestContributors(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	contributors, err := tr.svc.Contributors(context.Background())
	if err != nil {
		t.Fatalf("Contributors: %v", err)
	}
	// HEAD is master: c3 and c1, both by Alice. Bob's commit is only on
	// feature/x and stays out of the window.
	if len(contributors) != 1 {
		t.Fatalf("expected 1 contributor, got %+v", contributors)
	}
	alice := contributors[0]
	if alice.Email != "alice@example.com" || alice.Commits != 2 {
		t.Fatalf("unexpected contributor: %+v", alice)
	}
}

func TestWorktrees(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)

	// Fabricate a linked worktree the way git lays it out on disk.
	wtDir := filepath.Join(tr.path, ".git", "worktrees", "hotfix")
	if err := os.MkdirAll(wtDir, 0o755); err != nil {
		t.Fatalf("mkdir worktree: %v", err)
	}
	gitdir := filepath.Join(tr.path, "..", "hotfix", ".git")
	if err := os.WriteFile(filepath.Join(wtDir, "gitdir"), []byte(gitdir+"\n"), 0o644); err != nil {
		t.Fatalf("write gitdir: %v", err)
	}
	head := "ref: refs/heads/feature/x\n"
	if err := os.WriteFile(filepath.Join(wtDir, "HEAD"), []byte(head), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}

	worktrees, err := tr.svc.Worktrees(context.Background())
	if err != nil {
		t.Fatalf("Worktrees: %v", err)
	}
	if len(worktrees) != 2 {
		t.Fatalf("expected main + linked worktree, got %+v", worktrees)
	}
	main := worktrees[0]
	if !main.Main || main.Path != tr.path || main.Branch != "master" || main.Hash != tr.c3 {
		t.Fatalf("unexpected main worktree: %+v", main)
	}
	linked := worktrees[1]
	if linked.Main || linked.Name != "hotfix" || linked.Branch != "feature/x" {
		t.Fatalf("unexpected linked worktree: %+v", linked)
	}
}

func TestInvalidateResetsSessions(t *testing.T) {
	t.Parallel()
	tr := initTestRepo(t)
	ctx := context.Background()

	if _, _, err := tr.svc.Commits(ctx, "master", 0, 1); err != nil {
		t.Fatalf("Commits: %v", err)
	}
	tr.svc.Invalidate()
	page, _, err := tr.svc.Commits(ctx, "master", 0, 2)
	if err != nil {
		t.Fatalf("Commits after invalidate: %v", err)
	}
	if len(page) != 2 || page[0].Hash != tr.c3 {
		t.Fatalf("unexpected page after invalidate: %+v", page)
	}
}

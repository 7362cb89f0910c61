package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Worktrees lists the main working tree plus any linked worktrees. go-git has
// no linked-worktree API, so the entries under .git/worktrees are read
// directly, the same way the stash reflog is.
func (s *Service) Worktrees(ctx context.Context) ([]Worktree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	main := Worktree{
		Name: filepath.Base(s.path),
		Path: s.path,
		Main: true,
	}
	if head, err := s.repo.Head(); err == nil {
		main.Hash = head.Hash().String()
		if head.Name().IsBranch() {
			main.Branch = head.Name().Short()
		}
	}
	worktrees := []Worktree{main}

	entriesDir := filepath.Join(s.gitDir(), "worktrees")
	entries, err := os.ReadDir(entriesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return worktrees, nil
		}
		return nil, fmt.Errorf("read worktrees: %w", err)
	}
	var linked []Worktree
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		wt, err := readLinkedWorktree(filepath.Join(entriesDir, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		linked = append(linked, wt)
	}
	sort.Slice(linked, func(i, j int) bool { return linked[i].Name < linked[j].Name })
	return append(worktrees, linked...), nil
}

func readLinkedWorktree(dir, name string) (Worktree, error) {
	wt := Worktree{Name: name}
	if data, err := os.ReadFile(filepath.Join(dir, "gitdir")); err == nil {
		// gitdir points at <worktree>/.git
		wt.Path = filepath.Dir(strings.TrimSpace(string(data)))
	}
	data, err := os.ReadFile(filepath.Join(dir, "HEAD"))
	if err != nil {
		return wt, fmt.Errorf("read worktree HEAD: %w", err)
	}
	head := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(head, "ref:"); ok {
		ref := plumbing.ReferenceName(strings.TrimSpace(target))
		if ref.IsBranch() {
			wt.Branch = ref.Short()
		}
	} else {
		wt.Hash = head
	}
	return wt, nil
}

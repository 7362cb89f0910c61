package git

import (
	"context"
	"fmt"
	"io"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// BranchesContaining resolves which branches have ref in their history, by a
// bounded ancestor walk from each branch tip. Local branches are consulted
// unless remotes is set, mirroring how commit searches widen their scope.
func (s *Service) BranchesContaining(ctx context.Context, ref string, remotes bool) ([]string, error) {
	var candidates []Branch
	var err error
	if remotes {
		candidates, err = s.RemoteBranches(ctx, "")
	} else {
		candidates, err = s.Branches(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := s.resolveRefLocked(ref)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, branch := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := s.ancestorOfLocked(ctx, plumbing.NewHash(branch.Hash), target)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, branch.Name)
		}
	}
	return names, nil
}

// Tracking computes the ahead/behind relation of a local branch to its
// upstream. Both walks are bounded; counts saturate at the window size.
func (s *Service) Tracking(ctx context.Context, branch Branch) (TrackingStatus, error) {
	if branch.Upstream == "" {
		return TrackingStatus{}, fmt.Errorf("branch %s has no upstream", branch.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.resolveRefLocked(branch.Name)
	if err != nil {
		return TrackingStatus{}, err
	}
	upstream, err := s.resolveRefLocked(branch.Upstream)
	if err != nil {
		return TrackingStatus{}, err
	}

	localSet, err := s.ancestorSetLocked(ctx, local)
	if err != nil {
		return TrackingStatus{}, err
	}
	upstreamSet, err := s.ancestorSetLocked(ctx, upstream)
	if err != nil {
		return TrackingStatus{}, err
	}

	status := TrackingStatus{Upstream: branch.Upstream}
	for hash := range localSet {
		if _, ok := upstreamSet[hash]; !ok {
			status.Ahead++
		}
	}
	for hash := range upstreamSet {
		if _, ok := localSet[hash]; !ok {
			status.Behind++
		}
	}
	return status, nil
}

func (s *Service) ancestorOfLocked(ctx context.Context, tip, target plumbing.Hash) (bool, error) {
	if tip == target {
		return true, nil
	}
	iter, err := s.repo.Log(&gitlib.LogOptions{From: tip})
	if err != nil {
		return false, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()
	for walked := 0; walked < containsWindow; walked++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		commit, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, fmt.Errorf("iterate commits: %w", err)
		}
		if commit.Hash == target {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) ancestorSetLocked(ctx context.Context, tip plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := s.repo.Log(&gitlib.LogOptions{From: tip})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()
	set := make(map[plumbing.Hash]struct{})
	for len(set) < containsWindow {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commit, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("iterate commits: %w", err)
		}
		set[commit.Hash] = struct{}{}
	}
	return set, nil
}

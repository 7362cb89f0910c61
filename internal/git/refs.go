package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Branches enumerates local branches, annotated with HEAD and upstream
// information from the repository config.
func (s *Service) Branches(ctx context.Context) ([]Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var headName string
	if head, err := s.repo.Head(); err == nil && head.Name().IsBranch() {
		headName = head.Name().Short()
	}
	cfg, err := s.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	iter, err := s.repo.Branches()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var branches []Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := ref.Name().Short()
		branch := Branch{
			Name:    name,
			Hash:    ref.Hash().String(),
			Current: name == headName,
		}
		if bc, ok := cfg.Branches[name]; ok && bc.Remote != "" && bc.Merge != "" {
			branch.Upstream = bc.Remote + "/" + bc.Merge.Short()
		}
		branches = append(branches, branch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// RemoteBranches enumerates remote-tracking branches, optionally restricted
// to a single remote. Symbolic <remote>/HEAD entries are skipped.
func (s *Service) RemoteBranches(ctx context.Context, remote string) ([]Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs, err := s.repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()

	var branches []Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if strings.HasSuffix(short, "/HEAD") {
			return nil
		}
		if remote != "" && !strings.HasPrefix(short, remote+"/") {
			return nil
		}
		branches = append(branches, Branch{
			Name:   short,
			Hash:   ref.Hash().String(),
			Remote: true,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

func (s *Service) Remotes(ctx context.Context) ([]Remote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remotes, err := s.repo.Remotes()
	if err != nil {
		return nil, err
	}
	out := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := r.Config()
		out = append(out, Remote{Name: cfg.Name, URLs: append([]string(nil), cfg.URLs...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Tags enumerates tags. Annotated tags are peeled so Hash always points at
// the tagged commit.
func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.repo.Tags()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tag := Tag{Name: ref.Name().Short(), Hash: ref.Hash().String()}
		if peeled, ok := s.peelTagCommitHashLocked(ref.Hash()); ok && peeled != ref.Hash() {
			tag.Hash = peeled.String()
			tag.Annotated = true
		}
		tags = append(tags, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *Service) peelTagCommitHashLocked(hash plumbing.Hash) (plumbing.Hash, bool) {
	if hash == plumbing.ZeroHash {
		return plumbing.ZeroHash, false
	}
	// Lightweight tags point directly at a commit; annotated tags point at a
	// tag object, possibly chained.
	if _, err := s.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := s.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

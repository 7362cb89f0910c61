package git

import (
	"context"
	"io"
	"sort"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Contributors aggregates commit authors over a bounded window of recent
// history, busiest first.
func (s *Service) Contributors(ctx context.Context) ([]Contributor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head, err := s.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, nil
		}
		return nil, err
	}
	iter, err := s.repo.Log(&gitlib.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	byEmail := make(map[string]*Contributor)
	for walked := 0; walked < contributorWindow; walked++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commit, err := iter.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		key := commit.Author.Email
		c, ok := byEmail[key]
		if !ok {
			c = &Contributor{Name: commit.Author.Name, Email: commit.Author.Email}
			byEmail[key] = c
		}
		c.Commits++
		if commit.Author.When.After(c.Latest) {
			c.Latest = commit.Author.When
			c.Name = commit.Author.Name
		}
	}

	out := make([]Contributor, 0, len(byEmail))
	for _, c := range byEmail {
		out = append(out, *c)
	}
	sortContributors(out)
	return out, nil
}

func sortContributors(contributors []Contributor) {
	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].Commits != contributors[j].Commits {
			return contributors[i].Commits > contributors[j].Commits
		}
		return contributors[i].Email < contributors[j].Email
	})
}

package git

import (
	"fmt"
	"path/filepath"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
)

const (
	// DefaultPageSize is the number of commits loaded per history page.
	DefaultPageSize = 50

	// contributorWindow bounds how much history contributor aggregation reads.
	contributorWindow = 1000

	// containsWindow bounds the ancestor walk used for branch containment and
	// tracking status resolution.
	containsWindow = 5000
)

// Service provides repository data for a single repository, backed by go-git.
type Service struct {
	// mu serializes operations that share iterators/state (history sessions).
	mu sync.Mutex

	repo     *gitlib.Repository
	path     string
	sessions map[string]*logSession
}

func Open(repoPath string) (*Service, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Service{repo: repo, path: abs, sessions: make(map[string]*logSession)}, nil
}

func (s *Service) RepoPath() string {
	return s.path
}

// Invalidate drops all history sessions, forcing the next page request to
// re-resolve its ref. Called when the repository changed on disk.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		session.close()
	}
	s.sessions = make(map[string]*logSession)
}

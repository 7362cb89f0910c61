package git

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commits returns one page of history starting at ref, skipping skip commits.
// hasMore reports whether at least one more commit follows the page. Pages for
// the same ref reuse a single iterator session, so sequential "load more"
// requests do not re-walk already returned history.
func (s *Service) Commits(ctx context.Context, ref string, skip, limit int) (commits []Commit, hasMore bool, err error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if skip < 0 {
		skip = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := s.resolveRefLocked(ref)
	if err != nil {
		return nil, false, err
	}
	session, err := s.ensureSessionLocked(ref, hash)
	if err != nil {
		return nil, false, err
	}
	if skip != session.returned {
		slog.Debug("history session reset",
			slog.String("ref", ref),
			slog.Int("requested_skip", skip),
			slog.Int("session_returned", session.returned),
		)
		session, err = s.resetSessionLocked(ref, hash)
		if err != nil {
			return nil, false, err
		}
		if err := session.discard(ctx, skip); err != nil {
			if err == io.EOF {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("iterate commits: %w", err)
		}
	}

	commits = make([]Commit, 0, limit)
	for len(commits) < limit {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		commit, err := session.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, false, fmt.Errorf("iterate commits: %w", err)
		}
		commits = append(commits, newCommit(commit))
	}
	hasMore, err = session.hasMore()
	if err != nil {
		return nil, false, err
	}
	slog.Debug("history page loaded",
		slog.String("ref", ref),
		slog.Int("skip", skip),
		slog.Int("returned", len(commits)),
		slog.Bool("has_more", hasMore),
	)
	return commits, hasMore, nil
}

// logSession is a lazily consumed commit iterator for one ref. The next
// commit is read ahead into buffered so hasMore never consumes a commit the
// caller has not seen.
type logSession struct {
	head plumbing.Hash
	iter object.CommitIter

	buffered  *object.Commit
	exhausted bool
	returned  int
}

func (s *Service) ensureSessionLocked(ref string, hash plumbing.Hash) (*logSession, error) {
	if session, ok := s.sessions[ref]; ok && session.head == hash {
		return session, nil
	}
	return s.resetSessionLocked(ref, hash)
}

func (s *Service) resetSessionLocked(ref string, hash plumbing.Hash) (*logSession, error) {
	if session, ok := s.sessions[ref]; ok {
		session.close()
		delete(s.sessions, ref)
	}
	iter, err := s.repo.Log(&gitlib.LogOptions{From: hash, Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	session := &logSession{head: hash, iter: iter}
	s.sessions[ref] = session
	slog.Debug("history session initialized", slog.String("ref", ref), slog.String("head", hash.String()))
	return session, nil
}

func (l *logSession) close() {
	if l == nil {
		return
	}
	if l.iter != nil {
		l.iter.Close()
	}
	l.iter = nil
	l.buffered = nil
	l.exhausted = true
}

func (l *logSession) hasMore() (bool, error) {
	if l.exhausted {
		return false, nil
	}
	if l.buffered != nil {
		return true, nil
	}
	commit, err := l.iter.Next()
	if err != nil {
		if err == io.EOF {
			l.exhausted = true
			return false, nil
		}
		return false, fmt.Errorf("iterate commits: %w", err)
	}
	l.buffered = commit
	return true, nil
}

func (l *logSession) next() (*object.Commit, error) {
	if l.exhausted {
		return nil, io.EOF
	}
	if l.buffered != nil {
		commit := l.buffered
		l.buffered = nil
		l.returned++
		return commit, nil
	}
	commit, err := l.iter.Next()
	if err != nil {
		if err == io.EOF {
			l.exhausted = true
		}
		return nil, err
	}
	l.returned++
	return commit, nil
}

func (l *logSession) discard(ctx context.Context, count int) error {
	for range count {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.next(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveRefLocked(ref string) (plumbing.Hash, error) {
	if ref == "" || ref == "HEAD" {
		head, err := s.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
		}
		return head.Hash(), nil
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return *hash, nil
}

func newCommit(c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       newSignature(c.Author),
		Committer:    newSignature(c.Committer),
		Message:      c.Message,
	}
}

func newSignature(sig object.Signature) Signature {
	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// go-git exposes only the tip of refs/stash and has no reflog API, so the
// stash list and the HEAD reflog are read from the log files directly.

type reflogLine struct {
	OldHash string
	NewHash string
	Name    string
	Email   string
	When    time.Time
	Message string
}

// Stashes lists stash entries, most recent first (index 0 is stash@{0}).
func (s *Service) Stashes(ctx context.Context) ([]Stash, error) {
	lines, err := s.readReflog(ctx, filepath.Join("logs", "refs", "stash"))
	if err != nil {
		return nil, err
	}
	stashes := make([]Stash, 0, len(lines))
	// Log files append, so the newest entry is the last line.
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		stashes = append(stashes, Stash{
			Index:   len(lines) - 1 - i,
			Hash:    line.NewHash,
			Message: line.Message,
			When:    line.When,
		})
	}
	return stashes, nil
}

// ReflogEntries lists the most recent HEAD movements, newest first, bounded
// by limit.
func (s *Service) ReflogEntries(ctx context.Context, limit int) ([]ReflogEntry, error) {
	lines, err := s.readReflog(ctx, filepath.Join("logs", "HEAD"))
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > len(lines) {
		limit = len(lines)
	}
	entries := make([]ReflogEntry, 0, limit)
	for i := 0; i < limit; i++ {
		line := lines[len(lines)-1-i]
		entries = append(entries, ReflogEntry{
			Hash:     line.NewHash,
			Selector: fmt.Sprintf("HEAD@{%d}", i),
			Message:  line.Message,
			When:     line.When,
		})
	}
	return entries, nil
}

func (s *Service) readReflog(ctx context.Context, rel string) ([]reflogLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.gitDir(), rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog %s: %w", rel, err)
	}
	return parseReflog(string(data))
}

// gitDir resolves the .git directory, following a gitdir pointer file when
// the repository is a linked worktree.
func (s *Service) gitDir() string {
	dir := filepath.Join(s.path, ".git")
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return dir
	}
	data, err := os.ReadFile(dir)
	if err != nil {
		return dir
	}
	line := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(line, "gitdir:"); ok {
		target = strings.TrimSpace(target)
		if !filepath.IsAbs(target) {
			target = filepath.Join(s.path, target)
		}
		return target
	}
	return dir
}

// parseReflog parses git reflog file content, oldest entry first. Lines have
// the shape:
//
//	<old> <new> <name> <<email>> <unix-ts> <tz>\t<message>
func parseReflog(raw string) ([]reflogLine, error) {
	var lines []reflogLine
	for ln, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		meta, message, _ := strings.Cut(line, "\t")
		fields := strings.Fields(meta)
		if len(fields) < 2 || len(fields[0]) != 40 || len(fields[1]) != 40 {
			return nil, fmt.Errorf("malformed reflog line %d: %q", ln+1, line)
		}
		entry := reflogLine{
			OldHash: fields[0],
			NewHash: fields[1],
			Message: message,
		}
		// Identity is "Name Parts <email> ts tz"; timestamp sits two fields
		// from the end when present.
		if len(fields) >= 4 {
			if ts, err := strconv.ParseInt(fields[len(fields)-2], 10, 64); err == nil {
				entry.When = time.Unix(ts, 0)
			}
			for i := 2; i < len(fields); i++ {
				if strings.HasPrefix(fields[i], "<") {
					entry.Email = strings.Trim(fields[i], "<>")
					entry.Name = strings.Join(fields[2:i], " ")
					break
				}
			}
		}
		lines = append(lines, entry)
	}
	return lines, nil
}

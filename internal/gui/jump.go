package gui

import (
	"fmt"
	"strconv"
	"strings"
)

type jumpKind uint8

const (
	jumpBranch jumpKind = iota
	jumpCommit
	jumpTag
	jumpRemote
	jumpStash
	jumpContributor
	jumpWorktree
	jumpNodeID
	jumpCompare
)

type jumpTarget struct {
	kind jumpKind
	arg  string
}

// parseJumpTarget parses the jump entry content: a kind keyword (or its
// first letter) followed by the target, e.g. "branch feature/x",
// "c 1a2b3c4d", "stash 0", "id repos/repo:x/tags/v1". The "compare"
// keyword pins a compare node for the named ref instead of jumping.
func parseJumpTarget(raw string) (jumpTarget, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) < 2 {
		return jumpTarget{}, fmt.Errorf("expected: <kind> <target>, e.g. %q", "branch main")
	}
	kindWord, arg := strings.ToLower(fields[0]), strings.Join(fields[1:], " ")
	switch kindWord {
	case "branch", "b":
		return jumpTarget{kind: jumpBranch, arg: arg}, nil
	case "commit", "c":
		return jumpTarget{kind: jumpCommit, arg: arg}, nil
	case "tag", "t":
		return jumpTarget{kind: jumpTag, arg: arg}, nil
	case "remote", "r":
		return jumpTarget{kind: jumpRemote, arg: arg}, nil
	case "stash", "s":
		if _, err := strconv.Atoi(arg); err != nil {
			return jumpTarget{}, fmt.Errorf("stash target must be an index: %q", arg)
		}
		return jumpTarget{kind: jumpStash, arg: arg}, nil
	case "contributor":
		return jumpTarget{kind: jumpContributor, arg: arg}, nil
	case "worktree", "w":
		return jumpTarget{kind: jumpWorktree, arg: arg}, nil
	case "id":
		return jumpTarget{kind: jumpNodeID, arg: arg}, nil
	case "compare":
		return jumpTarget{kind: jumpCompare, arg: arg}, nil
	default:
		return jumpTarget{}, fmt.Errorf("unknown target kind %q", kindWord)
	}
}

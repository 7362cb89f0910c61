package tree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func findNode(t *testing.T, v *View, id string) Node {
	t.Helper()
	m, err := v.FindByID(context.Background(), id, SearchOptions{})
	if err != nil {
		t.Fatalf("FindByID %s: %v", id, err)
	}
	if !m.Found() {
		t.Fatalf("node %s not found", id)
	}
	return m.Node
}

func TestRevealExpandsAncestorsInOrder(t *testing.T) {
	t.Parallel()
	v, host, repo := newTestView(twoBranchProvider(), Config{PageSize: 2})

	branchID := joinID(repo.ID(), "branches", "feature", "x")
	node := findNode(t, v, branchID)

	err := v.Reveal(context.Background(), node, RevealOptions{
		Select: true, Focus: true, Expand: ExpandNone,
	})
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	want := []string{
		"expand " + repo.ID(),
		"expand " + joinID(repo.ID(), "branches"),
		"expand " + joinID(repo.ID(), "branches", "feature"),
		"select " + branchID,
		"focus " + branchID,
	}
	got := host.callLog()
	if len(got) != len(want) {
		t.Fatalf("unexpected host calls: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestRevealExpandsTargetLevels(t *testing.T) {
	t.Parallel()
	v, host, repo := newTestView(twoBranchProvider(), Config{PageSize: 2})

	sectionID := joinID(repo.ID(), "branches")
	node := findNode(t, v, sectionID)

	if err := v.Reveal(context.Background(), node, RevealOptions{Expand: 1}); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	expands := host.expandsOf(host.callLog())
	want := []string{
		repo.ID(),
		sectionID,
		joinID(sectionID, "feature"),
		joinID(sectionID, "main"),
	}
	if len(expands) != len(want) {
		t.Fatalf("unexpected expands: %v", expands)
	}
	for i := range want {
		if expands[i] != want[i] {
			t.Fatalf("expand %d: got %q want %q", i, expands[i], want[i])
		}
	}
}

func TestRevealHostFailureStopsQuietly(t *testing.T) {
	t.Parallel()
	v, host, repo := newTestView(twoBranchProvider(), Config{PageSize: 2})
	sectionID := joinID(repo.ID(), "branches")
	host.expandErr = func(n Node) error {
		if n.ID() == sectionID {
			return errors.New("widget destroyed")
		}
		return nil
	}

	node := findNode(t, v, joinID(sectionID, "feature", "x"))
	err := v.Reveal(context.Background(), node, RevealOptions{Select: true, Expand: ExpandNone})
	if err != nil {
		t.Fatalf("host failure must not surface: %v", err)
	}
	for _, call := range host.callLog() {
		if strings.HasPrefix(call, "select") {
			t.Fatalf("selection applied after failed ancestor expansion: %v", host.callLog())
		}
		if call == "expand "+joinID(sectionID, "feature") {
			t.Fatalf("expansion continued past the failed ancestor: %v", host.callLog())
		}
	}
}

func TestRevealCancelledMidWalk(t *testing.T) {
	t.Parallel()
	v, host, repo := newTestView(twoBranchProvider(), Config{PageSize: 2})
	ctx, cancel := context.WithCancel(context.Background())
	sectionID := joinID(repo.ID(), "branches")
	host.expandErr = func(n Node) error {
		if n.ID() == sectionID {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	node := findNode(t, v, joinID(sectionID, "feature", "x"))
	if err := v.Reveal(ctx, node, RevealOptions{Select: true, Focus: true}); err != nil {
		t.Fatalf("cancellation must not surface: %v", err)
	}
	log := host.callLog()
	if len(log) != 1 || log[0] != "expand "+repo.ID() {
		t.Fatalf("unexpected calls after cancellation: %v", log)
	}
}

func TestRevealNilNode(t *testing.T) {
	t.Parallel()
	v, host, _ := newTestView(twoBranchProvider(), Config{})
	if err := v.Reveal(context.Background(), nil, RevealOptions{Select: true}); err != nil {
		t.Fatalf("Reveal(nil): %v", err)
	}
	if len(host.callLog()) != 0 {
		t.Fatalf("no host calls expected for nil node")
	}
}

func TestRevealZeroExpandOpensTarget(t *testing.T) {
	t.Parallel()
	v, host, repo := newTestView(twoBranchProvider(), Config{PageSize: 2})
	branchID := joinID(repo.ID(), "branches", "main")
	node := findNode(t, v, branchID)

	if err := v.Reveal(context.Background(), node, RevealOptions{}); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	expands := host.expandsOf(host.callLog())
	if len(expands) == 0 || expands[len(expands)-1] != branchID {
		t.Fatalf("target not expanded with Expand=0: %v", expands)
	}
}

func TestRevealOrderOnDeepCommit(t *testing.T) {
	t.Parallel()
	p := twoBranchProvider()
	v, host, repo := newTestView(p, Config{PageSize: 2})
	ctx := context.Background()

	branchID := joinID(repo.ID(), "branches", "feature", "x")
	commitID := joinID(branchID, "f001")
	m, err := v.FindByID(ctx, commitID, SearchOptions{})
	if err != nil || !m.Found() {
		t.Fatalf("FindByID: %v %+v", err, m)
	}
	if err := v.Reveal(ctx, m.Node, RevealOptions{Select: true, Expand: ExpandNone}); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	expands := host.expandsOf(host.callLog())
	// Every ancestor strictly precedes its descendant.
	pos := make(map[string]int, len(expands))
	for i, id := range expands {
		pos[id] = i
	}
	for _, id := range expands {
		parent := id[:strings.LastIndex(id, "/")]
		if at, ok := pos[parent]; ok && at > pos[id] {
			t.Fatalf("parent %s expanded after child %s: %v", parent, id, expands)
		}
	}
	last := host.callLog()[len(host.callLog())-1]
	if last != fmt.Sprintf("select %s", commitID) {
		t.Fatalf("selection must land on the target, got %q", last)
	}
}

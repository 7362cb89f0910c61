package tree

import (
	"context"
	"log/slog"
)

// Host is the UI surface the reveal orchestrator drives. Every call is a
// suspension point: it returns once the host has applied the change, so a
// child expansion is never issued before its parent is visible.
type Host interface {
	Expand(ctx context.Context, n Node) error
	Select(ctx context.Context, n Node) error
	SetFocus(ctx context.Context, n Node) error
}

// RevealOptions control what happens to a located node once its ancestor
// chain is expanded. Expand counts the extra levels below the node to
// pre-expand; zero expands exactly the node, ExpandNone leaves it collapsed.
type RevealOptions struct {
	Select bool
	Focus  bool
	Expand int
}

const ExpandNone = -1

// Reveal expands the path from the root down to node, then applies selection
// and focus to node itself. Ancestors are expanded strictly root-to-leaf and
// each expansion is awaited before the next is issued; expanding a child of a
// collapsed parent is undefined behavior in the host surface.
//
// A host failure mid-walk stops the reveal at the deepest successfully
// revealed ancestor: it is logged, not returned, since a partial reveal is
// still useful. Cancellation likewise ends the walk quietly.
func (v *View) Reveal(ctx context.Context, node Node, opts RevealOptions) error {
	if node == nil {
		return nil
	}

	// Collect leaf-to-root, then walk the chain backwards.
	var chain []Node
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		ancestor := chain[i]
		if ancestor.Kind() == KindRepositoriesRoot {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := v.host.Expand(ctx, ancestor); err != nil {
			if isContextErr(err) {
				return nil
			}
			slog.Error("reveal: expand ancestor failed",
				slog.String("id", ancestor.ID()),
				slog.Any("error", err),
			)
			return nil
		}
	}

	if opts.Expand >= 0 {
		if err := v.expandBelow(ctx, node, opts.Expand); err != nil {
			if isContextErr(err) {
				return nil
			}
			slog.Error("reveal: expand target failed",
				slog.String("id", node.ID()),
				slog.Any("error", err),
			)
			return nil
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if opts.Select {
		if err := v.host.Select(ctx, node); err != nil {
			if isContextErr(err) {
				return nil
			}
			slog.Error("reveal: select failed", slog.String("id", node.ID()), slog.Any("error", err))
			return nil
		}
	}
	if opts.Focus {
		if err := v.host.SetFocus(ctx, node); err != nil {
			if isContextErr(err) {
				return nil
			}
			slog.Error("reveal: focus failed", slog.String("id", node.ID()), slog.Any("error", err))
		}
	}
	return nil
}

// expandBelow expands node and up to levels of already reachable descendants
// beneath it, breadth-first, awaiting each host call.
func (v *View) expandBelow(ctx context.Context, node Node, levels int) error {
	frontier := []frontierItem{{node: node, depth: 0}}
	for len(frontier) > 0 {
		if ctx.Err() != nil {
			return nil
		}
		item := frontier[0]
		frontier = frontier[1:]
		if err := v.host.Expand(ctx, item.node); err != nil {
			return err
		}
		if item.depth >= levels {
			continue
		}
		kids, err := v.materialize(ctx, item.node)
		if err != nil {
			return err
		}
		for _, kid := range kids {
			frontier = append(frontier, frontierItem{node: kid, depth: item.depth + 1})
		}
	}
	return nil
}

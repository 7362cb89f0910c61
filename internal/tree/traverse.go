package tree

import (
	"context"
	"log/slog"
)

// Outcome is the terminal state of a search. A search that completes without
// a match and a search interrupted by cancellation are both ordinary results,
// not errors; only a failure of the underlying data provider surfaces as one.
type Outcome uint8

const (
	OutcomeNotFound Outcome = iota
	OutcomeFound
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "not-found"
	}
}

// Match is the result of a search. The node is only meaningful when the
// outcome is OutcomeFound; callers branch on the outcome, never on nil.
type Match struct {
	Node    Node
	Outcome Outcome
}

func (m Match) Found() bool { return m.Outcome == OutcomeFound }

func notFound() Match  { return Match{Outcome: OutcomeNotFound} }
func cancelled() Match { return Match{Outcome: OutcomeCancelled} }

// SearchOptions bound a traversal. The zero value walks everything reachable,
// which is almost never what a caller wants on a lazily produced tree; query
// builders exist to derive tight bounds per entity kind.
type SearchOptions struct {
	// MaxDepth is the hard depth bound counted from the search root. Nodes at
	// this depth are still tested, their children are not. Zero means no bound.
	MaxDepth int

	// CanTraverse decides descent into a node's subtree. The node itself has
	// already been tested when it is consulted. A nil predicate descends
	// everywhere.
	CanTraverse func(ctx context.Context, n Node) (bool, error)

	// AllowPaging lets the walk request additional pages from pageable nodes
	// once every materialized node has been exhausted without a match.
	AllowPaging bool
}

type frontierItem struct {
	node  Node
	depth int
}

// find walks the tree below root in breadth-first order, preserving each
// level's insertion order so the shallowest match in natural order wins
// deterministically. The root itself is never tested.
//
// The walk is iterative and single-threaded: every suspension point (child
// materialization, pagination, an async CanTraverse) re-checks ctx, and a
// cancellation observed there ends the walk as OutcomeCancelled. Partial
// materialization is kept; it stays valid even when unused.
func (v *View) find(ctx context.Context, root Node, match func(Node) bool, opts SearchOptions) (Match, error) {
	if root == nil {
		return notFound(), nil
	}
	if ctx.Err() != nil {
		return cancelled(), nil
	}
	children, err := v.materialize(ctx, root)
	if err != nil {
		return notFound(), err
	}

	frontier := make([]frontierItem, 0, len(children))
	for _, c := range children {
		frontier = append(frontier, frontierItem{node: c, depth: 1})
	}
	// Pageable nodes whose subtree has been walked without a match, in visit
	// order. Consulted only when the frontier drains and AllowPaging is set.
	var pageable []frontierItem
	visited := 0

	for {
		for len(frontier) > 0 {
			if ctx.Err() != nil {
				slog.Debug("tree search cancelled", slog.Int("visited", visited))
				return cancelled(), nil
			}
			item := frontier[0]
			frontier = frontier[1:]
			visited++

			if match(item.node) {
				slog.Debug("tree search matched",
					slog.String("id", item.node.ID()),
					slog.Int("visited", visited),
				)
				return Match{Node: item.node, Outcome: OutcomeFound}, nil
			}
			if opts.MaxDepth > 0 && item.depth >= opts.MaxDepth {
				continue
			}
			if opts.CanTraverse != nil {
				ok, err := opts.CanTraverse(ctx, item.node)
				if err != nil {
					return notFound(), err
				}
				if ctx.Err() != nil {
					return cancelled(), nil
				}
				if !ok {
					continue
				}
			}
			kids, err := v.materialize(ctx, item.node)
			if err != nil {
				return notFound(), err
			}
			if ctx.Err() != nil {
				return cancelled(), nil
			}
			for _, kid := range kids {
				frontier = append(frontier, frontierItem{node: kid, depth: item.depth + 1})
			}
			if opts.AllowPaging {
				if pager, ok := item.node.(Pager); ok && pager.HasMore() {
					pageable = append(pageable, item)
				}
			}
		}

		if !opts.AllowPaging || len(pageable) == 0 {
			return notFound(), nil
		}
		// Everything materialized is exhausted; extend the first pageable
		// subtree by one page and walk only the newly produced children.
		next := pageable[0]
		pageable = pageable[1:]
		pager := next.node.(Pager)
		if !pager.HasMore() {
			continue
		}
		before, err := v.materialize(ctx, next.node)
		if err != nil {
			return notFound(), err
		}
		known := len(before)
		if ctx.Err() != nil {
			return cancelled(), nil
		}
		slog.Debug("tree search paging", slog.String("id", next.node.ID()))
		if err := pager.LoadMore(ctx); err != nil {
			return notFound(), err
		}
		if ctx.Err() != nil {
			return cancelled(), nil
		}
		after, err := v.materialize(ctx, next.node)
		if err != nil {
			return notFound(), err
		}
		for _, kid := range after[known:] {
			frontier = append(frontier, frontierItem{node: kid, depth: next.depth + 1})
		}
		if pager.HasMore() {
			pageable = append(pageable, next)
		}
	}
}

// materialize produces a node's children, preferring instances already
// registered in the view index over freshly built ones. Materialization state
// is re-read here on every call rather than cached across suspension points.
func (v *View) materialize(ctx context.Context, n Node) ([]Node, error) {
	if ctx.Err() != nil {
		return nil, nil
	}
	children, err := n.Children(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Node, len(children))
	for i, child := range children {
		if indexed, ok := v.index.Get(child.ID()); ok {
			out[i] = indexed
			continue
		}
		v.index.Put(child)
		out[i] = child
	}
	return out, nil
}

package tree

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Config carries the knobs a View is created with.
type Config struct {
	// PageSize is the number of commits loaded per history page.
	PageSize int
	// ReflogLimit bounds the reflog section. Zero means DefaultReflogLimit.
	ReflogLimit int
}

const (
	DefaultPageSize    = 50
	DefaultReflogLimit = 50

	// autoLoadMaxPages caps how many pages a single search may force-load
	// from one node, keeping deep searches from walking unbounded history.
	autoLoadMaxPages = 100
)

// View owns one materialized tree: the root node, the index of materialized
// nodes and the host surface reveals are issued against. All five public
// operations (FindByID, Find, Reveal, the per-entity reveals and LoadMore)
// hang off it.
type View struct {
	index *Index
	host  Host
	root  *rootNode

	pageSize    int
	reflogLimit int

	// reveals serializes reveal-with-progress operations per command key so
	// two ancestor-expansion walks never race on the same host surface.
	reveals singleflight.Group
}

func NewView(host Host, cfg Config) *View {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ReflogLimit <= 0 {
		cfg.ReflogLimit = DefaultReflogLimit
	}
	v := &View{
		index:       NewIndex(),
		host:        host,
		pageSize:    cfg.PageSize,
		reflogLimit: cfg.ReflogLimit,
	}
	v.root = newRootNode(v)
	v.index.Put(v.root)
	return v
}

func (v *View) Root() Node    { return v.root }
func (v *View) Index() *Index { return v.index }

// AddRepository mounts a repository subtree under the root and returns its
// node.
func (v *View) AddRepository(p Provider) Node {
	return v.root.addRepository(p)
}

// RemoveRepository unmounts a repository and disposes everything
// materialized below it.
func (v *View) RemoveRepository(repoPath string) {
	v.root.removeRepository(repoPath)
}

// SetCompareRef pins a compare node for ref under the mounted repository, or
// removes it when ref is empty.
func (v *View) SetCompareRef(repoPath, ref string) error {
	repo, ok := v.root.repoByPath(repoPath)
	if !ok {
		return fmt.Errorf("repository %s not mounted", repoPath)
	}
	repo.SetCompareRef(ref)
	return nil
}

// Refresh drops every materialized child and index entry while keeping the
// mounted repositories, so the next access re-materializes from the provider.
func (v *View) Refresh() {
	v.index.Reset()
	v.index.Put(v.root)
	v.root.refresh()
}

// FindByID locates the node with the given id. When no pruning predicate is
// supplied the ancestry encoded in the id itself is used: only nodes lying on
// the path to the target are descended into.
func (v *View) FindByID(ctx context.Context, id string, opts SearchOptions) (Match, error) {
	if opts.CanTraverse == nil {
		opts.CanTraverse = func(_ context.Context, n Node) (bool, error) {
			return IsDescendant(id, n.ID()), nil
		}
	}
	return v.findChecked(ctx, func(n Node) bool { return n.ID() == id }, opts)
}

// Find locates the first node satisfying pred in breadth-first order.
func (v *View) Find(ctx context.Context, pred func(Node) bool, opts SearchOptions) (Match, error) {
	return v.findChecked(ctx, pred, opts)
}

func (v *View) findChecked(ctx context.Context, pred func(Node) bool, opts SearchOptions) (Match, error) {
	m, err := v.find(ctx, v.root, pred, opts)
	if err != nil {
		if isContextErr(err) {
			return cancelled(), nil
		}
		return notFound(), err
	}
	return m, nil
}

// LoadMore requests one more page of children for the identified node. It is
// a no-op when the node has no further pages.
func (v *View) LoadMore(ctx context.Context, id string) error {
	node, ok := v.index.Get(id)
	if !ok {
		m, err := v.FindByID(ctx, id, SearchOptions{})
		if err != nil {
			return err
		}
		if !m.Found() {
			return fmt.Errorf("load more: node %s not found", id)
		}
		node = m.Node
	}
	pager, ok := node.(Pager)
	if !ok || !pager.HasMore() {
		return nil
	}
	return pager.LoadMore(ctx)
}

// isContextErr distinguishes cooperative cancellation from provider failure
// when an error bubbles out of a materialization call.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

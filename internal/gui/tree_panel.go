package gui

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/thiagokokada/gitree-go/internal/git"
	"github.com/thiagokokada/gitree-go/internal/gui/tkutil"
	"github.com/thiagokokada/gitree-go/internal/tree"

	. "modernc.org/tk9.0"
	evalext "modernc.org/tk9.0/extensions/eval"
)

// Widget item ids equal node ids; the two synthetic rows below a node reuse
// its id as prefix so they stay inside the node's subtree.
const (
	pendingSuffix = "/__pending__"
	moreSuffix    = "/__more__"
)

func pendingRowID(id string) string { return id + pendingSuffix }
func moreRowID(id string) string    { return id + moreSuffix }

// nodeIsLeaf reports whether the panel should render the node without an
// expander.
func nodeIsLeaf(k tree.Kind) bool {
	switch k {
	case tree.KindCommit, tree.KindTag, tree.KindStash, tree.KindContributor,
		tree.KindWorktree, tree.KindReflogEntry, tree.KindBranchTrackingStatus:
		return true
	}
	return false
}

func nodeRowTag(n tree.Node) string {
	switch n.Kind() {
	case tree.KindBranches, tree.KindRemotes, tree.KindTags, tree.KindStashes,
		tree.KindContributors, tree.KindWorktrees, tree.KindReflog:
		return "section"
	case tree.KindBranch:
		if b, ok := n.(interface{ Branch() git.Branch }); ok && b.Branch().Current {
			return "currentBranch"
		}
	}
	return ""
}

// widgetParentID maps a node to its treeview parent item. Repository nodes
// hang off the invisible widget root; the repositories root itself is never
// rendered.
func widgetParentID(n tree.Node) string {
	parent := n.Parent()
	if parent == nil || parent.Kind() == tree.KindRepositoriesRoot {
		return ""
	}
	return parent.ID()
}

func (a *Controller) treeItemExists(id string) bool {
	if a.ui.treeView == nil || id == "" {
		return false
	}
	out, err := evalext.Eval(fmt.Sprintf("%s exists %s", a.ui.treeView, tclList(id)))
	if err != nil {
		log.Printf("tree exists %s: %v", id, err)
		return false
	}
	return strings.TrimSpace(out) == "1"
}

func (a *Controller) setItemOpen(n tree.Node, open bool) {
	id := n.ID()
	if n.Kind() == tree.KindRepositoriesRoot || !a.treeItemExists(id) {
		return
	}
	state := "false"
	if open {
		state = "true"
	}
	if _, err := tkutil.Eval("%s item %s -open %s", a.ui.treeView, tclList(id), state); err != nil {
		log.Printf("tree item -open %s: %v", id, err)
	}
	a.state.panel.setExpanded(id, open)
}

// ensureItem inserts the row for n, first making sure the whole ancestor
// chain is present. It never materializes children; callers that need the
// subtree rendered follow up with renderChildren.
func (a *Controller) ensureItem(n tree.Node) {
	if n == nil || n.Kind() == tree.KindRepositoriesRoot {
		return
	}
	if a.treeItemExists(n.ID()) {
		return
	}
	if parent := n.Parent(); parent != nil && parent.Kind() != tree.KindRepositoriesRoot {
		a.ensureItem(parent)
	}
	a.insertItem(n)
}

func (a *Controller) insertItem(n tree.Node) {
	id := n.ID()
	if a.treeItemExists(id) {
		return
	}
	vals := tclList(n.Kind().String())
	if tag := nodeRowTag(n); tag != "" {
		a.ui.treeView.Insert(widgetParentID(n), "end", Id(id), Txt(n.Name()), Values(vals), Tags(tag))
	} else {
		a.ui.treeView.Insert(widgetParentID(n), "end", Id(id), Txt(n.Name()), Values(vals))
	}
	if !nodeIsLeaf(n.Kind()) {
		// Placeholder child keeps the expander triangle visible until the
		// first real materialization replaces it.
		a.ui.treeView.Insert(id, "end", Id(pendingRowID(id)), Txt("Loading..."))
	}
}

// renderChildren replaces the placeholder below parent with the materialized
// children and maintains the trailing load-more row for paginated nodes.
// Children only ever grow, so rows already present are left alone and new
// ones are appended.
func (a *Controller) renderChildren(parent tree.Node, kids []tree.Node) {
	pid := parent.ID()
	if parent.Kind() == tree.KindRepositoriesRoot {
		pid = ""
	} else if !a.treeItemExists(pid) {
		a.ensureItem(parent)
	}
	if pid != "" {
		if ph := pendingRowID(pid); a.treeItemExists(ph) {
			a.ui.treeView.Delete(ph)
		}
		if more := moreRowID(pid); a.treeItemExists(more) {
			a.ui.treeView.Delete(more)
		}
	}
	for _, kid := range kids {
		a.insertItem(kid)
	}
	if pid == "" {
		return
	}
	if pager, ok := parent.(tree.Pager); ok && pager.HasMore() {
		a.ui.treeView.Insert(pid, "end",
			Id(moreRowID(pid)), Txt("Load more..."), Tags("loadMore"))
	}
}

// clearPanel drops every rendered row, used when a refresh invalidates the
// whole materialized tree.
func (a *Controller) clearPanel() {
	if a.ui.treeView == nil {
		return
	}
	if _, err := evalext.Eval(fmt.Sprintf("%s delete [%s children {}]", a.ui.treeView, a.ui.treeView)); err != nil {
		log.Printf("tree clear: %v", err)
	}
}

func (a *Controller) onTreeOpened() {
	id := a.focusedItem()
	if id == "" || strings.HasSuffix(id, pendingSuffix) || strings.HasSuffix(id, moreSuffix) {
		return
	}
	a.state.panel.setExpanded(id, true)
	if a.treeItemExists(pendingRowID(id)) {
		a.materializeAsync(id)
	}
}

func (a *Controller) onTreeClosed() {
	if id := a.focusedItem(); id != "" {
		a.state.panel.setExpanded(id, false)
	}
}

func (a *Controller) focusedItem() string {
	return strings.TrimSpace(tkutil.EvalOrEmpty("%s focus", a.ui.treeView))
}

// materializeAsync loads the children of the identified node off the UI
// goroutine and renders them once ready.
func (a *Controller) materializeAsync(id string) {
	node, ok := a.view.Index().Get(id)
	if !ok {
		return
	}
	go func() {
		kids, err := node.Children(context.Background())
		if err != nil {
			slog.Error("materialize children",
				slog.String("id", id),
				slog.Any("error", err),
			)
			a.setStatus(fmt.Sprintf("Failed to load %s: %v", node.Name(), err))
			return
		}
		PostEvent(func() {
			a.renderChildren(node, kids)
		}, false)
	}()
}

func (a *Controller) onTreeSelectionChanged() {
	sel := a.ui.treeView.Selection("")
	if len(sel) == 0 {
		return
	}
	id := sel[0]
	switch {
	case strings.HasSuffix(id, pendingSuffix):
		return
	case strings.HasSuffix(id, moreSuffix):
		a.loadMoreAsync(strings.TrimSuffix(id, moreSuffix))
		return
	}
	if node, ok := a.view.Index().Get(id); ok {
		a.setStatus(fmt.Sprintf("%s %s", node.Kind(), node.Name()))
	}
}

// loadMoreAsync fetches one more page for the identified node and appends
// the new rows.
func (a *Controller) loadMoreAsync(id string) {
	node, ok := a.view.Index().Get(id)
	if !ok {
		return
	}
	a.setStatus(fmt.Sprintf("Loading more of %s...", node.Name()))
	go func() {
		ctx := context.Background()
		if err := a.view.LoadMore(ctx, id); err != nil {
			slog.Error("load more", slog.String("id", id), slog.Any("error", err))
			a.setStatus(fmt.Sprintf("Failed to load more: %v", err))
			return
		}
		kids, err := node.Children(ctx)
		if err != nil {
			slog.Error("load more children", slog.String("id", id), slog.Any("error", err))
			return
		}
		PostEvent(func() {
			a.renderChildren(node, kids)
			a.setStatus(fmt.Sprintf("%s: %d items", node.Name(), len(kids)))
		}, false)
	}()
}

// renderRoots mounts the repository rows. Repository children are cheap to
// produce (no repository access), so this runs on the UI goroutine.
func (a *Controller) renderRoots() {
	kids, err := a.view.Root().Children(context.Background())
	if err != nil {
		slog.Error("render roots", slog.Any("error", err))
		return
	}
	a.renderChildren(a.view.Root(), kids)
}

// restoreLayout replays the persisted expansions, shallowest first so every
// parent is revealed before its children. Runs in its own goroutine; nodes
// that no longer exist are skipped silently.
func (a *Controller) restoreLayout(expanded map[string]bool) {
	ids := make([]string, 0, len(expanded))
	for id, open := range expanded {
		if open {
			ids = append(ids, id)
		}
	}
	sortByDepth(ids)
	ctx := context.Background()
	for _, id := range ids {
		m, err := a.view.FindByID(ctx, id, tree.SearchOptions{})
		if err != nil {
			slog.Debug("restore layout", slog.String("id", id), slog.Any("error", err))
			continue
		}
		if !m.Found() {
			continue
		}
		if err := a.view.Reveal(ctx, m.Node, tree.RevealOptions{Expand: 0}); err != nil {
			slog.Debug("restore layout reveal", slog.String("id", id), slog.Any("error", err))
		}
	}
}

func sortByDepth(ids []string) {
	depth := func(id string) int { return strings.Count(id, "/") }
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && depth(ids[j]) < depth(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

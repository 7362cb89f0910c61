package gui

import (
	"context"

	"github.com/thiagokokada/gitree-go/internal/tree"

	. "modernc.org/tk9.0"
)

// treeHost adapts the Tk treeview to the reveal orchestrator. Reveals run
// off the UI goroutine, so every widget mutation is marshalled through
// onUI, which blocks until the event loop has applied it. That hand-off is
// what makes each host call a real suspension point: the orchestrator never
// issues a child expansion before the parent row is on screen.
type treeHost struct {
	a *Controller
}

var _ tree.Host = (*treeHost)(nil)

func (h *treeHost) Expand(ctx context.Context, n tree.Node) error {
	// Materialization may hit the repository; do it before entering the UI
	// goroutine.
	kids, err := n.Children(ctx)
	if err != nil {
		return err
	}
	return h.a.onUI(ctx, func() {
		h.a.ensureItem(n)
		h.a.renderChildren(n, kids)
		h.a.setItemOpen(n, true)
	})
}

func (h *treeHost) Select(ctx context.Context, n tree.Node) error {
	return h.a.onUI(ctx, func() {
		h.a.ensureItem(n)
		h.a.ui.treeView.Selection("set", n.ID())
		h.a.ui.treeView.See(n.ID())
	})
}

func (h *treeHost) SetFocus(ctx context.Context, n tree.Node) error {
	return h.a.onUI(ctx, func() {
		h.a.ensureItem(n)
		h.a.ui.treeView.Focus(n.ID())
		h.a.ui.treeView.See(n.ID())
	})
}

// onUI runs fn on the Tk event loop and waits for it to finish. A cancelled
// context abandons the wait; the posted closure still runs, which is safe
// because every panel mutation is idempotent.
func (a *Controller) onUI(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	PostEvent(func() {
		defer close(done)
		fn()
	}, false)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

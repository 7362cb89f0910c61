package tree

import "sync"

// Index is the per-view registry of currently materialized nodes.
//
// It is deliberately weak: an entry exists only while the corresponding node
// has been produced for this view. Absence says nothing about the logical
// entity, so lookups are always an optimization, never an existence test.
type Index struct {
	mu    sync.Mutex
	nodes map[string]Node
}

func NewIndex() *Index {
	return &Index{nodes: make(map[string]Node)}
}

func (ix *Index) Get(id string) (Node, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n, ok := ix.nodes[id]
	return n, ok
}

func (ix *Index) Put(n Node) {
	if n == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.nodes[n.ID()] = n
}

func (ix *Index) Delete(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.nodes, id)
}

// DeleteSubtree removes a node and everything materialized below it, used
// when a subtree is collapsed away or a repository is removed from the view.
func (ix *Index) DeleteSubtree(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.nodes, id)
	for nodeID := range ix.nodes {
		if IsDescendant(nodeID, id) {
			delete(ix.nodes, nodeID)
		}
	}
}

func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.nodes)
}

func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.nodes = make(map[string]Node)
}

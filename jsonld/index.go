package jsonld

// Index maps node ids to nodes for reference resolution.
type Index struct {
	byID       map[string]Node
	duplicates []string
}

// Index builds an id index over the graph's top-level nodes. Nodes without
// an id are skipped; repeated ids keep the first node and are reported by
// Duplicates.
func (g *Graph) Index() *Index {
	idx := &Index{byID: make(map[string]Node, len(g.Nodes))}
	for _, n := range g.Nodes {
		id := n.NodeID()
		if id == "" {
			continue
		}
		if _, seen := idx.byID[id]; seen {
			idx.duplicates = append(idx.duplicates, id)
			continue
		}
		idx.byID[id] = n
	}
	return idx
}

// Lookup returns the node with the given id.
func (idx *Index) Lookup(id string) (Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// Duplicates lists ids that appeared more than once, in encounter order.
func (idx *Index) Duplicates() []string {
	return idx.duplicates
}

// Len returns the number of distinct ids.
func (idx *Index) Len() int {
	return len(idx.byID)
}

// Resolve follows ref and returns the target when it has type T.
func Resolve[T Node](idx *Index, ref *Ref) (T, bool) {
	var zero T
	if ref == nil || ref.ID == "" {
		return zero, false
	}
	n, ok := idx.byID[ref.ID]
	if !ok {
		return zero, false
	}
	t, ok := n.(T)
	return t, ok
}

// FindFirst returns the first node in the graph of type T.
func FindFirst[T Node](g *Graph) (T, bool) {
	for _, n := range g.Nodes {
		if t, ok := n.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns every node in the graph of type T.
func FindAll[T Node](g *Graph) []T {
	var out []T
	for _, n := range g.Nodes {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

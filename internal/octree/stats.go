package octree

// Stats summarizes the shape of a built tree.
type Stats struct {
	Vertices          int `json:"vertices"`
	Nodes             int `json:"nodes"`
	Leaves            int `json:"leaves"`
	EmptyLeaves       int `json:"empty_leaves"`
	MultiVertexLeaves int `json:"multi_vertex_leaves"`
	Depth             int `json:"depth"`
	Truncated         int `json:"truncated"`
}

// Stats walks the whole tree.
func (t *Tree) Stats() Stats {
	s := Stats{
		Vertices:  len(t.verts),
		Truncated: t.truncated,
	}
	t.Walk(func(n *Node) bool {
		s.Nodes++
		if n.Depth > s.Depth {
			s.Depth = n.Depth
		}
		if !n.leaf {
			return true
		}
		s.Leaves++
		switch {
		case len(n.Indices) == 0:
			s.EmptyLeaves++
		case len(n.Indices) > 1:
			s.MultiVertexLeaves++
		}
		return true
	})
	return s
}

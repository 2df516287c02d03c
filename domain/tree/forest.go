package tree

// Visitor is called for each node during a walk with the node's depth
// (roots are at depth 0). Returning false stops the walk.
type Visitor func(n *Node, depth int) bool

type frame struct {
	node   *Node
	parent *Node
	depth  int
}

// Walk visits the forest in pre-order using an explicit stack.
func Walk(forest []*Node, visit Visitor) {
	stack := pushReversed(nil, forest, nil, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(f.node, f.depth) {
			return
		}
		stack = pushReversed(stack, f.node.Children, f.node, f.depth+1)
	}
}

func pushReversed(stack []frame, nodes []*Node, parent *Node, depth int) []frame {
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: nodes[i], parent: parent, depth: depth})
	}
	return stack
}

// locate finds the node with the given id and its parent (nil for roots).
func locate(forest []*Node, id string) (node, parent *Node) {
	stack := pushReversed(nil, forest, nil, 0)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node.ID == id {
			return f.node, f.parent
		}
		stack = pushReversed(stack, f.node.Children, f.node, f.depth+1)
	}
	return nil, nil
}

// Find returns the node with the given id, or nil.
func Find(forest []*Node, id string) *Node {
	n, _ := locate(forest, id)
	return n
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	count := 0
	Walk(forest, func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the forest; an empty forest has
// depth 0.
func Depth(forest []*Node) int {
	max := 0
	Walk(forest, func(_ *Node, depth int) bool {
		if depth+1 > max {
			max = depth + 1
		}
		return true
	})
	return max
}

// SubtreeIDs returns the ids of n and all of its descendants in pre-order.
func SubtreeIDs(n *Node) []string {
	if n == nil {
		return nil
	}
	ids := make([]string, 0)
	Walk([]*Node{n}, func(m *Node, _ int) bool {
		ids = append(ids, m.ID)
		return true
	})
	return ids
}

// Prune removes the node with the given id together with its subtree.
// It returns the resulting roots and the removed ids in pre-order. The
// forest is modified in place; an unknown id leaves it untouched and
// returns no ids.
func Prune(forest []*Node, id string) ([]*Node, []string) {
	node, parent := locate(forest, id)
	if node == nil {
		return forest, nil
	}

	removed := SubtreeIDs(node)
	if parent == nil {
		return removeChild(forest, node), removed
	}
	parent.Children = removeChild(parent.Children, node)
	return forest, removed
}

// Update applies fn to the node with the given id and reports whether it
// was found.
func Update(forest []*Node, id string, fn func(n *Node)) bool {
	n := Find(forest, id)
	if n == nil {
		return false
	}
	fn(n)
	return true
}

// Append adds child under the node with parentID, or as a root when
// parentID is empty or unknown. It returns the resulting roots.
func Append(forest []*Node, parentID string, child *Node) []*Node {
	if child.Children == nil {
		child.Children = []*Node{}
	}
	if parentID != "" {
		if parent := Find(forest, parentID); parent != nil {
			parent.Children = append(parent.Children, child)
			return forest
		}
	}
	return append(forest, child)
}

// Clone returns a deep copy of the forest.
func Clone(forest []*Node) []*Node {
	type pair struct {
		src *Node
		dst *Node
	}

	roots := make([]*Node, len(forest))
	stack := make([]pair, 0, len(forest))
	for i, n := range forest {
		roots[i] = shallowCopy(n)
		stack = append(stack, pair{src: n, dst: roots[i]})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, c := range p.src.Children {
			p.dst.Children[i] = shallowCopy(c)
			stack = append(stack, pair{src: c, dst: p.dst.Children[i]})
		}
	}
	return roots
}

func shallowCopy(n *Node) *Node {
	cp := *n
	cp.Children = nil
	return &cp
}

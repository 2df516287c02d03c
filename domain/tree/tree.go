// Package tree assembles flat node records into an ordered forest and
// provides iterative helpers over the result.
package tree

import (
	"encoding/json"
	"time"
)

// Record is the flat form of a node as returned by a store: an identity,
// a label, an optional parent reference and a creation time.
type Record struct {
	ID         string
	Name       string
	ParentID   string
	CreatedAt  time.Time
	IsExpanded bool
}

// Node is an assembled tree node. Children keep the input order of the
// records they came from. Nodes are ephemeral projections of store state
// and are never written back.
type Node struct {
	ID         string
	Name       string
	ParentID   string
	CreatedAt  time.Time
	IsExpanded bool
	Children   []*Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

type nodeJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Parent     *string   `json:"parent"`
	CreatedAt  time.Time `json:"createdAt"`
	IsExpanded bool      `json:"isExpanded,omitempty"`
	Children   []*Node   `json:"children"`
}

// MarshalJSON renders the node with a null parent for roots and an empty
// children array for leaves.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		ID:         n.ID,
		Name:       n.Name,
		CreatedAt:  n.CreatedAt,
		IsExpanded: n.IsExpanded,
		Children:   n.Children,
	}
	if n.ParentID != "" {
		parent := n.ParentID
		out.Parent = &parent
	}
	if out.Children == nil {
		out.Children = []*Node{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	n.ID = in.ID
	n.Name = in.Name
	n.ParentID = ""
	if in.Parent != nil {
		n.ParentID = *in.Parent
	}
	n.CreatedAt = in.CreatedAt
	n.IsExpanded = in.IsExpanded
	n.Children = in.Children
	if n.Children == nil {
		n.Children = []*Node{}
	}
	return nil
}

// Build assembles records into a forest in two linear passes.
//
// Roots and every children list keep the relative input order of their
// records. A record whose parent is absent from the input, or that names
// itself as parent, becomes a root. Records with an empty id are skipped
// and for a duplicated id only the first occurrence is kept.
//
// Records caught in a parent cycle cannot hang below any root. Each such
// cycle is broken by promoting its earliest record (in input order) to a
// root, so every distinct id appears exactly once in the result. Promoted
// roots follow the regular ones.
func Build(records []Record) []*Node {
	index := make(map[string]*Node, len(records))
	position := make(map[*Node]int, len(records))
	ordered := make([]*Node, 0, len(records))

	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, exists := index[r.ID]; exists {
			continue
		}
		n := &Node{
			ID:         r.ID,
			Name:       r.Name,
			ParentID:   r.ParentID,
			CreatedAt:  r.CreatedAt,
			IsExpanded: r.IsExpanded,
			Children:   []*Node{},
		}
		index[r.ID] = n
		position[n] = len(ordered)
		ordered = append(ordered, n)
	}

	roots := make([]*Node, 0)
	for _, n := range ordered {
		parent, ok := index[n.ParentID]
		if n.ParentID == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := make(map[*Node]bool, len(ordered))
	markReachable(roots, reached)
	if len(reached) == len(ordered) {
		return roots
	}

	for _, n := range ordered {
		if reached[n] {
			continue
		}
		head := cycleHead(n, index, position)
		parent := index[head.ParentID]
		parent.Children = removeChild(parent.Children, head)
		roots = append(roots, head)
		markReachable([]*Node{head}, reached)
	}

	return roots
}

// markReachable records every node below the given roots.
func markReachable(roots []*Node, reached map[*Node]bool) {
	stack := make([]*Node, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[n] {
			continue
		}
		reached[n] = true
		stack = append(stack, n.Children...)
	}
}

// cycleHead follows parent links from an unreachable node until a node
// repeats, then returns the earliest cycle member in input order.
func cycleHead(start *Node, index map[string]*Node, position map[*Node]int) *Node {
	seen := make(map[*Node]bool)
	n := start
	for !seen[n] {
		seen[n] = true
		n = index[n.ParentID]
	}

	head := n
	for m := index[n.ParentID]; m != n; m = index[m.ParentID] {
		if position[m] < position[head] {
			head = m
		}
	}
	return head
}

func removeChild(children []*Node, child *Node) []*Node {
	for i, c := range children {
		if c == child {
			return append(children[:i:i], children[i+1:]...)
		}
	}
	return children
}

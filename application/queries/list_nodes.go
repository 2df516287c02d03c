package queries

// ListNodesQuery returns every node as a flat list in creation order
type ListNodesQuery struct{}

// Validate validates the ListNodesQuery
func (q ListNodesQuery) Validate() error {
	return nil
}

// GetTreeQuery returns every node assembled into a forest
type GetTreeQuery struct{}

// Validate validates the GetTreeQuery
func (q GetTreeQuery) Validate() error {
	return nil
}

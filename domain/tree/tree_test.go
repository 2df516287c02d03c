package tree

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(id, name, parent string, offset int) Record {
	return Record{ID: id, Name: name, ParentID: parent, CreatedAt: base.Add(time.Duration(offset) * time.Second)}
}

func childIDs(n *Node) []string {
	ids := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

func rootIDs(forest []*Node) []string {
	ids := make([]string, 0, len(forest))
	for _, n := range forest {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		records   []Record
		wantRoots []string
		children  map[string][]string
	}{
		{
			name:      "empty input",
			records:   nil,
			wantRoots: []string{},
		},
		{
			name:      "single root",
			records:   []Record{rec("a", "A", "", 0)},
			wantRoots: []string{"a"},
			children:  map[string][]string{"a": {}},
		},
		{
			name: "docs and report",
			records: []Record{
				rec("1", "Docs", "", 0),
				rec("2", "Report", "1", 1),
			},
			wantRoots: []string{"1"},
			children:  map[string][]string{"1": {"2"}, "2": {}},
		},
		{
			name: "child listed before parent",
			records: []Record{
				rec("c", "Child", "p", 1),
				rec("p", "Parent", "", 0),
			},
			wantRoots: []string{"p"},
			children:  map[string][]string{"p": {"c"}},
		},
		{
			name: "dangling parent becomes root",
			records: []Record{
				rec("a", "A", "", 0),
				rec("b", "B", "ghost", 1),
			},
			wantRoots: []string{"a", "b"},
		},
		{
			name: "self parent becomes root",
			records: []Record{
				rec("a", "A", "a", 0),
			},
			wantRoots: []string{"a"},
		},
		{
			name: "children keep input order",
			records: []Record{
				rec("r", "Root", "", 0),
				rec("z", "Z", "r", 1),
				rec("a", "A", "r", 2),
				rec("m", "M", "r", 3),
			},
			wantRoots: []string{"r"},
			children:  map[string][]string{"r": {"z", "a", "m"}},
		},
		{
			name: "duplicate id keeps first",
			records: []Record{
				rec("a", "First", "", 0),
				rec("a", "Second", "", 1),
			},
			wantRoots: []string{"a"},
		},
		{
			name: "empty id skipped",
			records: []Record{
				rec("", "Nameless", "", 0),
				rec("a", "A", "", 1),
			},
			wantRoots: []string{"a"},
		},
		{
			name: "deep chain",
			records: []Record{
				rec("1", "L1", "", 0),
				rec("2", "L2", "1", 1),
				rec("3", "L3", "2", 2),
				rec("4", "L4", "3", 3),
			},
			wantRoots: []string{"1"},
			children:  map[string][]string{"1": {"2"}, "2": {"3"}, "3": {"4"}, "4": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			forest := Build(tt.records)

			// Assert
			assert.Equal(t, tt.wantRoots, rootIDs(forest))
			for id, want := range tt.children {
				n := Find(forest, id)
				require.NotNil(t, n, "node %s", id)
				assert.Equal(t, want, childIDs(n), "children of %s", id)
			}
		})
	}
}

func TestBuild_CountMatchesDistinctRecords(t *testing.T) {
	// Arrange
	records := []Record{
		rec("1", "a", "", 0),
		rec("2", "b", "1", 1),
		rec("3", "c", "1", 2),
		rec("4", "d", "3", 3),
		rec("5", "e", "missing", 4),
		rec("6", "f", "", 5),
	}

	// Act
	forest := Build(records)

	// Assert
	assert.Equal(t, len(records), Count(forest))
	for _, r := range records {
		n := Find(forest, r.ID)
		require.NotNil(t, n)
		for _, c := range n.Children {
			assert.Equal(t, r.ID, c.ParentID)
		}
	}
}

func TestBuild_BreaksParentCycles(t *testing.T) {
	// Arrange: parent links y -> x -> z -> y, with w hanging below y
	records := []Record{
		rec("root", "Root", "", 0),
		rec("w", "W", "y", 1),
		rec("y", "Y", "x", 2),
		rec("x", "X", "z", 3),
		rec("z", "Z", "y", 4),
	}

	// Act
	forest := Build(records)

	// Assert
	assert.Equal(t, 5, Count(forest))
	assert.Equal(t, []string{"root", "y"}, rootIDs(forest))
	assert.Equal(t, []string{"w", "z"}, childIDs(Find(forest, "y")))
	assert.Equal(t, []string{"x"}, childIDs(Find(forest, "z")))
	assert.Empty(t, Find(forest, "x").Children)
}

func TestBuild_TwoNodeCycle(t *testing.T) {
	forest := Build([]Record{rec("a", "A", "b", 0), rec("b", "B", "a", 1)})

	assert.Equal(t, []string{"a"}, rootIDs(forest))
	assert.Equal(t, []string{"b"}, childIDs(forest[0]))
	assert.Equal(t, 2, Count(forest))
}

func TestBuild_IsIdempotent(t *testing.T) {
	records := []Record{
		rec("1", "Docs", "", 0),
		rec("2", "Report", "1", 1),
		rec("3", "Draft", "2", 2),
		rec("4", "Notes", "", 3),
	}

	first := Build(records)
	second := Build(records)

	assert.Equal(t, first, second)
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	records := []Record{rec("1", "Docs", "", 0)}

	forest := Build(records)
	forest[0].Name = "Changed"

	assert.Equal(t, "Docs", records[0].Name)
}

func TestBuild_CarriesExpansionFlag(t *testing.T) {
	r := rec("1", "Docs", "", 0)
	r.IsExpanded = true

	forest := Build([]Record{r, rec("2", "Report", "1", 1)})

	assert.True(t, forest[0].IsExpanded)
	assert.False(t, forest[0].Children[0].IsExpanded)
}

func TestNode_MarshalJSON(t *testing.T) {
	forest := Build([]Record{rec("1", "Docs", "", 0), rec("2", "Report", "1", 1)})

	data, err := json.Marshal(forest)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Nil(t, decoded[0]["parent"])
	assert.Equal(t, "Docs", decoded[0]["name"])

	children := decoded[0]["children"].([]interface{})
	require.Len(t, children, 1)
	child := children[0].(map[string]interface{})
	assert.Equal(t, "1", child["parent"])
	assert.Equal(t, []interface{}{}, child["children"])
	assert.NotContains(t, child, "isExpanded")
}

func TestNode_UnmarshalJSON(t *testing.T) {
	forest := Build([]Record{rec("1", "Docs", "", 0), rec("2", "Report", "1", 1)})
	data, err := json.Marshal(forest)
	require.NoError(t, err)

	var decoded []*Node
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, rootIDs(forest), rootIDs(decoded))
	require.Len(t, decoded[0].Children, 1)
	report := decoded[0].Children[0]
	assert.Equal(t, "2", report.ID)
	assert.Equal(t, "Report", report.Name)
	assert.Equal(t, "1", report.ParentID)
	assert.True(t, forest[0].Children[0].CreatedAt.Equal(report.CreatedAt))
	assert.True(t, report.IsLeaf())
	assert.False(t, decoded[0].IsLeaf())
}

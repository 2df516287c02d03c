package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/application/ports"
	"nodetree/domain/core/valueobjects"
)

func sequentialIDs() func() valueobjects.NodeID {
	n := 0
	return func() valueobjects.NodeID {
		n++
		return valueobjects.OptionalNodeID(fmt.Sprintf("n%d", n))
	}
}

func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func newStore() *NodeStore {
	return NewNodeStore(WithIDGenerator(sequentialIDs()), WithClock(tickingClock()))
}

func TestNodeStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	docs, err := s.Create(ctx, "Docs", valueobjects.NodeID{})
	require.NoError(t, err)
	report, err := s.Create(ctx, "Report", docs.ID())
	require.NoError(t, err)

	assert.Equal(t, "n1", docs.ID().String())
	assert.True(t, report.CreatedAt().After(docs.CreatedAt()))

	found, err := s.FindByID(ctx, report.ID())
	require.NoError(t, err)
	assert.Equal(t, "Report", found.Name())
	assert.Equal(t, docs.ID(), found.Parent())

	_, err = s.FindByID(ctx, valueobjects.OptionalNodeID("nope"))
	assert.ErrorIs(t, err, ports.ErrNodeNotFound)
}

func TestNodeStore_FindAllKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	for _, name := range []string{"c", "a", "b"} {
		_, err := s.Create(ctx, name, valueobjects.NodeID{})
		require.NoError(t, err)
	}

	nodes, err := s.FindAll(ctx)

	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "c", nodes[0].Name())
	assert.Equal(t, "a", nodes[1].Name())
	assert.Equal(t, "b", nodes[2].Name())
}

func TestNodeStore_FindChildren(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	root, _ := s.Create(ctx, "root", valueobjects.NodeID{})
	_, _ = s.Create(ctx, "x", root.ID())
	other, _ := s.Create(ctx, "other", valueobjects.NodeID{})
	_, _ = s.Create(ctx, "y", root.ID())
	_, _ = s.Create(ctx, "z", other.ID())

	children, err := s.FindChildren(ctx, root.ID())
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "x", children[0].Name())
	assert.Equal(t, "y", children[1].Name())

	none, err := s.FindChildren(ctx, valueobjects.OptionalNodeID("missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNodeStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	docs, _ := s.Create(ctx, "Docs", valueobjects.NodeID{})

	require.NoError(t, s.DeleteByID(ctx, docs.ID()))
	require.NoError(t, s.DeleteByID(ctx, docs.ID()))

	assert.Equal(t, 0, s.Len())
}

func TestNodeStore_Rename(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	docs, _ := s.Create(ctx, "Docs", valueobjects.NodeID{})

	renamed, err := s.Rename(ctx, docs.ID(), "Documents")
	require.NoError(t, err)
	assert.Equal(t, "Documents", renamed.Name())
	assert.Equal(t, docs.CreatedAt(), renamed.CreatedAt())

	_, err = s.Rename(ctx, valueobjects.OptionalNodeID("missing"), "x")
	assert.ErrorIs(t, err, ports.ErrNodeNotFound)
}

func TestNodeStore_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStore()

	_, err := s.Create(ctx, "Docs", valueobjects.NodeID{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	assert.Equal(t, 0, s.Len())
}

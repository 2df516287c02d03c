package projection

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nodetree/application/dto"
	"nodetree/client/nodesapi"
	"nodetree/domain/tree"
	"nodetree/infrastructure/config"
	"nodetree/infrastructure/di"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) List(ctx context.Context) ([]dto.NodeResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NodeResponse), args.Error(1)
}

func (m *mockAPI) Create(ctx context.Context, name, parent string) (*dto.NodeResponse, error) {
	args := m.Called(ctx, name, parent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NodeResponse), args.Error(1)
}

func (m *mockAPI) Rename(ctx context.Context, id, name string) (*dto.NodeResponse, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NodeResponse), args.Error(1)
}

func (m *mockAPI) Delete(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func node(id, name, parent string, offset int) dto.NodeResponse {
	n := dto.NodeResponse{ID: id, Name: name, CreatedAt: baseTime.Add(time.Duration(offset) * time.Second)}
	if parent != "" {
		n.Parent = &parent
	}
	return n
}

func loaded(t *testing.T, nodes ...dto.NodeResponse) (*Projection, *mockAPI) {
	t.Helper()
	api := new(mockAPI)
	api.On("List", mock.Anything).Return(nodes, nil).Once()

	p := New(api, zap.NewNop())
	require.NoError(t, p.Load(context.Background()))
	return p, api
}

func TestLoad_BuildsForest(t *testing.T) {
	p, api := loaded(t,
		node("docs", "Docs", "", 0),
		node("report", "Report", "docs", 1),
		node("stray", "Stray", "gone", 2),
	)
	api.AssertExpectations(t)

	forest := p.Forest()
	require.Len(t, forest, 2)
	assert.Equal(t, "docs", forest[0].ID)
	assert.Equal(t, "stray", forest[1].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "report", forest[0].Children[0].ID)
	assert.NoError(t, p.Err())
	assert.False(t, p.Loading())
}

func TestLoad_FailureClearsForest(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	api.On("List", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	err := p.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, p.Forest())
	assert.ErrorContains(t, p.Err(), "connection refused")
}

func TestAddNode_RootAppendsWithoutReload(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	created := node("notes", "Notes", "", 1)
	api.On("Create", mock.Anything, "Notes", "").Return(&created, nil).Once()

	require.NoError(t, p.AddNode(context.Background(), "Notes", ""))

	forest := p.Forest()
	require.Len(t, forest, 2)
	assert.Equal(t, "notes", forest[1].ID)
	assert.NotNil(t, forest[1].Children)
	api.AssertNumberOfCalls(t, "List", 1)
}

func TestAddNode_ChildReloads(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	created := node("report", "Report", "docs", 1)
	api.On("Create", mock.Anything, "Report", "docs").Return(&created, nil).Once()
	api.On("List", mock.Anything).Return([]dto.NodeResponse{
		node("docs", "Docs", "", 0),
		created,
	}, nil).Once()

	require.NoError(t, p.AddNode(context.Background(), "Report", "docs"))

	forest := p.Forest()
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "report", forest[0].Children[0].ID)
	api.AssertNumberOfCalls(t, "List", 2)
}

func TestAddNode_FailureKeepsForest(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	api.On("Create", mock.Anything, "", "").
		Return(nil, &nodesapi.Error{StatusCode: 400, Message: "Name is required"}).Once()

	err := p.AddNode(context.Background(), "", "")
	require.Error(t, err)
	assert.ErrorContains(t, p.Err(), "Name is required")
	assert.Len(t, p.Forest(), 1)
}

func TestDelete_PrunesSubtreeLocally(t *testing.T) {
	p, api := loaded(t,
		node("docs", "Docs", "", 0),
		node("report", "Report", "docs", 1),
		node("notes", "Notes", "", 2),
	)
	api.On("Delete", mock.Anything, "docs").Return("Node deleted successfully", nil).Once()

	require.NoError(t, p.Delete(context.Background(), "docs"))

	forest := p.Forest()
	require.Len(t, forest, 1)
	assert.Equal(t, "notes", forest[0].ID)
	assert.Nil(t, tree.Find(forest, "report"))
	api.AssertNumberOfCalls(t, "List", 1)
}

func TestDelete_FailureLeavesForest(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	api.On("Delete", mock.Anything, "docs").
		Return("", &nodesapi.Error{StatusCode: 500, Message: "Internal server error"}).Once()

	require.Error(t, p.Delete(context.Background(), "docs"))
	assert.Len(t, p.Forest(), 1)
	assert.Error(t, p.Err())
}

func TestRename(t *testing.T) {
	p, api := loaded(t, node("docs", "Docs", "", 0))
	renamed := node("docs", "Documents", "", 0)
	api.On("Rename", mock.Anything, "docs", " Documents ").Return(&renamed, nil).Once()

	require.NoError(t, p.Rename(context.Background(), "docs", " Documents "))
	assert.Equal(t, "Documents", p.Forest()[0].Name)
}

func TestRenameLocalAndToggle(t *testing.T) {
	p, api := loaded(t,
		node("docs", "Docs", "", 0),
		node("report", "Report", "docs", 1),
	)

	assert.True(t, p.RenameLocal("report", "Summary"))
	assert.False(t, p.RenameLocal("missing", "x"))

	assert.True(t, p.Toggle("docs"))
	assert.True(t, p.Forest()[0].IsExpanded)
	assert.True(t, p.Toggle("docs"))
	assert.False(t, p.Forest()[0].IsExpanded)

	assert.False(t, p.Toggle("report"), "leaves do not expand")
	assert.False(t, p.Forest()[0].Children[0].IsExpanded)
	assert.False(t, p.Toggle("missing"))

	assert.Equal(t, "Summary", p.Forest()[0].Children[0].Name)
	api.AssertNotCalled(t, "Rename", mock.Anything, mock.Anything, mock.Anything)
}

func TestForest_ReturnsCopy(t *testing.T) {
	p, _ := loaded(t, node("docs", "Docs", "", 0))

	forest := p.Forest()
	forest[0].Name = "Changed"
	forest[0].Children = append(forest[0].Children, &tree.Node{ID: "x"})

	fresh := p.Forest()
	assert.Equal(t, "Docs", fresh[0].Name)
	assert.Empty(t, fresh[0].Children)
}

func TestProjection_AgainstAPI(t *testing.T) {
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.StoreBackend = config.BackendMemory
	cfg.LogLevel = "error"
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(container.Router.Setup())
	t.Cleanup(srv.Close)

	client, err := nodesapi.NewClient(srv.URL, nodesapi.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	p := New(client, zap.NewNop())
	require.NoError(t, p.Load(ctx))
	assert.Empty(t, p.Forest())

	require.NoError(t, p.AddNode(ctx, "Docs", ""))
	docs := p.Forest()[0]

	require.NoError(t, p.AddNode(ctx, "Report", docs.ID))
	forest := p.Forest()
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Report", forest[0].Children[0].Name)
	assert.Equal(t, 2, tree.Count(forest))

	require.NoError(t, p.Delete(ctx, docs.ID))
	assert.Empty(t, p.Forest())

	require.NoError(t, p.Load(ctx))
	assert.Empty(t, p.Forest())

	err = p.Delete(ctx, docs.ID)
	assert.True(t, nodesapi.IsNotFound(err))
}

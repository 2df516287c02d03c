package nodesapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodetree/infrastructure/config"
	"nodetree/infrastructure/di"
)

func newAPIServer(t *testing.T) *Client {
	t.Helper()

	cfg := config.Defaults()
	cfg.StoreBackend = config.BackendMemory
	cfg.LogLevel = "error"

	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(container.Router.Setup())
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "://nope"} {
		_, err := NewClient(raw)
		assert.Error(t, err, raw)
	}
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client := newAPIServer(t)

	docs, err := client.Create(ctx, "Docs", "")
	require.NoError(t, err)
	assert.Nil(t, docs.Parent)

	report, err := client.Create(ctx, "Report", docs.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Parent)
	assert.Equal(t, docs.ID, *report.Parent)

	nodes, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Docs", nodes[0].Name)

	got, err := client.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "Report", got.Name)

	renamed, err := client.Rename(ctx, report.ID, "Summary")
	require.NoError(t, err)
	assert.Equal(t, "Summary", renamed.Name)

	forest, err := client.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "Summary", forest[0].Children[0].Name)

	msg, err := client.Delete(ctx, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Node deleted successfully", msg)

	nodes, err = client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestClient_ErrorBodies(t *testing.T) {
	ctx := context.Background()
	client := newAPIServer(t)

	_, err := client.Create(ctx, "   ", "")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Name is required", apiErr.Message)

	_, err = client.Delete(ctx, "missing")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Node not found")
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.List(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestClient_EscapesIDs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a/b","name":"x","parent":null,"createdAt":"2024-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL + "/api/")
	require.NoError(t, err)

	node, err := client.Get(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", node.ID)
	assert.Equal(t, "/api/nodes/a%2Fb", gotPath)
}

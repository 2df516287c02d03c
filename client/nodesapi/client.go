// Package nodesapi is an HTTP client for the node tree API.
package nodesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"nodetree/application/dto"
	"nodetree/domain/tree"
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Error is a non-2xx answer from the API
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("nodes api: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the /nodes endpoints
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient parses baseURL, e.g. "http://localhost:8080"
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type createRequest struct {
	Name   string  `json:"name"`
	Parent *string `json:"parent,omitempty"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List returns every node in creation order
func (c *Client) List(ctx context.Context) ([]dto.NodeResponse, error) {
	var out []dto.NodeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single node
func (c *Client) Get(ctx context.Context, id string) (*dto.NodeResponse, error) {
	var out dto.NodeResponse
	if err := c.doJSON(ctx, http.MethodGet, nodePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tree returns the forest assembled by the server
func (c *Client) Tree(ctx context.Context) ([]*tree.Node, error) {
	var out []*tree.Node
	if err := c.doJSON(ctx, http.MethodGet, "/nodes/tree", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a node. An empty parent creates a root.
func (c *Client) Create(ctx context.Context, name, parent string) (*dto.NodeResponse, error) {
	body := createRequest{Name: name}
	if parent != "" {
		body.Parent = &parent
	}

	var out dto.NodeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/nodes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rename persists a new name
func (c *Client) Rename(ctx context.Context, id, name string) (*dto.NodeResponse, error) {
	var out dto.NodeResponse
	if err := c.doJSON(ctx, http.MethodPatch, nodePath(id), renameRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the node and its subtree, returning the server's message
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var out dto.MessageResponse
	if err := c.doJSON(ctx, http.MethodDelete, nodePath(id), nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// nodePath returns an escaped path
func nodePath(id string) string {
	return "/nodes/" + url.PathEscape(id)
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	u := *c.baseURL
	escaped := strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", escaped, err)
	}
	u.Path, u.RawPath = unescaped, escaped

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("http read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var eb errorBody
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Message != "" {
			apiErr.Message = eb.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("json unmarshal response: %w", err)
	}
	return nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dennisdiepolder/dropboard/internal/api"
	"github.com/dennisdiepolder/dropboard/internal/dashboard"
	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Client provides access to the dropboard HTTP API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new dropboard client. token is sent as a bearer token
// when set.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Message)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*api.MeResponse, error) {
	var me api.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// Dashboard fetches a stateless dashboard snapshot. query carries the same
// keys the endpoint accepts (range, start, end, month, shift, ...).
func (c *Client) Dashboard(ctx context.Context, query url.Values) (*api.SnapshotResponse, error) {
	return c.snapshot(ctx, "/api/dashboard", query)
}

// Performance fetches a stateless performance snapshot (admin only)
func (c *Client) Performance(ctx context.Context, query url.Values) (*api.SnapshotResponse, error) {
	return c.snapshot(ctx, "/api/performance", query)
}

func (c *Client) snapshot(ctx context.Context, path string, query url.Values) (*api.SnapshotResponse, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var snap api.SnapshotResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CreateView opens a live view of kind
func (c *Client) CreateView(ctx context.Context, kind dashboard.Kind) (*dashboard.ViewState, error) {
	var state dashboard.ViewState
	if err := c.do(ctx, http.MethodPost, "/api/views", api.CreateViewRequest{Kind: string(kind)}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetView returns the current state of a view
func (c *Client) GetView(ctx context.Context, id string) (*dashboard.ViewState, error) {
	var state dashboard.ViewState
	if err := c.do(ctx, http.MethodGet, "/api/views/"+url.PathEscape(id), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateView applies patch to a view
func (c *Client) UpdateView(ctx context.Context, id string, patch api.ViewPatch) (*api.PatchResponse, error) {
	var res api.PatchResponse
	if err := c.do(ctx, http.MethodPatch, "/api/views/"+url.PathEscape(id), patch, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RefreshView refetches a view's source
func (c *Client) RefreshView(ctx context.Context, id string) (*dashboard.ViewState, error) {
	var state dashboard.ViewState
	if err := c.do(ctx, http.MethodPost, "/api/views/"+url.PathEscape(id)+"/refresh", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// DeleteView closes a view
func (c *Client) DeleteView(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/views/"+url.PathEscape(id), nil, nil)
}

// ExportView downloads a view's table as an XLSX workbook
func (c *Client) ExportView(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/views/"+url.PathEscape(id)+"/export.xlsx", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Roles returns the role configuration (admin only)
func (c *Client) Roles(ctx context.Context) (*types.RoleConfig, error) {
	var cfg types.RoleConfig
	if err := c.do(ctx, http.MethodGet, "/api/admin/roles", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetRoles replaces the role configuration
func (c *Client) SetRoles(ctx context.Context, cfg types.RoleConfig) (*types.RoleConfig, error) {
	var out types.RoleConfig
	if err := c.do(ctx, http.MethodPut, "/api/admin/roles", cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddRole grants role to email
func (c *Client) AddRole(ctx context.Context, role types.Role, email string) error {
	return c.do(ctx, http.MethodPost, rolePath(role, email), nil, nil)
}

// RemoveRole revokes role from email
func (c *Client) RemoveRole(ctx context.Context, role types.Role, email string) error {
	return c.do(ctx, http.MethodDelete, rolePath(role, email), nil, nil)
}

// ResetRoles restores the configured defaults
func (c *Client) ResetRoles(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/roles/reset", nil, nil)
}

// Refresh triggers a refresh cycle and returns its notice
func (c *Client) Refresh(ctx context.Context) (*types.RefreshNotice, error) {
	var notice types.RefreshNotice
	if err := c.do(ctx, http.MethodPost, "/api/admin/refresh", nil, &notice); err != nil {
		return nil, err
	}
	return &notice, nil
}

func rolePath(role types.Role, email string) string {
	return fmt.Sprintf("/api/admin/roles/%s/%s", url.PathEscape(string(role)), url.PathEscape(email))
}

// do sends body as JSON and decodes the response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(data)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// Package kvstore implements the knowledge store against the KV collaborator's
// HTTP API.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/lorebase/internal/knowledge"
)

// Client communicates with the KV service. It satisfies knowledge.Store:
// entries live under /kv/entries, the read-only secondary source under
// /kv/external-entries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ knowledge.Store = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// List returns all locally stored entries.
func (c *Client) List(ctx context.Context) ([]knowledge.Entry, error) {
	return c.listPath(ctx, "/kv/entries")
}

// ListExternal returns the read-only secondary source. Lorebase never writes
// to it.
func (c *Client) ListExternal(ctx context.Context) ([]knowledge.Entry, error) {
	return c.listPath(ctx, "/kv/external-entries")
}

func (c *Client) listPath(ctx context.Context, path string) ([]knowledge.Entry, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list entries %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}

	var result struct {
		Entries []knowledge.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return result.Entries, nil
}

// Add stores or replaces an entry keyed by its ID.
func (c *Client) Add(ctx context.Context, e knowledge.Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/kv/entries/"+url.PathEscape(e.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("put entry %s: status %d: %s", e.ID, resp.StatusCode, string(respBody))
	}
	return nil
}

// Delete removes an entry by ID. Deleting an absent ID is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/kv/entries/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete entry %s: status %d: %s", id, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

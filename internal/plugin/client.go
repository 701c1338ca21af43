// Package plugin wraps the game-server plugin's HTTP side-channel for
// operations that don't fit the RCON command stream: placing map markers,
// writing lectern books, and flagging a structure archived so the plugin's
// own renderer (BlueMap) can grey it out (spec.md §4.10, §4.11).
//
// Grounded on the teacher's LFSClient (internal/group/lfsclient.go): a
// trimmed base URL, a bounded-timeout http.Client, JSON request bodies,
// and a safeURL helper that only ever concatenates validated components
// into the final request URL.
package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Client wraps the game-server plugin's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a plugin client against baseURL (config.PluginConfig.BaseURL).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Marker is a BlueMap POI placed at a building or village's spawn point.
type Marker struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Icon    string `json:"icon,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Archived bool  `json:"archived"`
}

// UpsertMarker creates or replaces a map marker by ID.
func (c *Client) UpsertMarker(ctx context.Context, m Marker) error {
	return c.postJSON(ctx, "/markers", m)
}

// ArchiveMarker flags a marker archived rather than deleting it, so a
// village/building that comes back (spec.md's archive-then-resurrect edge
// case) can simply be un-flagged instead of recreated.
func (c *Client) ArchiveMarker(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/markers/"+url.PathEscape(id)+"/archive", struct{}{})
}

// LecternPage is one page of a building's lectern book (spec.md §4.6 step 6:
// the building's signage, including any pinned message).
type LecternPage struct {
	BuildingID string   `json:"buildingId"`
	Title      string   `json:"title"`
	Lines      []string `json:"lines"`
}

// WriteLectern pushes the rendered book content to the plugin, which
// writes it into the building's lectern block.
func (c *Client) WriteLectern(ctx context.Context, page LecternPage) error {
	return c.postJSON(ctx, "/lecterns", page)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	endpoint, err := c.safeURL(path)
	if err != nil {
		return fmt.Errorf("plugin: %w", err)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("plugin: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("plugin: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plugin: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("plugin: %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}

// Healthy reports whether the plugin's HTTP endpoint is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	endpoint, err := c.safeURL("/health")
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

var safeHost = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

func (c *Client) safeURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
	if !safeHost.MatchString(u.Host) {
		return "", fmt.Errorf("invalid host: %s", u.Host)
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/") + path, nil
}

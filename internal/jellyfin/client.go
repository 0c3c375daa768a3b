// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package jellyfin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookbridge/internal/config"
	"github.com/tomtom215/hookbridge/internal/models"
)

// Client covers the slice of the Jellyfin REST API the normalizer needs.
// It implements engine.UserResolver and engine.ServerInfoProvider.
type Client struct {
	baseURL    string
	apiKey     string
	deviceID   string
	httpClient *http.Client

	mu     sync.RWMutex
	server models.ServerInfo

	seriesMu sync.Mutex
	series   map[string]map[string]string
}

// NewClient builds a Client from the Jellyfin configuration. Call
// RefreshSystemInfo before the first event so ServerInfo is populated.
func NewClient(cfg config.JellyfinConfig) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		deviceID: cfg.DeviceID,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		series: make(map[string]map[string]string),
	}
}

// UserByID resolves a user id to a user snapshot.
func (c *Client) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user userDTO
	if err := c.getJSON(ctx, "/Users/"+url.PathEscape(id), &user); err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", id, err)
	}
	return user.toModel(), nil
}

// ItemByID fetches a library item with the fields the formatters read.
func (c *Client) ItemByID(ctx context.Context, id string) (*models.Item, error) {
	endpoint := "/Items/" + url.PathEscape(id) + "?fields=Path,ProviderIds,DateCreated"
	var item itemDTO
	if err := c.getJSON(ctx, endpoint, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", id, err)
	}
	return item.toModel(), nil
}

// SeriesProviderIDs resolves the external metadata ids of a series. Results
// are cached for the process lifetime; series provider ids change rarely and
// every episode of a series shares them.
func (c *Client) SeriesProviderIDs(ctx context.Context, seriesID string) (map[string]string, error) {
	c.seriesMu.Lock()
	cached, ok := c.series[seriesID]
	c.seriesMu.Unlock()
	if ok {
		return cached, nil
	}

	endpoint := "/Items/" + url.PathEscape(seriesID) + "?fields=ProviderIds"
	var series itemDTO
	if err := c.getJSON(ctx, endpoint, &series); err != nil {
		return nil, fmt.Errorf("failed to fetch series %s: %w", seriesID, err)
	}

	c.seriesMu.Lock()
	c.series[seriesID] = series.ProviderIDs
	c.seriesMu.Unlock()
	return series.ProviderIDs, nil
}

// RefreshSystemInfo fetches /System/Info and caches the server identity.
func (c *Client) RefreshSystemInfo(ctx context.Context) error {
	var info systemInfoDTO
	if err := c.getJSON(ctx, "/System/Info", &info); err != nil {
		return fmt.Errorf("failed to fetch system info: %w", err)
	}

	c.mu.Lock()
	c.server = models.ServerInfo{
		ID:      info.ID,
		Name:    info.ServerName,
		Version: info.Version,
	}
	c.mu.Unlock()
	return nil
}

// ServerInfo returns the cached server identity. Zero-valued until
// RefreshSystemInfo succeeds.
func (c *Client) ServerInfo() models.ServerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// Ping verifies connectivity.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/System/Ping")
	if err != nil {
		return fmt.Errorf("jellyfin ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin ping returned status %d", resp.StatusCode)
	}
	return nil
}

// WebSocketURL derives the /socket URL from the base URL.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid jellyfin url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/socket"

	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("deviceId", c.deviceID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("jellyfin returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("X-Emby-Client", "Hookbridge")
	req.Header.Set("X-Emby-Device-Name", "Hookbridge")
	req.Header.Set("X-Emby-Device-Id", c.deviceID)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

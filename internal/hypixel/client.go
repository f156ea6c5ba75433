package hypixel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// API endpoints. Overridable for tests.
const (
	defaultHypixelBase = "https://api.hypixel.net"
	defaultMojangBase  = "https://api.mojang.com"

	// hypixelProbeUUID is Hypixel's own account, used as a fallback
	// probe when the /key endpoint is unavailable.
	hypixelProbeUUID = "f7c77d999f154a66a87dc4a51ef30d19"
)

// Rate limits imposed by the upstream APIs.
const (
	hypixelMaxRequests = 300
	hypixelWindow      = 5 * time.Minute
	mojangMaxRequests  = 600
	mojangWindow       = 10 * time.Minute
)

// Client talks to the Hypixel and Mojang APIs with per-API sliding
// window rate limiting. Raw player payloads are returned as generic
// JSON maps; derivation into usable stats lives in internal/stats.
type Client struct {
	apiKey      string
	hypixelBase string
	mojangBase  string
	http        *http.Client
	hypixelRate *RateLimiter
	mojangRate  *RateLimiter
	logger      *slog.Logger
}

// NewClient creates an API client for the given Hypixel key.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:      apiKey,
		hypixelBase: defaultHypixelBase,
		mojangBase:  defaultMojangBase,
		http:        &http.Client{Timeout: 15 * time.Second},
		hypixelRate: NewRateLimiter(hypixelMaxRequests, hypixelWindow),
		mojangRate:  NewRateLimiter(mojangMaxRequests, mojangWindow),
		logger:      logger,
	}
}

// SetBaseURLs overrides the upstream endpoints. Used by tests.
func (c *Client) SetBaseURLs(hypixelBase, mojangBase string) {
	c.hypixelBase = hypixelBase
	c.mojangBase = mojangBase
}

// UUID resolves a Minecraft username to its UUID via the Mojang API.
func (c *Client) UUID(ctx context.Context, username string) (string, error) {
	c.mojangRate.Wait()

	endpoint := fmt.Sprintf("%s/users/profiles/minecraft/%s", c.mojangBase, url.PathEscape(username))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to get UUID for %s: %w", username, err)
	}

	var profile struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("failed to decode Mojang response for %s: %w", username, err)
	}
	if profile.ID == "" {
		return "", fmt.Errorf("player %q not found", username)
	}
	return profile.ID, nil
}

// PlayerStats fetches the raw player document from the Hypixel API.
func (c *Client) PlayerStats(ctx context.Context, uuid string) (map[string]any, error) {
	resp, err := c.hypixelGet(ctx, "/player", url.Values{"uuid": {uuid}})
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for player %s: %w", uuid, err)
	}

	player, ok := resp["player"].(map[string]any)
	if !ok || player == nil {
		return nil, fmt.Errorf("player with UUID %q not found", uuid)
	}
	return player, nil
}

// PlayerStatus fetches a player's online session from the Hypixel API.
func (c *Client) PlayerStatus(ctx context.Context, uuid string) (map[string]any, error) {
	resp, err := c.hypixelGet(ctx, "/status", url.Values{"uuid": {uuid}})
	if err != nil {
		return nil, fmt.Errorf("failed to get status for player %s: %w", uuid, err)
	}

	session, ok := resp["session"].(map[string]any)
	if !ok || session == nil {
		return nil, fmt.Errorf("session data for player %s not available", uuid)
	}
	return session, nil
}

// VerifyKey checks that the configured API key is accepted. The /key
// endpoint is tried first; if that fails (it has been deprecated in
// the past) a probe request against a known account decides.
func (c *Client) VerifyKey(ctx context.Context) bool {
	resp, err := c.hypixelGet(ctx, "/key", nil)
	if err == nil {
		if record, ok := resp["record"].(map[string]any); ok {
			c.logger.Info("API key validated", "owner", record["owner"])
		}
		return true
	}

	c.logger.Warn("key endpoint validation failed, trying probe request", "error", err)
	_, err = c.hypixelGet(ctx, "/player", url.Values{"uuid": {hypixelProbeUUID}})
	if err != nil {
		c.logger.Warn("API key validation failed", "error", err)
		return false
	}
	return true
}

// hypixelGet performs a rate-limited, authenticated GET against the
// Hypixel API and handles its success/cause error envelope.
func (c *Client) hypixelGet(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	c.hypixelRate.Wait()

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)

	body, err := c.get(ctx, c.hypixelBase+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if success, ok := resp["success"].(bool); ok && !success {
		cause, _ := resp["cause"].(string)
		if cause == "" {
			cause = "unknown API error"
		}
		return nil, fmt.Errorf("API request failed: %s", cause)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

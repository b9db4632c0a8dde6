// Package feishu implements the Feishu open-platform client: tenant token
// management, message sending and roster import from the sign-up Bitable.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hackathonweekly/checkin-hub/pkg/circuitbreaker"
	"github.com/hackathonweekly/checkin-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrAuth indicates the tenant token could not be obtained.
	ErrAuth = errors.New("feishu: authentication failed")

	// ErrAPI indicates the platform rejected a call.
	ErrAPI = errors.New("feishu: api error")
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Feishu client.
type ClientConfig struct {
	BaseURL   string
	AppID     string
	AppSecret string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Client talks to the Feishu open platform. It caches the tenant access
// token and refreshes it shortly before expiry.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.Breaker

	tokenMu      sync.Mutex
	token        string
	tokenExpires time.Time
}

// NewClient creates a new Feishu client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://open.feishu.cn"
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
		retrier:    retry.FeishuRetrier(),
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("feishu")),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Token management
// ──────────────────────────────────────────────────────────────────────────────

// AccessToken returns a valid tenant access token, fetching a fresh one when
// the cached token is missing or about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpires) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_id":     c.config.AppID,
		"app_secret": c.config.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/open-apis/auth/v3/tenant_access_token/internal",
		bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAuth, err)
	}
	if token.Code != 0 {
		return "", fmt.Errorf("%w: %s (code %d)", ErrAuth, token.Msg, token.Code)
	}

	c.token = token.TenantAccessToken
	// Refresh a minute early so in-flight calls never race the expiry.
	c.tokenExpires = time.Now().Add(time.Duration(token.Expire)*time.Second - time.Minute)

	c.logger.Debug("tenant access token refreshed",
		slog.Time("expires", c.tokenExpires),
	)

	return c.token, nil
}

// invalidateToken drops the cached token after an auth failure.
func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenMu.Unlock()
}

// ──────────────────────────────────────────────────────────────────────────────
// Request helpers
// ──────────────────────────────────────────────────────────────────────────────

// doJSON performs one authenticated call and decodes the JSON response into
// out. On a 401/403 the token is refreshed and the call retried once.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out interface{}) error {
	op := func(ctx context.Context) error {
		resp, err := c.request(ctx, method, path, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.invalidateToken()
			retryResp, err := c.request(ctx, method, path, body)
			if err != nil {
				return err
			}
			defer retryResp.Body.Close()
			resp = retryResp
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read response: %v", ErrAPI, err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d", ErrAPI, resp.StatusCode)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrAPI, err)
		}
		return nil
	}

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, op)
	})
}

func (c *Client) request(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/client/tokencache"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/logger"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrSessionExpired means the refresh attempt failed and the cached
	// state was cleared, the user has to log in again
	ErrSessionExpired = errors.New("session expired, please log in again")
)

var validate = validator.New()

// APIError is a server-reported failure: non-2xx code or status != "ok"
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server replied %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

type Config struct {
	// Base URL of the auth API, e.g. http://localhost:8000
	// Required to be set
	BaseURL string

	// Cache for the token pair and username
	// In-memory cache is used if not set
	Cache tokencache.Cache

	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to the auth API and keeps the token pair cached.
// Protected calls carry the bearer token and survive one access token
// expiry per call via a single refresh and retry
type Client struct {
	baseURL string
	cache   tokencache.Cache
	http    *http.Client
	logger  logger.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL must not be empty")
	}

	cache := cfg.Cache
	if cache == nil {
		cache = tokencache.NewMemCache()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cache:   cache,
		http:    httpClient,
		logger:  log,
	}, nil
}

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// apiResponse covers every body the API returns
type apiResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates the account. Credentials are validated locally first:
// empty fields or a password under 8 characters never reach the network
func (c *Client) Register(ctx context.Context, username string, password string) error {
	creds := registerCredentials{Username: username, Password: password}
	if err := validate.Struct(creds); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	_, err := c.post(ctx, "/register", creds)
	return err
}

// Login exchanges credentials for a token pair and caches it together
// with the display username
func (c *Client) Login(ctx context.Context, username string, password string) error {
	creds := credentials{Username: username, Password: password}
	if err := validate.Struct(creds); err != nil {
		return fmt.Errorf("invalid credentials: %w", err)
	}

	resp, err := c.post(ctx, "/authenticate", creds)
	if err != nil {
		return err
	}

	if _, err := c.cache.Store(resp.AccessToken, resp.RefreshToken); err != nil {
		return fmt.Errorf("can't cache tokens: %w", err)
	}
	if err := c.cache.SetUsername(username); err != nil {
		return fmt.Errorf("can't cache username: %w", err)
	}

	c.logger.Debug("Logged in", "username", username)
	return nil
}

// Logout revokes the refresh token on the server (best effort) and always
// clears the cached tokens and username
func (c *Client) Logout(ctx context.Context) error {
	pair, err := c.cache.Load()

	switch {
	case errors.Is(err, tokencache.ErrNoTokens):
		// Nothing cached, still wipe the username key
	case err != nil:
		return err
	default:
		body := map[string]string{"refresh_token": pair.RefreshToken}
		if _, err := c.post(ctx, "/logout", body); err != nil {
			c.logger.Warn("Server side logout failed", "error", err)
		}
	}

	return c.cache.Clear()
}

// Username returns the cached display name, empty when logged out
func (c *Client) Username() (string, error) {
	return c.cache.Username()
}

// Protected calls the protected endpoint and returns the server greeting
func (c *Client) Protected(ctx context.Context) (string, error) {
	resp, err := c.doAuthenticated(ctx, http.MethodGet, "/protected")
	if err != nil {
		return "", err
	}

	return resp.Message, nil
}

// doAuthenticated performs a bearer-authenticated request.
// A stale cached token is refreshed before the call, a 401 reply triggers
// exactly one refresh and one retry. A failed refresh clears the cache
func (c *Client) doAuthenticated(ctx context.Context, method string, path string) (apiResponse, error) {
	pair, err := c.cache.Load()
	if err != nil {
		return apiResponse{}, err
	}

	if pair.AccessExpired(time.Now()) {
		c.logger.Debug("Access token expired, refreshing before request")
		pair, err = c.refresh(ctx, pair)
		if err != nil {
			return apiResponse{}, err
		}
	}

	resp, err := c.send(ctx, method, path, nil, pair.AccessToken)
	if err == nil {
		return resp, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return apiResponse{}, err
	}

	// The server rejected the token, refresh once and retry once
	c.logger.Debug("Got 401, refreshing token pair and retrying")
	pair, err = c.refresh(ctx, pair)
	if err != nil {
		return apiResponse{}, err
	}

	return c.send(ctx, method, path, nil, pair.AccessToken)
}

// refresh exchanges the cached refresh token for a new pair and stores it.
// Failure is terminal: the cache is cleared so the client is logged out
func (c *Client) refresh(ctx context.Context, pair tokencache.Pair) (tokencache.Pair, error) {
	body := map[string]string{"refresh_token": pair.RefreshToken}

	resp, err := c.post(ctx, "/refresh", body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if clearErr := c.cache.Clear(); clearErr != nil {
				c.logger.Warn("Can't clear token cache", "error", clearErr)
			}
			return tokencache.Pair{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return tokencache.Pair{}, err
	}

	newPair, err := c.cache.Store(resp.AccessToken, resp.RefreshToken)
	if err != nil {
		return tokencache.Pair{}, fmt.Errorf("can't cache refreshed tokens: %w", err)
	}

	return newPair, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (apiResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("can't encode request body: %w", err)
	}

	return c.send(ctx, http.MethodPost, path, data, "")
}

func (c *Client) send(ctx context.Context, method string, path string, body []byte, access string) (apiResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apiResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode == http.StatusNoContent {
		return apiResponse{Status: "ok"}, nil
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Error bodies may be non JSON (proxies and such), report the code
		if resp.StatusCode >= 300 {
			return apiResponse{}, &APIError{StatusCode: resp.StatusCode, Status: "failed"}
		}
		return apiResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 || parsed.Status != "ok" {
		return apiResponse{}, &APIError{
			StatusCode: resp.StatusCode,
			Status:     parsed.Status,
			Message:    parsed.Message,
		}
	}

	return parsed, nil
}

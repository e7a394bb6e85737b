// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/FishPiOffical/fishpi-go/lib/netutil"
)

const (
	// DefaultBaseURL is the public FishPi instance.
	DefaultBaseURL = "https://fishpi.cn"

	// DefaultUserAgent is the browser identity the platform's request
	// filter expects on API calls.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/69.0.3497.100 Safari/537.36"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the platform base URL. If empty, DefaultBaseURL is used.
	BaseURL string
	// UserAgent is sent on every request. If empty, DefaultUserAgent is used.
	UserAgent string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated FishPi client.
// It holds the base URL and HTTP transport, shared across Sessions.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated FishPi client.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Validate the URL structure. We store the string form (with trailing
	// slash stripped) and build request URLs by direct concatenation,
	// which avoids double-encoding of path segments.
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api: BaseURL %q must use http or https", baseURL)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized platform base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a network disruption to
// force subsequent requests to establish fresh TCP connections instead
// of reusing a poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login authenticates with a username (or email) and password, returning
// an authenticated Session holding the issued API key. The platform
// authenticates against the MD5 digest of the password, never the
// cleartext. mfaCode may be empty when the account has no two-factor
// device enrolled.
func (c *Client) Login(ctx context.Context, nameOrEmail, password, mfaCode string) (*Session, error) {
	if nameOrEmail == "" {
		return nil, fmt.Errorf("api: name or email is required for login")
	}
	if password == "" {
		return nil, fmt.Errorf("api: password is required for login")
	}

	request := loginRequest{
		NameOrEmail:  nameOrEmail,
		UserPassword: hashPassword(password),
		MFACode:      mfaCode,
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/getKey", request)
	if err != nil {
		return nil, fmt.Errorf("api: login failed: %w", err)
	}

	var response loginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("api: failed to parse login response: %w", err)
	}
	if response.Code != 0 {
		return nil, fmt.Errorf("api: login failed: %w", &Error{
			Code:       response.Code,
			Message:    response.Msg,
			StatusCode: http.StatusOK,
		})
	}
	if response.Key == "" {
		return nil, fmt.Errorf("api: login response carried no key")
	}

	c.logger.Info("logged in to fishpi", "user", nameOrEmail)

	return &Session{client: c, key: response.Key}, nil
}

// SessionFromKey creates a Session from an existing API key. The key is
// not validated; the first call will fail if it is stale. The caller
// owns key persistence, since this package never stores credentials.
func (c *Client) SessionFromKey(key string) (*Session, error) {
	if key == "" {
		return nil, fmt.Errorf("api: key is required")
	}
	return &Session{client: c, key: key}, nil
}

// WebSocketURL resolves a WebSocket target against the client's base URL.
// Absolute ws:// and wss:// targets pass through unchanged; anything else
// is treated as a path on the platform host, with the scheme derived from
// the base URL's scheme.
func (c *Client) WebSocketURL(target string) string {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return target
	}
	scheme, host := "ws", c.baseURL
	if stripped, ok := strings.CutPrefix(host, "https://"); ok {
		scheme, host = "wss", stripped
	} else {
		host = strings.TrimPrefix(host, "http://")
	}
	return scheme + "://" + host + "/" + strings.TrimPrefix(target, "/")
}

// hashPassword returns the hex MD5 digest the platform expects in place
// of the cleartext password.
func hashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// doRequest performs an HTTP request against the platform and returns the
// response body. On 2xx, returns the body. On 4xx/5xx, returns a *Error
// built from the response envelope when the body carries one, or from the
// raw body text otherwise. query may be omitted for endpoints without
// query parameters.
func (c *Client) doRequest(ctx context.Context, method, path string, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create request: %w", err)
	}

	request.Header.Set("User-Agent", c.userAgent)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadBody(response.Body)
	if err != nil {
		return nil, fmt.Errorf("api: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	var apiErr Error
	if jsonErr := json.Unmarshal(responseBody, &apiErr); jsonErr != nil || (apiErr.Code == 0 && apiErr.Message == "") {
		apiErr = Error{Message: strings.TrimSpace(string(responseBody))}
	}
	apiErr.StatusCode = response.StatusCode

	return nil, &apiErr
}

// envelope is the platform's standard response wrapper. A nonzero code
// marks a failure even on an HTTP 200.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// unwrap parses the platform envelope and returns the data payload.
// A nonzero code becomes a *Error carrying the platform message.
func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: failed to parse response envelope: %w", err)
	}
	if env.Code != 0 {
		return nil, &Error{Code: env.Code, Message: env.Msg, StatusCode: http.StatusOK}
	}
	return env.Data, nil
}

package bitaxe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/logging"
)

const (
	// APIPrefix is prepended to every endpoint path.
	APIPrefix = "/api"

	// DefaultTimeout bounds a single request so one unreachable device cannot
	// stall a command.
	DefaultTimeout = 5 * time.Second

	// DefaultUploadTimeout bounds a firmware or asset upload. The device
	// writes to flash while receiving, which is much slower than a JSON call.
	DefaultUploadTimeout = 2 * time.Minute

	// maxErrorBody caps how much of a 5xx body is kept in a ServerError.
	maxErrorBody = 4096
)

// Device API endpoints
const (
	PathSystemInfo    = "/system/info"
	PathSystemRestart = "/system/restart"
	PathSystem        = "/system"
	PathFirmwareOTA   = "/system/OTA"
	PathWWWOTA        = "/system/OTAWWW"
)

// Client talks to one device's AxeOS HTTP API.
// It holds no mutable state beyond the shared HTTP connection pool, so a
// Client (and the *http.Client behind it) is safe for concurrent use.
type Client struct {
	// Address is the device location: an IP, a hostname, or host:port.
	Address string

	// HTTPClient is the underlying HTTP client. It must not follow redirects.
	HTTPClient *http.Client

	// UploadTimeout replaces HTTPClient.Timeout for blob uploads.
	UploadTimeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient shares an existing HTTP client (and its connection pool).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithUploadTimeout sets the timeout used for firmware and asset uploads.
func WithUploadTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.UploadTimeout = timeout
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// NewHTTPClient returns an HTTP client suitable for device calls: bounded by
// timeout and never following redirects, so 3xx responses reach Send.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NewClient creates a client for the device at address
// address: IP or hostname, optionally with a port (e.g. "192.168.1.42")
func NewClient(address string, opts ...ClientOption) *Client {
	c := &Client{
		Address:       strings.TrimSuffix(strings.TrimPrefix(address, "http://"), "/"),
		HTTPClient:    NewHTTPClient(DefaultTimeout),
		UploadTimeout: DefaultUploadTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the full request URL for an endpoint path.
func (c *Client) URL(path string) string {
	return fmt.Sprintf("http://%s%s%s", c.Address, APIPrefix, path)
}

// Send issues one request and classifies the outcome:
//   - no HTTP response at all: KindTransport
//   - 3xx: KindInvalidRequest
//   - 5xx: KindServer, carrying the status and body text
//   - anything else: the response is returned for the caller to decode
//
// body, when non-nil, is JSON encoded. Send never retries. On success the
// caller owns resp.Body.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var (
		reader      io.Reader
		contentType string
		size        int
	)

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
		size = len(data)
	}

	return c.do(ctx, c.HTTPClient, method, path, reader, contentType, size)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body io.Reader, contentType string, size int) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, classifyTransportError("failed to create request", err, c.Address)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	logging.LogRequest(c.Address, method, path, size)
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(fmt.Sprintf("%s %s failed", method, path), err, c.Address)
	}

	logging.LogResponse(c.Address, method, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		// AxeOS redirects unknown endpoints instead of returning 404
		_ = resp.Body.Close()
		return nil, NewInvalidRequestError(c.Address, resp.StatusCode)

	case resp.StatusCode >= 500:
		defer func() { _ = resp.Body.Close() }()
		text, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			logging.Debug("Failed to read error body", zap.String("address", c.Address), zap.Error(readErr))
		}
		return nil, NewServerError(c.Address, resp.StatusCode, string(text))
	}

	return resp, nil
}

// SystemInfo retrieves the current device state from GET /api/system/info.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	resp, err := c.Send(ctx, http.MethodGet, PathSystemInfo, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("failed to read response body", err, c.Address)
	}

	var info SystemInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, NewDecodeError(c.Address, fmt.Sprintf("failed to decode system info (HTTP %d)", resp.StatusCode), err)
	}

	return &info, nil
}

// Restart asks the device to reboot. The response text is informational only.
func (c *Client) Restart(ctx context.Context) error {
	resp, err := c.Send(ctx, http.MethodPost, PathSystemRestart, nil)
	if err != nil {
		return err
	}

	c.logResponseText(resp, "Restart response")
	return nil
}

// UpdateSettings sends a sparse settings patch. Only fields that are set in
// settings are transmitted.
func (c *Client) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.IsEmpty() {
		return ErrEmptySettings
	}

	resp, err := c.Send(ctx, http.MethodPatch, PathSystem, settings.Payload())
	if err != nil {
		return err
	}

	c.logResponseText(resp, "Settings response")
	return nil
}

// UploadFirmware uploads an esp-miner firmware image. The device reboots
// once the image is written.
func (c *Client) UploadFirmware(ctx context.Context, image []byte) error {
	return c.uploadBlob(ctx, PathFirmwareOTA, image)
}

// UploadWWW uploads the web interface asset bundle.
func (c *Client) UploadWWW(ctx context.Context, bundle []byte) error {
	return c.uploadBlob(ctx, PathWWWOTA, bundle)
}

// uploadBlob POSTs raw bytes as application/octet-stream. Unlike the JSON
// calls, any non-2xx status is a failure.
func (c *Client) uploadBlob(ctx context.Context, path string, data []byte) error {
	hc := c.HTTPClient
	if c.UploadTimeout > 0 {
		copied := *c.HTTPClient
		copied.Timeout = c.UploadTimeout
		hc = &copied
	}

	resp, err := c.do(ctx, hc, http.MethodPost, path, bytes.NewReader(data), "application/octet-stream", len(data))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return NewInvalidRequestError(c.Address, resp.StatusCode)
	}

	c.logResponseText(resp, "Upload response")
	return nil
}

func (c *Client) logResponseText(resp *http.Response, msg string) {
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Debug(msg, zap.String("address", c.Address), zap.Error(err))
		return
	}
	logging.Debug(msg,
		zap.String("address", c.Address),
		zap.Int("status_code", resp.StatusCode),
		zap.String("body", string(text)),
	)
}

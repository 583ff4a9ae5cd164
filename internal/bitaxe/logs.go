package bitaxe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bacli/bacli/internal/logging"
)

// PathLogStream is the websocket endpoint AxeOS uses to push its console log.
const PathLogStream = "/ws"

// LogStreamURL returns the websocket URL of the device log stream.
func (c *Client) LogStreamURL() string {
	return fmt.Sprintf("ws://%s%s%s", c.Address, APIPrefix, PathLogStream)
}

// StreamLogs connects to the device log websocket and calls fn for every
// message until ctx is cancelled or the device closes the connection.
// A cancelled ctx is not reported as an error.
func (c *Client) StreamLogs(ctx context.Context, fn func(line string)) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.HTTPClient.Timeout,
	}

	header := http.Header{}
	if c.UserAgent != "" {
		header.Set("User-Agent", c.UserAgent)
	}

	conn, resp, err := dialer.DialContext(ctx, c.LogStreamURL(), header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 500 {
				return NewServerError(c.Address, resp.StatusCode, "")
			}
			return NewInvalidRequestError(c.Address, resp.StatusCode)
		}
		return classifyTransportError("failed to open log stream", err, c.Address)
	}
	defer func() { _ = conn.Close() }()

	logging.Debug("Log stream connected", zap.String("address", c.Address))

	// Unblock ReadMessage when the caller gives up
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return classifyTransportError("log stream interrupted", err, c.Address)
		}
		fn(string(data))
	}
}

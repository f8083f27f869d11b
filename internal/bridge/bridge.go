// bridge.go — stdio ⇄ WebSocket bridge. Editors that only speak stdio MCP
// spawn `drawbridge bridge`; it forwards every stdin message to a running
// server's /mcp endpoint and writes replies back to stdout line-delimited.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/gorilla/websocket"
)

const maxStdioBody = 16 << 20

// Run pumps messages between in/out and the server until EOF on stdin, a
// dead server connection, or context cancellation.
func Run(ctx context.Context, serverURL, fileID string, in io.Reader, out io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if fileID == "" {
		return errors.New("bridge: file id is required")
	}

	target, err := mcpEndpoint(serverURL, fileID)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("bridge: dial %s: %w", target, err)
	}
	defer conn.Close() //nolint:errcheck // deferred close

	logger.Info("bridge connected", "server", target, "file_id", fileID)

	// Reader goroutine is the sole stdout writer; this loop is the sole
	// WebSocket writer. No other writer exists on either side.
	done := make(chan error, 1)
	go func() {
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				done <- fmt.Errorf("bridge: server connection lost: %w", err)
				return
			}
			if _, err := fmt.Fprintf(out, "%s\n", frame); err != nil {
				done <- fmt.Errorf("bridge: write stdout: %w", err)
				return
			}
		}
	}()

	stdin := bufio.NewReader(in)
	for {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := ReadMessage(stdin, maxStdioBody)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("bridge stdin closed")
				return nil
			}
			return fmt.Errorf("bridge: read stdin: %w", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return fmt.Errorf("bridge: forward to server: %w", err)
		}
	}
}

// mcpEndpoint turns a base server URL into the ws:// /mcp endpoint bound to
// the file.
func mcpEndpoint(serverURL, fileID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("bridge: bad server url %q: %w", serverURL, err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("bridge: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/mcp"
	q := u.Query()
	q.Set("fileId", fileID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

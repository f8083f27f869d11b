// stdio.go — stdio message framing for editors that spawn MCP servers as
// child processes. Accepts both line-delimited JSON and Content-Length
// framed messages, since clients disagree on which to send.
package bridge

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ReadMessage reads one MCP message from the buffered reader. maxBody caps
// Content-Length to prevent memory exhaustion from a hostile header.
func ReadMessage(r *bufio.Reader, maxBody int) ([]byte, error) {
	for {
		lineBytes, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				trimmed := strings.TrimSpace(string(lineBytes))
				if trimmed == "" {
					return nil, io.EOF
				}
				return []byte(trimmed), nil
			}
			return nil, err
		}

		line := strings.TrimSpace(string(lineBytes))
		if line == "" {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(line), "content-length:") {
			return []byte(line), nil
		}

		length, ok := parseContentLength(line, maxBody)
		if !ok {
			// Treat an unusable header as a plain line; the parse error
			// surfaces upstream as a protocol error, not a dead bridge.
			return []byte(line), nil
		}
		if err := skipHeaders(r); err != nil {
			return nil, err
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		return bytes.TrimSpace(body), nil
	}
}

func parseContentLength(line string, maxBody int) (int, bool) {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 || n > maxBody {
		return 0, false
	}
	return n, true
}

// skipHeaders consumes remaining header lines up to the blank separator.
func skipHeaders(r *bufio.Reader) error {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}
	}
}

// session.go — One live connection of either kind (assistant or plugin),
// bound to a file and owning the serialized sender for its connection.
package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Conn is the slice of *websocket.Conn a session owns: serialized writes go
// through the Sender, Close unblocks the transport's read loop.
type Conn interface {
	FrameWriter
	Close() error
}

// Session represents one live connection. Created by a transport adapter
// once the file id is known; torn down on disconnect, protocol error, or
// registry eviction.
type Session struct {
	ID        string
	FileID    string
	CreatedAt time.Time

	conn   Conn
	sender *Sender
}

// New creates a session around an accepted connection and starts its sender.
func New(fileID string, conn Conn, logger *slog.Logger) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		FileID:    fileID,
		CreatedAt: time.Now(),
	}
	if logger == nil {
		logger = slog.Default()
	}
	s.conn = conn
	s.sender = NewSender(conn, logger.With("session_id", s.ID, "file_id", fileID))
	return s
}

// Send writes one frame through the session's serialized sender.
func (s *Session) Send(frame []byte) error {
	return s.sender.Send(frame)
}

// Sender exposes the serialized sender for diagnostics.
func (s *Session) Sender() *Sender {
	return s.sender
}

// Close tears the session down: the sender stops accepting frames and the
// connection is closed, which unblocks the read loop. Idempotent.
func (s *Session) Close() {
	s.sender.Close()
	_ = s.conn.Close()
}

// sender.go — Serialized single-writer gate for one connection.
// Gorilla websocket connections allow at most one concurrent writer, so all
// outbound frames funnel through one consuming goroutine per connection.
// Each Send parks on its own completion signal, never on the whole queue.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

const sendQueueDepth = 1024

var (
	// ErrSenderClosed: the sender was closed, or its connection failed,
	// before this frame reached the wire.
	ErrSenderClosed = errors.New("sender closed")
	// ErrSendQueueFull: the write queue is saturated. The connection is
	// almost certainly stalled; the caller should treat it as dead.
	ErrSendQueueFull = errors.New("send queue full")
)

// FrameWriter is the slice of *websocket.Conn the sender needs.
type FrameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

type sendJob struct {
	frame []byte
	done  chan error
}

// Sender serializes writes from any number of concurrent callers into
// FIFO frame writes on the underlying connection.
type Sender struct {
	conn   FrameWriter
	logger *slog.Logger
	queue  chan sendJob

	mu     sync.Mutex
	closed bool
}

// NewSender starts the write loop for the given connection.
func NewSender(conn FrameWriter, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sender{
		conn:   conn,
		logger: logger,
		queue:  make(chan sendJob, sendQueueDepth),
	}
	go s.run()
	return s
}

// Send enqueues one frame and blocks until the write loop has written it
// (nil) or failed it. Safe for concurrent use; frames are written in the
// order their Send calls were accepted, with no byte interleaving.
func (s *Sender) Send(frame []byte) error {
	job := sendJob{frame: frame, done: make(chan error, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSenderClosed
	}
	select {
	case s.queue <- job:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return ErrSendQueueFull
	}

	return <-job.done
}

// Close stops the sender: no further sends are accepted, frames already
// queued but not yet written fail with ErrSenderClosed, and the write loop
// terminates once the queue drains. Idempotent.
func (s *Sender) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	// Safe: every producer enqueues under mu after checking closed.
	close(s.queue)
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Sender) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// QueueDepth returns the number of frames waiting to be written.
func (s *Sender) QueueDepth() int {
	return len(s.queue)
}

// run is the single consumer. A write failure fails only that frame's
// waiter; the loop then stays alive draining the queue but fails every
// subsequent frame with ErrSenderClosed, and leaves teardown to the
// transport's read loop, which will notice the dead connection.
func (s *Sender) run() {
	broken := false
	for job := range s.queue {
		if broken || s.Closed() {
			job.done <- ErrSenderClosed
			continue
		}
		if err := s.conn.WriteMessage(websocket.TextMessage, job.frame); err != nil {
			s.logger.Warn("frame write failed", "error", err)
			broken = true
			job.done <- fmt.Errorf("write frame: %w", err)
			continue
		}
		job.done <- nil
	}
}

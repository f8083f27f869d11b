// correlator.go — Request/response correlation for the plugin link.
// Mints request ids, parks one waiter per in-flight command, and resolves
// each waiter exactly once: by reply, by deadline, or by session teardown.
// Thread-safe: the pending table is guarded by a single mutex; resolution
// always removes the entry and completes its channel inside the critical
// section, so a waiter that finds its entry gone can rely on the buffered
// outcome being there.
package correlate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/drawbridge-mcp/drawbridge/internal/wire"
)

// DefaultTimeout bounds a command round-trip when the caller does not
// override it. Canvas operations can be slow (large documents, image
// exports), so this is deliberately generous.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout: the deadline elapsed before the plugin replied.
	ErrTimeout = errors.New("plugin reply timeout")
	// ErrSessionClosed: the owning plugin session disconnected mid-request.
	ErrSessionClosed = errors.New("plugin session closed")
)

// TimeoutError carries the request id and elapsed time for diagnostics.
// It unwraps to ErrTimeout.
type TimeoutError struct {
	RequestID string
	Timeout   time.Duration
	Elapsed   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no reply for %s after %s (timeout %s)", e.RequestID, e.Elapsed.Round(time.Millisecond), e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// ReplyError wraps an error payload the plugin itself reported.
type ReplyError struct {
	RequestID string
	Payload   json.RawMessage
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("plugin reported error for %s: %s", e.RequestID, string(e.Payload))
}

// outcome is the single resolution of a pending request.
type outcome struct {
	result json.RawMessage
	err    error
}

// Pending is one registered in-flight request. Created by Register, consumed
// by exactly one Await (or discarded via Abandon when the send fails).
type Pending struct {
	RequestID string
	sessionID string
	createdAt time.Time
	done      chan outcome
}

// Correlator owns the pending-request table.
type Correlator struct {
	defaultTimeout time.Duration
	logger         *slog.Logger
	seq            atomic.Uint64

	mu      sync.Mutex
	pending map[string]*Pending
}

// New creates a Correlator. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration, logger *slog.Logger) *Correlator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		defaultTimeout: timeout,
		logger:         logger,
		pending:        make(map[string]*Pending),
	}
}

// Register mints a request id and parks a waiter slot for it, associated
// with the plugin session that will carry the command. Registration happens
// before the command bytes go out so a fast reply can never miss its slot.
func (c *Correlator) Register(sessionID string) *Pending {
	id := fmt.Sprintf("%s%s_%d", wire.RequestIDPrefix, ulid.Make().String(), c.seq.Add(1))
	p := &Pending{
		RequestID: id,
		sessionID: sessionID,
		createdAt: time.Now(),
		done:      make(chan outcome, 1),
	}
	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()
	return p
}

// Await blocks the calling goroutine until the request resolves: a matching
// Deliver, the timeout, a CancelAllFor sweep, or context cancellation.
// A timeout of zero selects the correlator default.
func (c *Correlator) Await(ctx context.Context, p *Pending, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-p.done:
		return o.result, o.err
	case <-timer.C:
		if c.takeOut(p.RequestID) == nil {
			// Lost the race: a resolver removed the entry and buffered the
			// outcome before we could.
			o := <-p.done
			return o.result, o.err
		}
		return nil, &TimeoutError{RequestID: p.RequestID, Timeout: timeout, Elapsed: time.Since(p.createdAt)}
	case <-ctx.Done():
		if c.takeOut(p.RequestID) == nil {
			o := <-p.done
			return o.result, o.err
		}
		return nil, ctx.Err()
	}
}

// Deliver resolves the matching pending request with the plugin's reply.
// Late, duplicate, or unknown ids are logged and discarded, never fatal.
// Returns whether a waiter was resolved.
func (c *Correlator) Deliver(requestID string, result, errPayload json.RawMessage) bool {
	c.mu.Lock()
	p, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
		if len(errPayload) > 0 {
			p.done <- outcome{err: &ReplyError{RequestID: requestID, Payload: errPayload}}
		} else {
			p.done <- outcome{result: result}
		}
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("discarding reply with no pending request", "request_id", requestID)
	}
	return ok
}

// CancelAllFor resolves every pending request owned by the given session
// with ErrSessionClosed. Called on plugin disconnect so waiters fail fast
// instead of riding out their timeouts. Returns the number cancelled.
func (c *Correlator) CancelAllFor(sessionID string) int {
	c.mu.Lock()
	n := 0
	for id, p := range c.pending {
		if p.sessionID != sessionID {
			continue
		}
		delete(c.pending, id)
		p.done <- outcome{err: ErrSessionClosed}
		n++
	}
	c.mu.Unlock()

	if n > 0 {
		c.logger.Info("cancelled pending requests for closed session", "session_id", sessionID, "count", n)
	}
	return n
}

// Abandon discards a registered request whose command was never sent
// (send-side failure). No waiter is resolved.
func (c *Correlator) Abandon(p *Pending) {
	c.takeOut(p.RequestID)
}

// PendingCount returns the size of the pending table.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// takeOut removes and returns the pending entry, or nil if already resolved.
func (c *Correlator) takeOut(requestID string) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[requestID]
	if !ok {
		return nil
	}
	delete(c.pending, requestID)
	return p
}

// client.go — Assistant-facing adapter: one read loop per session, one
// goroutine per in-flight request. Malformed frames are answered in place;
// only unexpected internal faults are caught by the per-frame recover, and
// even those get an InternalError response so the session survives.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
	"github.com/drawbridge-mcp/drawbridge/internal/session"
)

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	fileID := fileIDFromRequest(r)
	if fileID == "" {
		s.rejectMissingFileID(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("client upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(s.opts.MaxFrameBytes)

	sess := session.New(fileID, conn, s.logger)
	s.trackClient(sess)
	s.logger.Info("client connected", "session_id", sess.ID, "file_id", fileID)

	// Cancelling the session context resolves any in-flight awaits this
	// client abandoned by disconnecting.
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		s.untrackClient(sess.ID)
		cancel()
		sess.Close()
		s.logger.Info("client disconnected", "session_id", sess.ID, "file_id", fileID)
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		go s.handleClientFrame(ctx, sess, fileID, frame)
	}
}

// handleClientFrame parses and dispatches one inbound frame. Every request
// with an id gets exactly one response, whatever goes wrong.
func (s *Server) handleClientFrame(ctx context.Context, sess *session.Session, fileID string, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic handling client frame",
				"session_id", sess.ID, "panic", rec, "stack", string(debug.Stack()))
			s.respond(sess, mcp.NewErrorResponse(nil, mcp.Errorf(mcp.CodeInternalError, "internal error")))
		}
	}()

	var req mcp.Request
	if err := json.Unmarshal(frame, &req); err != nil {
		s.respond(sess, mcp.NewErrorResponse(nil, mcp.Errorf(mcp.CodeParseError, "parse error: %v", err)))
		return
	}

	resp, ok := s.opts.Router.HandleRequest(ctx, fileID, req, s.opts.Ident)
	if !ok {
		return
	}
	s.respond(sess, resp)
}

func (s *Server) respond(sess *session.Session, resp mcp.Response) {
	if err := sess.Send(resp.Encode()); err != nil {
		s.logger.Warn("dropping response to dead client", "session_id", sess.ID, "error", err)
	}
}

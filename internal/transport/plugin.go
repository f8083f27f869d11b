// plugin.go — Plugin-facing adapter. Registers the session (evicting any
// predecessor for the same file), demultiplexes replies into the
// correlator, and routes plugin-originated requests through the same
// command path as inbound traffic.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
	"github.com/drawbridge-mcp/drawbridge/internal/session"
	"github.com/drawbridge-mcp/drawbridge/internal/wire"
)

func (s *Server) handlePlugin(w http.ResponseWriter, r *http.Request) {
	fileID := fileIDFromRequest(r)
	if fileID == "" {
		s.rejectMissingFileID(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("plugin upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(s.opts.MaxFrameBytes)

	sess := session.New(fileID, conn, s.logger)
	s.opts.Plugins.Register(sess)
	s.logger.Info("plugin connected", "session_id", sess.ID, "file_id", fileID)

	ctx, cancel := context.WithCancel(context.Background())
	// Teardown order matters: unregister first so the registry never points
	// at a dead session, then fail the session's pending awaits, then close.
	defer func() {
		s.opts.Plugins.Unregister(sess.ID)
		s.opts.Correlator.CancelAllFor(sess.ID)
		cancel()
		sess.Close()
		s.logger.Info("plugin disconnected", "session_id", sess.ID, "file_id", fileID)
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch wire.Classify(frame) {
		case wire.KindReply:
			reply, err := wire.DecodeReply(frame)
			if err != nil {
				s.logger.Warn("undecodable plugin reply", "session_id", sess.ID, "error", err)
				continue
			}
			s.opts.Correlator.Deliver(reply.ID, reply.Result, reply.Error)

		case wire.KindRequest:
			go s.handlePluginRequest(ctx, sess, fileID, frame)

		default:
			s.logger.Warn("unrecognized plugin frame",
				"session_id", sess.ID, "bytes", len(frame))
		}
	}
}

// handlePluginRequest serves a request the plugin originated, giving the
// plugin the same method surface an assistant session gets.
func (s *Server) handlePluginRequest(ctx context.Context, sess *session.Session, fileID string, frame []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic handling plugin request",
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

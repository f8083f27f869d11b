// server.go — HTTP server hosting both WebSocket endpoints plus health and
// diagnostics. /mcp carries assistant sessions, /plugin carries plugin
// sessions; both are bound to a file id at handshake time.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drawbridge-mcp/drawbridge/internal/correlate"
	"github.com/drawbridge-mcp/drawbridge/internal/router"
	"github.com/drawbridge-mcp/drawbridge/internal/session"
)

const defaultMaxFrameBytes = 4 << 20 // exports ship base64 image payloads

// Options configures the Server.
type Options struct {
	Addr           string
	Router         *router.Router
	Plugins        *session.Registry
	Correlator     *correlate.Correlator
	Ident          router.ServerIdent
	Logger         *slog.Logger
	MaxFrameBytes  int64
	AllowedOrigins []string
}

// Server accepts assistant and plugin connections and runs their read loops.
type Server struct {
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	httpSrv  *http.Server

	// Assistant sessions are tracked per session id only: many assistant
	// sessions may share a file, and none of them is routed to, so the
	// file-exclusive registry is reserved for the plugin side.
	clientsMu sync.Mutex
	clients   map[string]*session.Session
}

// New creates the server and installs its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = defaultMaxFrameBytes
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		upgrader: makeUpgrader(opts.AllowedOrigins),
		mux:      http.NewServeMux(),
		clients:  make(map[string]*session.Session),
	}
	s.mux.HandleFunc("GET /mcp", s.handleClient)
	s.mux.HandleFunc("GET /plugin", s.handlePlugin)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /diagnostics", s.handleDiagnostics)
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// makeUpgrader builds the WebSocket upgrader with an origin policy. An empty
// allow-list (or "*") admits everyone; non-browser clients send no Origin
// and are always admitted.
func makeUpgrader(allowed []string) websocket.Upgrader {
	allowAll := len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*")
	originSet := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		originSet[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return originSet[origin]
		},
	}
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks serving connections until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.opts.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting connections and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// fileIDFromRequest extracts the file id from handshake metadata: the
// fileId query parameter, falling back to the X-File-Id header.
func fileIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("fileId"); id != "" {
		return id
	}
	return r.Header.Get("X-File-Id")
}

// rejectMissingFileID answers a handshake that carries no usable file id.
// A clear diagnostic, never a silent drop.
func (s *Server) rejectMissingFileID(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("rejecting connection without file id",
		"path", r.URL.Path, "remote", r.RemoteAddr)
	http.Error(w, "missing file id: pass ?fileId=<id> or the X-File-Id header", http.StatusBadRequest)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"plugins": s.opts.Plugins.Count(),
		"clients": s.clientCount(),
		"pending": s.opts.Correlator.PendingCount(),
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"plugins":          s.opts.Plugins.Diagnostics(),
		"clients":          s.clientDiagnostics(),
		"pending_requests": s.opts.Correlator.PendingCount(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) trackClient(sess *session.Session) {
	s.clientsMu.Lock()
	s.clients[sess.ID] = sess
	s.clientsMu.Unlock()
}

func (s *Server) untrackClient(sessionID string) {
	s.clientsMu.Lock()
	delete(s.clients, sessionID)
	s.clientsMu.Unlock()
}

func (s *Server) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) clientDiagnostics() []session.Info {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	out := make([]session.Info, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, session.Info{
			SessionID:   c.ID,
			FileID:      c.FileID,
			ConnectedAt: c.CreatedAt.Format(time.RFC3339),
			QueueDepth:  c.Sender().QueueDepth(),
		})
	}
	return out
}

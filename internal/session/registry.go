// registry.go — File-keyed session registry with last-connection-wins
// eviction. The router resolves exactly one plugin session per file through
// this map; all mutation goes through registry methods so the eviction
// invariant can't be bypassed.
// Thread-safe: all access guarded by RWMutex.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// Registry is a bidirectional fileID <-> session mapping for one session
// kind. At most one session is registered per fileID at a time.
type Registry struct {
	kind   string
	logger *slog.Logger

	mu     sync.RWMutex
	byFile map[string]*Session
	byID   map[string]string // sessionID -> fileID
}

// NewRegistry creates an empty registry. kind labels log lines
// ("plugin", "client").
func NewRegistry(kind string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		kind:   kind,
		logger: logger.With("registry", kind),
		byFile: make(map[string]*Session),
		byID:   make(map[string]string),
	}
}

// Register inserts the session for its fileID. If another session already
// holds the fileID it is removed and torn down first — a replacement, not an
// error: reconnecting plugins routinely race their own half-dead
// predecessors. The old session's sender is closed before Register returns.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	old := r.byFile[s.FileID]
	if old != nil {
		delete(r.byID, old.ID)
	}
	r.byFile[s.FileID] = s
	r.byID[s.ID] = s.FileID
	r.mu.Unlock()

	if old != nil {
		r.logger.Info("replacing session for file",
			"file_id", s.FileID, "old_session_id", old.ID, "new_session_id", s.ID)
		old.Close()
	}
}

// Unregister removes the session by id. A no-op if the session is absent or
// has already been replaced — disconnect races must not fail.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fileID, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	// Only drop the file slot if this session still owns it; an eviction may
	// have installed a successor.
	if cur := r.byFile[fileID]; cur != nil && cur.ID == sessionID {
		delete(r.byFile, fileID)
	}
}

// LookupByFile returns the current session for the fileID, or nil when no
// connection of this kind exists for the file. Callers surface nil as a
// typed "not connected" error; nobody blocks waiting for a session.
func (r *Registry) LookupByFile(fileID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byFile[fileID]
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byFile)
}

// Info is the JSON-serializable view of a session for /diagnostics.
type Info struct {
	SessionID   string `json:"session_id"`
	FileID      string `json:"file_id"`
	ConnectedAt string `json:"connected_at"`
	QueueDepth  int    `json:"queue_depth"`
}

// Diagnostics returns a snapshot of all registered sessions.
func (r *Registry) Diagnostics() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.byFile))
	for _, s := range r.byFile {
		out = append(out, Info{
			SessionID:   s.ID,
			FileID:      s.FileID,
			ConnectedAt: s.CreatedAt.Format(time.RFC3339),
			QueueDepth:  s.sender.QueueDepth(),
		})
	}
	return out
}

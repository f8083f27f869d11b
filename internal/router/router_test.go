package router

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drawbridge-mcp/drawbridge/internal/correlate"
	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
	"github.com/drawbridge-mcp/drawbridge/internal/session"
	"github.com/drawbridge-mcp/drawbridge/internal/tools"
	"github.com/drawbridge-mcp/drawbridge/internal/wire"
)

// fakeConn captures frames the router sends toward the plugin.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) Close() error { return nil }

// lastCommand polls for the most recent frame and decodes it.
func (f *fakeConn) lastCommand(t *testing.T) wire.Command {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		n := len(f.frames)
		var frame []byte
		if n > 0 {
			frame = f.frames[n-1]
		}
		f.mu.Unlock()
		if frame != nil {
			var cmd wire.Command
			if err := json.Unmarshal(frame, &cmd); err != nil {
				t.Fatalf("sent frame is not a command: %v", err)
			}
			return cmd
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no command reached the plugin connection")
	return wire.Command{}
}

type env struct {
	router  *Router
	plugins *session.Registry
	corr    *correlate.Correlator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	plugins := session.NewRegistry("plugin", nil)
	corr := correlate.New(5*time.Second, nil)
	return &env{
		router:  New(tools.Default(), plugins, corr, 5*time.Second, nil),
		plugins: plugins,
		corr:    corr,
	}
}

func (e *env) connectPlugin(fileID string) (*session.Session, *fakeConn) {
	conn := &fakeConn{}
	s := session.New(fileID, conn, nil)
	e.plugins.Register(s)
	return s, conn
}

func TestInvokeUnknownTool(t *testing.T) {
	e := newEnv(t)
	// No plugin registered: the unknown tool must fail before any session
	// lookup is attempted.
	_, invErr := e.router.Invoke(context.Background(), "abc", "nonexistent_tool", json.RawMessage(`{}`))
	if invErr == nil || invErr.Code != mcp.CodeMethodNotFound {
		t.Fatalf("got %+v, want MethodNotFound", invErr)
	}
}

func TestInvokeInvalidParamsNamesField(t *testing.T) {
	e := newEnv(t)
	e.connectPlugin("abc")

	_, invErr := e.router.Invoke(context.Background(), "abc", "create_rectangle",
		json.RawMessage(`{"x":0,"y":0,"height":50}`))
	if invErr == nil || invErr.Code != mcp.CodeInvalidParams {
		t.Fatalf("got %+v, want InvalidParams", invErr)
	}
	if !strings.Contains(invErr.Message, "width") {
		t.Errorf("message %q should name the offending field", invErr.Message)
	}
}

func TestInvokeNoPluginConnection(t *testing.T) {
	e := newEnv(t)

	start := time.Now()
	_, invErr := e.router.Invoke(context.Background(), "no-plugin-here", "create_rectangle",
		json.RawMessage(`{"x":0,"y":0,"width":100,"height":50}`))
	elapsed := time.Since(start)

	if invErr == nil || invErr.Code != mcp.CodeNoPluginConnection {
		t.Fatalf("got %+v, want NoPluginConnection", invErr)
	}
	if !invErr.Retryable() {
		t.Error("NoPluginConnection should be retryable")
	}
	if elapsed > time.Second {
		t.Errorf("no-connection failure took %s, should be immediate", elapsed)
	}
}

// Full round trip: command goes out, plugin replies, router formats.
func TestInvokeRoundTrip(t *testing.T) {
	e := newEnv(t)
	_, conn := e.connectPlugin("abc")

	type invokeResult struct {
		payload json.RawMessage
		invErr  *mcp.Error
	}
	done := make(chan invokeResult, 1)
	go func() {
		payload, invErr := e.router.Invoke(context.Background(), "abc", "create_rectangle",
			json.RawMessage(`{"x":10,"y":20,"width":100,"height":50}`))
		done <- invokeResult{payload, invErr}
	}()

	cmd := conn.lastCommand(t)
	if cmd.Method != "create_rectangle" {
		t.Errorf("method = %q, want create_rectangle", cmd.Method)
	}
	if !strings.HasPrefix(cmd.ID, "req_") {
		t.Errorf("command id %q lacks req_ prefix", cmd.ID)
	}
	var sent map[string]any
	if err := json.Unmarshal(cmd.Params, &sent); err != nil {
		t.Fatalf("params: %v", err)
	}
	if sent["width"] != 100.0 || sent["height"] != 50.0 {
		t.Errorf("params = %v", sent)
	}

	e.corr.Deliver(cmd.ID, json.RawMessage(`{"nodeId":"1:23"}`), nil)

	res := <-done
	if res.invErr != nil {
		t.Fatalf("invoke failed: %+v", res.invErr)
	}
	var toolResult mcp.ToolResult
	if err := json.Unmarshal(res.payload, &toolResult); err != nil {
		t.Fatalf("result is not a ToolResult: %v", err)
	}
	if toolResult.IsError {
		t.Error("result should not be an error")
	}
	if len(toolResult.Content) == 0 || !strings.Contains(toolResult.Content[0].Text, "1:23") {
		t.Errorf("result should contain the new nodeId, got %+v", toolResult.Content)
	}
}

// Plugin disconnects before replying: the call fails fast with a
// disconnect-derived error, not after the full timeout.
func TestInvokePluginDisconnectMidFlight(t *testing.T) {
	e := newEnv(t)
	sess, conn := e.connectPlugin("abc")

	done := make(chan *mcp.Error, 1)
	start := time.Now()
	go func() {
		_, invErr := e.router.Invoke(context.Background(), "abc", "get_document_info", nil)
		done <- invErr
	}()

	conn.lastCommand(t) // wait for the command to be in flight

	// Transport teardown ordering on disconnect.
	e.plugins.Unregister(sess.ID)
	e.corr.CancelAllFor(sess.ID)
	sess.Close()

	select {
	case invErr := <-done:
		if invErr == nil || invErr.Code != mcp.CodePluginDisconnected {
			t.Fatalf("got %+v, want PluginDisconnected", invErr)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("disconnect surfaced after %s, want milliseconds", elapsed)
		}
	case <-time.After(4 * time.Second):
		t.Fatal("invoke did not resolve after plugin disconnect")
	}
}

func TestInvokeTimeout(t *testing.T) {
	plugins := session.NewRegistry("plugin", nil)
	corr := correlate.New(50*time.Millisecond, nil)
	r := New(tools.Default(), plugins, corr, 50*time.Millisecond, nil)

	conn := &fakeConn{}
	plugins.Register(session.New("abc", conn, nil))

	_, invErr := r.Invoke(context.Background(), "abc", "get_selection", nil)
	if invErr == nil || invErr.Code != mcp.CodePluginTimeout {
		t.Fatalf("got %+v, want PluginTimeout", invErr)
	}
	if corr.PendingCount() != 0 {
		t.Errorf("pending = %d after timeout, want 0", corr.PendingCount())
	}
}

// An error reported by the plugin is a completed call: it comes back as a
// tool result flagged isError, not as an RPC error.
func TestInvokePluginReportedError(t *testing.T) {
	e := newEnv(t)
	_, conn := e.connectPlugin("abc")

	done := make(chan json.RawMessage, 1)
	go func() {
		payload, invErr := e.router.Invoke(context.Background(), "abc", "delete_node",
			json.RawMessage(`{"nodeId":"9:99"}`))
		if invErr != nil {
			t.Errorf("plugin-reported errors should not become RPC errors: %+v", invErr)
		}
		done <- payload
	}()

	cmd := conn.lastCommand(t)
	e.corr.Deliver(cmd.ID, nil, json.RawMessage(`{"message":"node not found"}`))

	var toolResult mcp.ToolResult
	if err := json.Unmarshal(<-done, &toolResult); err != nil {
		t.Fatalf("result: %v", err)
	}
	if !toolResult.IsError {
		t.Error("plugin error should produce an isError tool result")
	}
	if !strings.Contains(toolResult.Content[0].Text, "node not found") {
		t.Errorf("result should carry the plugin's message, got %+v", toolResult.Content)
	}
}

func TestHandleRequestSurface(t *testing.T) {
	e := newEnv(t)
	ident := ServerIdent{Name: "drawbridge", Version: "test"}

	mustParse := func(t *testing.T, raw string) mcp.Request {
		t.Helper()
		var req mcp.Request
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			t.Fatalf("parse request: %v", err)
		}
		return req
	}

	t.Run("initialize", func(t *testing.T) {
		resp, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","id":"1","method":"initialize","params":{}}`), ident)
		if !ok || resp.Error != nil {
			t.Fatalf("initialize failed: %+v", resp.Error)
		}
		var init mcp.InitializeResult
		if err := json.Unmarshal(resp.Result, &init); err != nil {
			t.Fatal(err)
		}
		if init.ServerInfo.Name != "drawbridge" || init.ProtocolVersion != mcp.ProtocolVersion {
			t.Errorf("unexpected initialize result: %+v", init)
		}
	})

	t.Run("tools list", func(t *testing.T) {
		resp, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`), ident)
		if !ok || resp.Error != nil {
			t.Fatalf("tools/list failed: %+v", resp.Error)
		}
		var list mcp.ToolsListResult
		if err := json.Unmarshal(resp.Result, &list); err != nil {
			t.Fatal(err)
		}
		if len(list.Tools) == 0 {
			t.Fatal("tools/list returned no tools")
		}
		if list.Tools[0].InputSchema == nil {
			t.Error("tool descriptors must carry input schemas")
		}
	})

	t.Run("notification gets no response", func(t *testing.T) {
		_, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`), ident)
		if ok {
			t.Error("notifications must not be answered")
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		resp, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","id":"3","method":"resources/list"}`), ident)
		if !ok || resp.Error == nil || resp.Error.Code != mcp.CodeMethodNotFound {
			t.Fatalf("got %+v, want MethodNotFound", resp.Error)
		}
	})

	t.Run("null id rejected", func(t *testing.T) {
		resp, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","id":null,"method":"ping"}`), ident)
		if !ok || resp.Error == nil || resp.Error.Code != mcp.CodeInvalidRequest {
			t.Fatalf("got %+v, want InvalidRequest", resp.Error)
		}
	})

	t.Run("tools call without name", func(t *testing.T) {
		resp, ok := e.router.HandleRequest(context.Background(), "abc",
			mustParse(t, `{"jsonrpc":"2.0","id":"4","method":"tools/call","params":{}}`), ident)
		if !ok || resp.Error == nil || resp.Error.Code != mcp.CodeInvalidParams {
			t.Fatalf("got %+v, want InvalidParams", resp.Error)
		}
	})
}

// router.go — Routes one inbound tool invocation to the plugin session for
// the same file and awaits the correlated reply.
// Failure ladder, in order: unknown tool, invalid params, no plugin
// connection, send failure, timeout / mid-flight disconnect. Every failure
// becomes a typed *mcp.Error so the transport can always answer.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/drawbridge-mcp/drawbridge/internal/correlate"
	"github.com/drawbridge-mcp/drawbridge/internal/mcp"
	"github.com/drawbridge-mcp/drawbridge/internal/session"
	"github.com/drawbridge-mcp/drawbridge/internal/tools"
	"github.com/drawbridge-mcp/drawbridge/internal/wire"
)

// ExportTimeout is the deadline for image-export commands, which move
// megabytes of base64 through the plugin.
const ExportTimeout = 90 * time.Second

// Router matches inbound tool calls to plugin sessions.
type Router struct {
	catalog *tools.Catalog
	plugins *session.Registry
	corr    *correlate.Correlator
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Router. A zero timeout defers to the correlator's default.
func New(catalog *tools.Catalog, plugins *session.Registry, corr *correlate.Correlator, timeout time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		catalog: catalog,
		plugins: plugins,
		corr:    corr,
		timeout: timeout,
		logger:  logger,
	}
}

// Invoke runs one tool call against the plugin connected for fileID.
// On success the returned payload is a marshaled mcp.ToolResult; plugin-side
// execution errors also come back as a ToolResult with isError set, since
// the call itself completed. Only bridge-level failures return *mcp.Error.
func (r *Router) Invoke(ctx context.Context, fileID, toolName string, rawArgs json.RawMessage) (json.RawMessage, *mcp.Error) {
	tool, ok := r.catalog.Get(toolName)
	if !ok {
		return nil, mcp.Errorf(mcp.CodeMethodNotFound, "unknown tool %q", toolName)
	}

	params, err := tool.Validate(rawArgs)
	if err != nil {
		return nil, mcp.Errorf(mcp.CodeInvalidParams, "%s: %s", toolName, err.Error())
	}

	sess := r.plugins.LookupByFile(fileID)
	if sess == nil {
		return nil, mcp.Errorf(mcp.CodeNoPluginConnection,
			"no plugin connection for file %q: open the file and start the plugin, then retry", fileID)
	}

	pending := r.corr.Register(sess.ID)
	method, cmdParams := tool.BuildCommand(params)
	cmd, err := wire.NewCommand(pending.RequestID, method, cmdParams)
	if err != nil {
		r.corr.Abandon(pending)
		return nil, mcp.Errorf(mcp.CodeInternalError, "build command: %v", err)
	}
	frame, err := cmd.Encode()
	if err != nil {
		r.corr.Abandon(pending)
		return nil, mcp.Errorf(mcp.CodeInternalError, "encode command: %v", err)
	}

	if err := sess.Send(frame); err != nil {
		r.corr.Abandon(pending)
		if errors.Is(err, session.ErrSenderClosed) {
			return nil, mcp.Errorf(mcp.CodePluginDisconnected,
				"plugin for file %q disconnected before the command was sent", fileID)
		}
		return nil, mcp.Errorf(mcp.CodeInternalError, "send command: %v", err)
	}

	r.logger.Debug("command sent",
		"request_id", pending.RequestID, "method", method, "file_id", fileID)

	result, err := r.corr.Await(ctx, pending, r.timeoutFor(toolName))
	if err != nil {
		var replyErr *correlate.ReplyError
		switch {
		case errors.As(err, &replyErr):
			// The plugin answered with an execution error: a completed call.
			return mcp.ErrorResult("Plugin error: " + string(replyErr.Payload)), nil
		case errors.Is(err, correlate.ErrTimeout):
			return nil, mcp.Errorf(mcp.CodePluginTimeout, "%s: %v", toolName, err)
		case errors.Is(err, correlate.ErrSessionClosed):
			return nil, mcp.Errorf(mcp.CodePluginDisconnected,
				"plugin for file %q disconnected while %s was in flight", fileID, toolName)
		default:
			return nil, mcp.Errorf(mcp.CodeInternalError, "await reply: %v", err)
		}
	}

	return tool.FormatResult(result, params), nil
}

// timeoutFor grants slow tool categories a longer deadline. Zero means the
// correlator default.
func (r *Router) timeoutFor(toolName string) time.Duration {
	if toolName == "export_node_as_image" {
		return ExportTimeout
	}
	return r.timeout
}

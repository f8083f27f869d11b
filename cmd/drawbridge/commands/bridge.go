// bridge.go — The bridge command: stdio MCP shim for editors that spawn
// their MCP servers as child processes. stdout carries protocol frames
// only; logs go to stderr.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/drawbridge-mcp/drawbridge/internal/bridge"
)

func newBridgeCmd() *cobra.Command {
	var (
		serverURL string
		fileID    string
		wait      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Bridge stdio MCP to a running drawbridge server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fileID == "" {
				fileID = os.Getenv("DRAWBRIDGE_FILE_ID")
			}
			if fileID == "" {
				return fmt.Errorf("a file id is required: pass --file or set DRAWBRIDGE_FILE_ID")
			}

			logger := newLogger("info")
			ctx := cmd.Context()
			if wait > 0 {
				if err := bridge.WaitForServer(ctx, serverURL, wait); err != nil {
					return err
				}
			}
			err := bridge.Run(ctx, serverURL, fileID, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			if bridge.IsConnectionError(err) {
				return fmt.Errorf("cannot reach drawbridge server at %s (is `drawbridge serve` running?): %w", serverURL, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:3055", "drawbridge server URL")
	cmd.Flags().StringVar(&fileID, "file", "", "file id this session is bound to")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "how long to wait for the server to come up (0 to fail fast)")
	return cmd
}

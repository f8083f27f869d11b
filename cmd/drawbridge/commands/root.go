// root.go — CLI entry point and command tree.
package commands

import "github.com/spf13/cobra"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "drawbridge",
		Short:         "MCP bridge between AI assistants and design-canvas plugins",
		Long:          "drawbridge brokers tool calls from MCP clients to the canvas plugin connected for the same file, over WebSocket, with per-file routing and request correlation.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newBridgeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

package main

import (
	"os"

	"github.com/drawbridge-mcp/drawbridge/cmd/drawbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

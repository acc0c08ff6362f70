package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	// Stdout belongs to the stdio transport; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:   "gqlbridge",
		Short: "Expose a GraphQL API as MCP tools for LLM agents",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(introspectCmd())
	root.AddCommand(discoverCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

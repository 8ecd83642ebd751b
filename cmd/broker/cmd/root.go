package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "broker",
	Short: "Sandbox code-execution broker",
	Long: `broker runs the multi-tenant code-execution sandbox: a Session
Manager backed by per-session Docker containers, with a small HTTP surface
for artifact downloads. It serves no tool-call interface of its own.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "postcastctl",
	Short: "Operator tool for the postcast service",
	Long: `postcastctl helps run and poke at a postcast deployment.

Available commands:
  token     Mint a bearer token for a user id
  migrate   Apply the posts schema to a database
  listen    Print live notifications from a running server

Configuration is read from the same environment (and .env file) as the API.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

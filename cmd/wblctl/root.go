package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wblctl",
	Short: "Run and administer the wbl-catalog server",
	Long: `wblctl runs the wbl-catalog HTTP server and provides the operator
commands that go with it: database migrations, user setup, configuration
inspection and signing key generation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

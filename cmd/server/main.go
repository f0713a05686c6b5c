package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proverka/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "proverka",
	Short:         "Schema-driven request validation service",
	SilenceUsage:  true,
	SilenceErrors: true,
	// без подкоманды — serve
	RunE: runServe,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"

	"NovaFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "novafm",
	Short: "NovaFM is an offline-first music library service.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package cmd

import (
	"NovaFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the NovaFM server",
	Long:  `Start the HTTP server: self-heals the local cache, then serves the API and subscription sockets.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

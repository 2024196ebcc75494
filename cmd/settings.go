package cmd

import (
	"fmt"
	"log"

	"NovaFM/config"
	"NovaFM/db"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Check the settings store connection",
	Long:  `Connects to the redis settings store and performs a round-trip read/write.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("settings store: %s:%s db %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("connection failed: %v", err)
		}
		if err := db.TestRedis(); err != nil {
			log.Fatalf("round-trip failed: %v", err)
		}
		if err := db.CloseRedis(); err != nil {
			log.Printf("close failed: %v", err)
		}
		fmt.Println("settings store ok")
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

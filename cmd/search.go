package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"NovaFM/config"
	"NovaFM/core/catalog"

	"github.com/spf13/cobra"
)

var (
	searchQuery string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the music catalog from the command line",
	Run: func(cmd *cobra.Command, args []string) {
		if searchQuery == "" {
			log.Fatal("a query is required, use -q")
		}

		cfg := config.Load()
		client := catalog.NewClient(cfg.CatalogBaseURL)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		results, err := client.Search(ctx, searchQuery, searchLimit)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("no results")
			return
		}

		for i, meta := range results {
			fmt.Printf("%2d. %s - %s (%ds) [%s]\n",
				i+1, joinArtists(meta.Artists), meta.Title, meta.DurationSec, meta.ID)
		}
	},
}

func joinArtists(artists []string) string {
	if len(artists) == 0 {
		return "Unknown"
	}
	out := artists[0]
	for _, a := range artists[1:] {
		out += ", " + a
	}
	return out
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "max results")
	rootCmd.AddCommand(searchCmd)
}

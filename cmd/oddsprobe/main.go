// Command oddsprobe fetches the odds once and prints the flattened records
// without writing to the store. Useful for checking an API key or sport.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/odds-data/internal/api"
	"github.com/rickgao/odds-data/internal/config"
	"github.com/rickgao/odds-data/internal/extract"
	"github.com/rickgao/odds-data/internal/model"
	"github.com/rickgao/odds-data/internal/version"
)

func main() {
	sport := flag.String("sport", config.DefaultSport, "sport key")
	regions := flag.String("regions", config.DefaultRegion, "comma-separated bookmaker regions")
	baseURL := flag.String("base-url", config.DefaultBaseURL, "odds API base URL")
	listSports := flag.Bool("list-sports", false, "list sports instead of fetching odds")
	flag.Parse()

	_ = godotenv.Load()
	apiKey := os.Getenv(config.APIKeyEnv)
	if apiKey == "" {
		log.Fatalf("%s is not set", config.APIKeyEnv)
	}

	client := api.NewClient(
		*baseURL,
		apiKey,
		api.WithTimeout(30*time.Second),
		api.WithRetries(1, 0),
		api.WithUserAgent(version.UserAgent()),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *listSports {
		printSports(ctx, client)
		return
	}

	fmt.Printf("=== Fetching %s odds ===\n", *sport)
	resp, err := client.GetOdds(ctx, api.OddsRequest{
		Sport:      *sport,
		Regions:    strings.Split(*regions, ","),
		Markets:    []string{model.MarketHeadToHead},
		OddsFormat: config.DefaultOddsFormat,
	})
	if err != nil {
		log.Fatalf("GetOdds failed: %v", err)
	}
	if resp.Quota.Known {
		fmt.Printf("Quota: %d remaining, %d used, last request cost %d\n",
			resp.Quota.Remaining, resp.Quota.Used, resp.Quota.Last)
	}
	fmt.Printf("Events: %d\n\n", len(resp.Events))

	w := csv.NewWriter(os.Stdout)
	w.Write(model.Columns)

	now := time.Now()
	malformed := 0
	for _, raw := range resp.Events {
		_, records, err := extract.Event(raw, now)
		if err != nil {
			malformed++
			fmt.Fprintf(os.Stderr, "skipped: %v\n", err)
			continue
		}
		for _, r := range records {
			w.Write(r.Row())
		}
	}
	w.Flush()

	if malformed > 0 {
		fmt.Printf("\n%d malformed events skipped\n", malformed)
	}
}

func printSports(ctx context.Context, client *api.Client) {
	fmt.Println("=== Sports ===")
	sports, err := client.GetSports(ctx, true)
	if err != nil {
		log.Fatalf("GetSports failed: %v", err)
	}
	for _, s := range sports {
		active := ""
		if s.Active {
			active = " (active)"
		}
		fmt.Printf("  %-40s %s / %s%s\n", s.Key, s.Group, s.Title, active)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/firmscout/internal/collection"
	"github.com/meshintel/firmscout/internal/notify"
	"github.com/meshintel/firmscout/internal/orchestrate"
	"github.com/meshintel/firmscout/internal/searchapi"
	"github.com/meshintel/firmscout/internal/store"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a batched company search and save new results",
	Long: `Search submits a query to the remote search service, shows live progress,
and merges the returned companies into your saved collection. Results
already in the collection are skipped, so re-running a search only adds
what is new.

The estimated credit cost (batch size times unit cost) is reserved before
submission and settled at the actual charge when the search completes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		subject, _ := cmd.Flags().GetString("subject")
		locality, _ := cmd.Flags().GetString("locality")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		client := searchapi.NewClient(cfg.Service)
		led, err := seedLedger(ctx, s, client)
		if err != nil {
			return err
		}
		coll, err := loadCollection(ctx, s, cfg)
		if err != nil {
			return err
		}

		progressOut := os.Stderr
		engine := orchestrate.New(cfg, orchestrate.Deps{
			Service:    client,
			Persist:    s,
			Ledger:     led,
			Collection: coll,
			Notifier:   notify.NewWriter(os.Stderr),
			OnProgress: func(pct int) {
				fmt.Fprintf(progressOut, "\rsearching... %3d%%", pct)
				if pct >= 100 {
					fmt.Fprintln(progressOut)
				}
			},
		})

		out, err := engine.Run(ctx, orchestrate.Query{
			FreeText:  query,
			Subject:   subject,
			Locality:  locality,
			BatchSize: batchSize,
		})
		if err != nil {
			return err
		}

		// Show only what this search added.
		items := engine.Collection().Items()
		fresh := items[:0:0]
		for _, it := range items {
			if it.OriginSearchID == out.Job.ID {
				fresh = append(fresh, it)
			}
		}

		if asJSON {
			return collection.FormatJSON(fresh, os.Stdout)
		}
		collection.FormatTable(fresh, os.Stdout)
		return nil
	},
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search query")
	searchCmd.Flags().String("subject", "", "structured query: what to search for (e.g. \"fintech startups\")")
	searchCmd.Flags().String("locality", "", "structured query: where to search (e.g. \"Berlin\")")
	searchCmd.Flags().Int("batch-size", 10, "number of results to request")
	searchCmd.Flags().Bool("json", false, "output new results as JSON")

	rootCmd.AddCommand(searchCmd)
}

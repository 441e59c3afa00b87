// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/firmscout/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past searches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		jobs, err := s.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No searches recorded.")
			return nil
		}

		w := os.Stdout
		fmt.Fprintf(w, "%-20s  %-40s  %8s  %7s\n", "When", "Query", "Results", "Credits")
		fmt.Fprintln(w, strings.Repeat("-", 82))
		for _, job := range jobs {
			query := job.Query
			if len(query) > 40 {
				query = query[:37] + "..."
			}
			fmt.Fprintf(w, "%-20s  %-40s  %8d  %7d\n",
				job.StartedAt.Local().Format("2006-01-02 15:04"), query, job.ResultCount, job.ChargedCost)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of searches to show")

	rootCmd.AddCommand(historyCmd)
}

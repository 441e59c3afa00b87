// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meshintel/firmscout/internal/searchapi"
	"github.com/meshintel/firmscout/internal/store"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the current credit balance",
	Long: `Credits fetches the authoritative balance from the service and refreshes
the locally mirrored copy. With --offline, only the mirror is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")

		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if offline {
			balance, ok, err := s.Balance(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no balance recorded yet; run without --offline first")
			}
			fmt.Printf("%d credits (mirrored)\n", balance)
			return nil
		}

		balance, err := searchapi.NewClient(cfg.Service).Balance(ctx)
		if err != nil {
			return err
		}
		if err := s.PutBalance(ctx, balance); err != nil {
			return err
		}
		fmt.Printf("%d credits\n", balance)
		return nil
	},
}

func init() {
	creditsCmd.Flags().Bool("offline", false, "show the mirrored balance without contacting the service")

	rootCmd.AddCommand(creditsCmd)
}

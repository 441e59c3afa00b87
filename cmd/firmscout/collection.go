// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/firmscout/internal/collection"
	"github.com/meshintel/firmscout/internal/notify"
	"github.com/meshintel/firmscout/internal/reconcile"
	"github.com/meshintel/firmscout/internal/store"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "List, delete, export, or clear saved results",
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved results",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		coll, err := loadCollection(cmd.Context(), s, cfg)
		if err != nil {
			return err
		}

		if asJSON {
			return collection.FormatJSON(coll.Items(), os.Stdout)
		}
		collection.FormatTable(coll.Items(), os.Stdout)
		return nil
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <name or identity id>...",
	Short: "Delete saved results by name or identity id",
	Long: `Delete removes saved results from the collection. Each argument is matched
against the item's identity id first, then its display name (case-insensitive).
The item disappears immediately and is restored if the deletion cannot be
confirmed against the store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		coll, err := loadCollection(ctx, s, cfg)
		if err != nil {
			return err
		}
		tombs := reconcile.NewTombstones(cfg.Collection.SuppressionPasses)
		mgr := collection.NewManager(coll, tombs, s, notify.NewWriter(os.Stderr))

		var firstErr error
		for _, arg := range args {
			key, ok := resolveKey(coll, arg)
			if !ok {
				fmt.Fprintf(os.Stderr, "error: %q is not in the collection\n", arg)
				if firstErr == nil {
					firstErr = fmt.Errorf("%q: %w", arg, collection.ErrNotInCollection)
				}
				continue
			}
			if err := mgr.Delete(ctx, key); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	},
}

var collectionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		coll, err := loadCollection(ctx, s, cfg)
		if err != nil {
			return err
		}
		tombs := reconcile.NewTombstones(cfg.Collection.SuppressionPasses)
		mgr := collection.NewManager(coll, tombs, s, notify.NewWriter(os.Stderr))

		out, err := mgr.DeleteAll(ctx)
		if err != nil {
			return err
		}
		if !out.Clean() {
			return fmt.Errorf("cleared %d of %d items", out.Deleted, out.Total())
		}
		return nil
	},
}

var collectionExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export saved results grouped by search",
	Long: `Export writes the collection to a file, grouped by the search that produced
each item. The format follows the file extension: .yaml/.yml or .json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		cfg := engineConfig()
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		storeGroups, err := s.ListGrouped(cmd.Context(), cfg.Collection.ListLimit)
		if err != nil {
			return err
		}
		groups := make([]collection.Group, len(storeGroups))
		for i, g := range storeGroups {
			groups[i] = collection.Group{SearchID: g.SearchID, Query: g.Query, Items: g.Items}
		}

		switch {
		case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
			err = collection.ExportYAML(groups, path)
		case strings.HasSuffix(path, ".json"):
			err = collection.ExportJSON(groups, path)
		default:
			return fmt.Errorf("unsupported export format %q (use .yaml or .json)", path)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d searches to %s\n", len(groups), path)
		return nil
	},
}

// resolveKey maps a user-supplied argument onto a dedup key: an exact key
// match first, then a case-insensitive display-name match.
func resolveKey(coll *reconcile.Collection, arg string) (string, bool) {
	if coll.Has(arg) {
		return arg, true
	}
	lower := strings.ToLower(arg)
	for _, it := range coll.Items() {
		if strings.ToLower(it.DisplayName) == lower {
			return reconcile.Key(it), true
		}
	}
	return "", false
}

func init() {
	collectionListCmd.Flags().Bool("json", false, "output as JSON")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
	collectionCmd.AddCommand(collectionClearCmd)
	collectionCmd.AddCommand(collectionExportCmd)
	rootCmd.AddCommand(collectionCmd)
}

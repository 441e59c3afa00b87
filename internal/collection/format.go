// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collection

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/firmscout/pkg/types"
)

// Group is a slice of saved items under the search that produced them.
type Group struct {
	SearchID string           `json:"search_id" yaml:"search_id"`
	Query    string           `json:"query" yaml:"query"`
	Items    []types.ResultItem `json:"items" yaml:"items"`
}

// FormatTable writes items as a human-readable table to w.
func FormatTable(items []types.ResultItem, w io.Writer) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Collection is empty.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-32s  %-24s  %s\n", "#", "Name", "Location", "Summary")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for i, it := range items {
		fmt.Fprintf(w, "%-4d  %-32s  %-24s  %s\n",
			i+1, truncate(it.DisplayName, 32), truncate(it.LocationDisplay, 24), truncate(it.Summary, 32))
	}

	fmt.Fprintf(w, "\n%d saved items\n", len(items))
}

// FormatJSON writes items as indented JSON to w.
func FormatJSON(items []types.ResultItem, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// ExportYAML writes the grouped collection to path as YAML.
func ExportYAML(groups []Group, path string) error {
	data, err := yaml.Marshal(groups)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the grouped collection to path as JSON.
func ExportJSON(groups []Group, path string) error {
	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

package collection

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/firmscout/pkg/types"
)

func sampleItems() []types.ResultItem {
	return []types.ResultItem{
		{IdentityID: "F1", DisplayName: "Acme Capital", LocationDisplay: "New York, NY", Summary: "Seed-stage fintech investor"},
		{IdentityID: "F2", DisplayName: "Globex Robotics", LocationDisplay: "San Francisco, CA", Summary: "Industrial automation startup"},
	}
}

func TestFormatTableGolden(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleItems(), &buf)

	g := goldie.New(t)
	g.Assert(t, "collection_table", buf.Bytes())
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "Collection is empty.") {
		t.Errorf("empty collection output = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(sampleItems(), &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var decoded []types.ResultItem
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].IdentityID != "F1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExportFiles(t *testing.T) {
	groups := []Group{
		{SearchID: "s1", Query: "fintech startups in New York", Items: sampleItems()[:1]},
		{SearchID: "s2", Query: "robotics startups in SF", Items: sampleItems()[1:]},
	}
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "collection.yaml")
	if err := ExportYAML(groups, yamlPath); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var fromYAML []Group
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(fromYAML) != 2 || fromYAML[0].Query != groups[0].Query {
		t.Errorf("YAML round trip = %+v", fromYAML)
	}

	jsonPath := filepath.Join(dir, "collection.json")
	if err := ExportJSON(groups, jsonPath); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var fromJSON []Group
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(fromJSON) != 2 || len(fromJSON[1].Items) != 1 {
		t.Errorf("JSON round trip = %+v", fromJSON)
	}
}

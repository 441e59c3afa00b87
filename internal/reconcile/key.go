// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges search result batches into a single deduplicated
// collection and guards it against resurrecting deleted items.
package reconcile

import (
	"strings"
	"unicode"

	"github.com/meshintel/firmscout/pkg/types"
)

// Key returns the stable dedup key for an item. The authoritative identity
// id wins when present; otherwise the key is the normalized display name
// and location, since the backend does not guarantee a stable id for every
// item and the same entity can come back from two different searches.
func Key(item types.ResultItem) string {
	if item.IdentityID != "" {
		return item.IdentityID
	}
	return normalize(item.DisplayName) + "|" + normalize(item.LocationDisplay)
}

// normalize returns a lowercased, punctuation-stripped form of s with
// whitespace collapsed. Empty input yields an empty string.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

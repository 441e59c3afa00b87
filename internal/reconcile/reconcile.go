// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import "github.com/meshintel/firmscout/pkg/types"

// Merge combines incoming result items into existing and returns a new
// collection; existing is never mutated, so a failure mid-merge cannot
// corrupt the previously persisted collection and the caller swaps the
// result in atomically on success.
//
// An incoming item is appended only if its dedup key is neither already
// present nor suppressed by a live deletion tombstone. First-seen-wins on
// key collision: existing attributes are never overwritten. The pass is
// linear in total item count and deterministic for equal-key items.
func Merge(existing *Collection, incoming []types.ResultItem, suppressed *Tombstones) *Collection {
	merged := NewCollection()
	if existing != nil {
		for _, it := range existing.items {
			merged.Insert(it)
		}
	}

	seen := make(map[string]bool, len(incoming))
	for _, it := range incoming {
		key := Key(it)
		seen[key] = true
		if merged.Has(key) {
			continue
		}
		if suppressed != nil && suppressed.Suppressed(key) {
			continue
		}
		merged.Insert(it)
	}

	if suppressed != nil {
		suppressed.completePass(seen)
	}
	return merged
}

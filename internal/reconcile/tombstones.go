// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

const defaultPassBudget = 3

// Tombstones is the suppression set consulted during Merge: keys of items
// deleted optimistically but not yet confirmed absent from a reload. A
// marker prevents a stale remote read from resurrecting a just-deleted
// item. Markers are short-lived, not permanent storage: a marker is dropped
// once a reconciliation pass completes without seeing its key, or after its
// pass budget is exhausted, so the set cannot grow without bound.
type Tombstones struct {
	passBudget int
	marks      map[string]int // key → remaining passes
}

// NewTombstones returns an empty suppression set. A marker survives at most
// passBudget reconciliation passes; zero or negative uses the default (3).
func NewTombstones(passBudget int) *Tombstones {
	if passBudget <= 0 {
		passBudget = defaultPassBudget
	}
	return &Tombstones{passBudget: passBudget, marks: make(map[string]int)}
}

// Mark records a pending deletion for key. Installed synchronously before
// the remote delete is issued, closing the race where a reload started just
// after the delete could re-add the item.
func (t *Tombstones) Mark(key string) {
	t.marks[key] = t.passBudget
}

// Unmark drops the marker for key. Called when a delete is rolled back.
func (t *Tombstones) Unmark(key string) {
	delete(t.marks, key)
}

// Suppressed reports whether key has a live marker.
func (t *Tombstones) Suppressed(key string) bool {
	_, ok := t.marks[key]
	return ok
}

// Len returns the number of live markers.
func (t *Tombstones) Len() int {
	return len(t.marks)
}

// completePass ages the markers after a reconciliation pass. A marker whose
// key was absent from the incoming batch is confirmed gone and dropped
// immediately; one still being returned by a lagging reload loses a pass
// and is dropped when its budget runs out.
func (t *Tombstones) completePass(seen map[string]bool) {
	for key, remaining := range t.marks {
		if !seen[key] {
			delete(t.marks, key)
			continue
		}
		remaining--
		if remaining <= 0 {
			delete(t.marks, key)
			continue
		}
		t.marks[key] = remaining
	}
}

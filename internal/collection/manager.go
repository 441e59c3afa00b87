// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collection owns the user's saved result collection: optimistic
// deletions with rollback, bulk deletion, and export formatting.
package collection

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/meshintel/firmscout/internal/notify"
	"github.com/meshintel/firmscout/internal/reconcile"
)

// RemoteDeleter deletes a saved item from the persistent store and reports
// how many records were affected. Zero affected with a nil error means the
// item was already gone remotely.
type RemoteDeleter interface {
	DeleteItem(ctx context.Context, key string) (int, error)
}

// ErrNotInCollection is returned when a delete names a key the local
// collection does not hold.
var ErrNotInCollection = fmt.Errorf("item not in collection")

// Manager performs speculative local mutations ahead of remote
// confirmation. A delete removes the item and installs a suppression
// marker synchronously, before the remote call, so a reload racing the
// delete cannot resurrect the item; the remote outcome then decides
// whether the removal sticks or rolls back.
type Manager struct {
	coll     *reconcile.Collection
	tombs    *reconcile.Tombstones
	remote   RemoteDeleter
	notifier notify.Notifier
}

// NewManager wires the manager to the collection it mutates.
func NewManager(coll *reconcile.Collection, tombs *reconcile.Tombstones, remote RemoteDeleter, notifier notify.Notifier) *Manager {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Manager{coll: coll, tombs: tombs, remote: remote, notifier: notifier}
}

// Delete removes the item with the given dedup key. State machine per
// item: present → pendingDelete → deleted, or back to present (restored)
// when the remote delete fails or affects nothing.
func (m *Manager) Delete(ctx context.Context, key string) error {
	item, ok := m.coll.Remove(key)
	if !ok {
		return fmt.Errorf("delete %q: %w", key, ErrNotInCollection)
	}
	m.tombs.Mark(key)

	affected, err := m.remote.DeleteItem(ctx, key)
	if err != nil {
		m.tombs.Unmark(key)
		m.coll.Insert(item)
		m.notifier.Errorf("could not delete %q: %v", item.DisplayName, err)
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	if affected == 0 {
		// Soft failure: nothing to delete remotely. Restore and tell the
		// user rather than failing the operation.
		m.tombs.Unmark(key)
		m.coll.Insert(item)
		m.notifier.Infof("%q not found remotely, it may already be deleted", item.DisplayName)
		return nil
	}

	// The marker outlives the delete for a bounded number of
	// reconciliation passes to absorb in-flight reloads.
	m.notifier.Successf("deleted %q", item.DisplayName)
	return nil
}

// BulkOutcome aggregates per-item results of a bulk delete.
type BulkOutcome struct {
	Deleted  int
	Missing  int // remotely absent, restored locally
	Failed   int // remote error, restored locally
	Restored int
}

// Total returns the number of items processed.
func (o BulkOutcome) Total() int {
	return o.Deleted + o.Missing + o.Failed
}

// Clean reports whether every deletion was confirmed.
func (o BulkOutcome) Clean() bool {
	return o.Missing == 0 && o.Failed == 0
}

// DeleteAll removes every item in the collection. Remote deletes run
// concurrently; collection mutations stay on the calling goroutine, before
// the fan-out (optimistic removal) and after it (restores), preserving the
// single-writer rule. The collection ends empty only if every delete was
// confirmed; otherwise unconfirmed items are restored individually.
func (m *Manager) DeleteAll(ctx context.Context) (BulkOutcome, error) {
	items := m.coll.Items()
	if len(items) == 0 {
		return BulkOutcome{}, nil
	}

	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = reconcile.Key(it)
		m.coll.Remove(keys[i])
		m.tombs.Mark(keys[i])
	}

	type result struct {
		affected int
		err      error
	}
	results := make([]result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range items {
		g.Go(func() error {
			affected, err := m.remote.DeleteItem(gctx, keys[i])
			results[i] = result{affected: affected, err: err}
			return nil
		})
	}
	g.Wait()

	var out BulkOutcome
	for i, res := range results {
		switch {
		case res.err != nil:
			out.Failed++
			m.tombs.Unmark(keys[i])
			if m.coll.Insert(items[i]) {
				out.Restored++
			}
		case res.affected == 0:
			out.Missing++
			m.tombs.Unmark(keys[i])
			if m.coll.Insert(items[i]) {
				out.Restored++
			}
		default:
			out.Deleted++
		}
	}

	if out.Clean() {
		m.notifier.Successf("deleted %d items", out.Deleted)
	} else {
		m.notifier.Errorf("deleted %d of %d items; %d restored", out.Deleted, out.Total(), out.Restored)
	}
	return out, nil
}

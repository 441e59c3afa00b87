// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/meshintel/firmscout/internal/ledger"
	"github.com/meshintel/firmscout/internal/reconcile"
	"github.com/meshintel/firmscout/internal/searchapi"
	"github.com/meshintel/firmscout/internal/store"
	"github.com/meshintel/firmscout/pkg/types"
)

// loadCollection rebuilds the in-memory collection from the saved items.
func loadCollection(ctx context.Context, s *store.Store, cfg types.EngineConfig) (*reconcile.Collection, error) {
	groups, err := s.ListGrouped(ctx, cfg.Collection.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	coll := reconcile.NewCollection()
	for _, g := range groups {
		for _, it := range g.Items {
			coll.Insert(it)
		}
	}
	return coll, nil
}

// seedLedger builds the credit ledger, preferring the locally mirrored
// balance and falling back to the authoritative remote balance on first use.
func seedLedger(ctx context.Context, s *store.Store, client *searchapi.Client) (*ledger.Ledger, error) {
	balance, ok, err := s.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		balance, err = client.Balance(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching credit balance: %w", err)
		}
		if err := s.PutBalance(ctx, balance); err != nil {
			return nil, err
		}
	}
	return ledger.New(balance), nil
}

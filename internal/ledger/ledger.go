// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger tracks the user's credit balance and meters search
// operations against it. The remote credit authority remains the source of
// truth; the ledger is an optimistic local mirror that holds reservations
// for in-flight operations so a second operation cannot overspend while the
// first is pending.
package ledger

import (
	"errors"
	"fmt"
)

// Ledger holds the confirmed balance and the sum of outstanding
// reservations. Available() must never go negative: Reserve checks the
// available balance before any operation is allowed to proceed.
//
// The ledger is single-writer: only the orchestrator mutates it, under the
// engine's one-operation-at-a-time model, so it carries no lock.
type Ledger struct {
	confirmed int
	reserved  int
}

// New returns a ledger mirroring the given confirmed balance.
func New(confirmed int) *Ledger {
	if confirmed < 0 {
		confirmed = 0
	}
	return &Ledger{confirmed: confirmed}
}

// Confirmed returns the mirrored authoritative balance.
func (l *Ledger) Confirmed() int { return l.confirmed }

// Reserved returns the sum of outstanding reservations.
func (l *Ledger) Reserved() int { return l.reserved }

// Available returns the balance usable for a new operation.
func (l *Ledger) Available() int { return l.confirmed - l.reserved }

// SetConfirmed overwrites the mirror with an authoritative balance from the
// credit authority.
func (l *Ledger) SetConfirmed(balance int) {
	if balance < 0 {
		balance = 0
	}
	l.confirmed = balance
}

// Estimate returns the predicted cost of a search: batchSize * unitCost,
// never below zero.
func Estimate(batchSize, unitCost int) int {
	if batchSize <= 0 || unitCost <= 0 {
		return 0
	}
	return batchSize * unitCost
}

// Reservation is a credit hold placed before an operation's real cost is
// known. Exactly one of Settle or Release must be called for each
// reservation, including on failure paths.
type Reservation struct {
	amount int
	closed bool
}

// Amount returns the held credit amount.
func (r *Reservation) Amount() int { return r.amount }

// Reserve places a hold of cost credits. It fails with
// InsufficientCreditsError when the available balance cannot cover it; the
// caller must not submit the remote request in that case.
func (l *Ledger) Reserve(cost int) (*Reservation, error) {
	if cost < 0 {
		return nil, fmt.Errorf("reserve: negative cost %d", cost)
	}
	if l.Available() < cost {
		return nil, &InsufficientCreditsError{Needed: cost, Available: l.Available()}
	}
	l.reserved += cost
	return &Reservation{amount: cost}, nil
}

// Settle converts the reservation into a real charge: the confirmed balance
// drops by actualCost (which may be less than the reserved amount for
// partial results, and zero on failure paths) and the hold is released.
func (l *Ledger) Settle(r *Reservation, actualCost int) error {
	if err := l.close(r); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	if actualCost < 0 {
		actualCost = 0
	}
	l.confirmed -= actualCost
	if l.confirmed < 0 {
		l.confirmed = 0
	}
	return nil
}

// Release undoes the reservation without touching the confirmed balance.
// Called when an operation aborts before any remote cost is incurred.
func (l *Ledger) Release(r *Reservation) error {
	if err := l.close(r); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}

func (l *Ledger) close(r *Reservation) error {
	if r == nil {
		return errors.New("nil reservation")
	}
	if r.closed {
		return errors.New("reservation already settled")
	}
	r.closed = true
	l.reserved -= r.amount
	if l.reserved < 0 {
		l.reserved = 0
	}
	return nil
}

// InsufficientCreditsError reports a reservation the available balance
// cannot cover. It carries the required and available amounts so the caller
// can surface both to the user.
type InsufficientCreditsError struct {
	Needed    int
	Available int
}

// Error implements the error interface.
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Needed, e.Available)
}

// IsInsufficientCredits reports whether err is an InsufficientCreditsError,
// unwrapping as needed.
func IsInsufficientCredits(err error) bool {
	var ic *InsufficientCreditsError
	return errors.As(err, &ic)
}

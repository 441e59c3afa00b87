// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the firmscout engine.
package types

import "time"

// ResultItem represents a discovered entity (a firm or a contact) returned
// by the remote search service. Two items are the same entity iff their
// dedup key matches, regardless of which search batch produced them; the
// key is the identity id when present and a name+location fallback
// otherwise.
type ResultItem struct {
	// IdentityID is the authoritative id assigned by the search backend.
	// The backend does not guarantee one for every item.
	IdentityID string `json:"identity_id,omitempty" yaml:"identity_id,omitempty"`

	// DisplayName is the firm or contact name as returned by the backend.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// LocationDisplay is the human-readable location (e.g. "San Francisco, CA").
	LocationDisplay string `json:"location_display" yaml:"location_display"`

	// Summary is a free-form description of the entity.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// ContactInfo holds free-form contact details (email, site, phone).
	ContactInfo string `json:"contact_info,omitempty" yaml:"contact_info,omitempty"`

	// OriginSearchID identifies the search job that produced this item.
	OriginSearchID string `json:"origin_search_id" yaml:"origin_search_id"`

	// SavedAt is when the item entered the user's collection.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
}

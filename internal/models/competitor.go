package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SearchResult is one raw competitor record from the marketplace search API,
// already sorted by ascending price upstream.
type SearchResult struct {
	Username     string
	OfferID      string
	Title        string
	UnitPrice    decimal.Decimal
	DisplayPrice decimal.Decimal
	Currency     string
}

// Validate checks the fields the snapshot builder depends on.
func (r SearchResult) Validate() error {
	if r.Username == "" {
		return errors.New("search result username must not be empty")
	}
	if r.OfferID == "" {
		return errors.New("search result offer ID must not be empty")
	}
	if r.Currency == "" {
		return errors.New("search result currency must not be empty")
	}
	return nil
}

// CompetitorEntry is a ranked, normalized competitor listing inside a
// snapshot. Price is always USD: for non-USD listings it is taken from the
// record's display price and the entry is flagged as Converted.
type CompetitorEntry struct {
	Username  string
	OfferID   string
	Title     string
	Price     decimal.Decimal
	Currency  string
	Converted bool
	OfferType OfferType
}

// Snapshot is the ranked, normalized, type-filtered view of competitor
// offers for one pricing cycle. Entries are dense and 1-based: Entries[i]
// holds rank i+1. The owner's own listing appears both as a ranked entry and
// as the distinguished Owner record; the two are never mixed into one
// container keyed by rank.
type Snapshot struct {
	Entries []CompetitorEntry
	Owner   OwnerInfo

	// BelowFloorSellers collects usernames of ignore-exempt sellers ranked
	// before the owner was located whose normalized price is below the
	// owner's current category floor. Input to escalation eligibility.
	BelowFloorSellers []string
}

// LastRank returns the highest rank in the snapshot.
func (s *Snapshot) LastRank() int {
	return len(s.Entries)
}

// At returns the entry holding the given 1-based rank.
func (s *Snapshot) At(rank int) CompetitorEntry {
	return s.Entries[rank-1]
}

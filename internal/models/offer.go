// Package models defines the core domain entities for the repricer: pricing
// categories, the owner's listing metadata, ranked competitor entries, the
// per-cycle snapshot, and the tagged pricing decision.
//
// All entities are constructed fresh for a single pricing cycle of a single
// offer; none persist beyond one decision.
package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// OfferType is the binary classification of a listing, derived from whether
// any configured ignore word appears in its title. Competitor entries are
// comparable to the owner's entry only when the types match.
type OfferType int

const (
	ItemType OfferType = iota
	SchematicType
)

func (t OfferType) String() string {
	if t == SchematicType {
		return "schematic_type"
	}
	return "item_type"
}

// ClassifyOfferType derives the OfferType of a title: SchematicType when any
// ignore word occurs as a substring, ItemType otherwise.
func ClassifyOfferType(title string, ignoreWords []string) OfferType {
	for _, word := range ignoreWords {
		if word != "" && strings.Contains(title, word) {
			return SchematicType
		}
	}
	return ItemType
}

// OwnerOffer is one raw listing row of the owner, as handed to the engine by
// the offer retrieval collaborator.
type OwnerOffer struct {
	OfferID        string
	Title          string
	UnitPrice      decimal.Decimal
	MinPurchaseQty int
}

// Validate checks the fields required before a pricing cycle can start.
func (o OwnerOffer) Validate() error {
	if o.OfferID == "" {
		return errors.New("offer ID must not be empty")
	}
	if o.Title == "" {
		return errors.New("offer title must not be empty")
	}
	if o.UnitPrice.IsNegative() {
		return errors.New("offer unit price must not be negative")
	}
	return nil
}

// OwnerInfo is the owner's parsed and located entry within a snapshot:
// category metadata from the title tag plus rank and price once the snapshot
// builder finds the owner among the ranked results.
type OwnerInfo struct {
	Username      string
	OfferID       string
	Title         string
	ShortTitle    string
	OfferType     OfferType
	Category      PricingCategory
	Position      int
	PreviousPrice decimal.Decimal
}

// Package pricing implements the repricing decision engine: parsing the
// category tag out of a listing title, building the ranked competitor
// snapshot, migrating the category when the listing is stuck, and producing
// the terminal pricing decision.
//
// The engine is pure and synchronous. Each call gets an independent snapshot
// and configuration view, so the surrounding worker pool may invoke it
// concurrently across offers without coordination.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// Engine evaluates one offer per call against its competitor search results.
type Engine struct {
	cfg      Config
	patterns []categoryPattern
}

// NewEngine validates the configuration and precompiles the per-category
// title patterns.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pricing config: %w", err)
	}
	patterns, err := compilePatterns(cfg.Categories)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, patterns: patterns}, nil
}

// Outcome is the result of one pricing cycle for one offer.
type Outcome struct {
	OfferID    string
	ShortTitle string
	Decision   models.Decision

	// NewTitle is non-empty when category escalation rewrote the listing
	// title; it must be pushed back to the marketplace even when no price
	// change happened this cycle.
	NewTitle string

	// NewMinPurchaseQty is non-zero when the new price dropped the order
	// value below the configured minimum and the purchase quantity must be
	// raised to compensate.
	NewMinPurchaseQty int
}

// Reprice runs the full cycle for a single offer: parse the title tag,
// build the snapshot, apply category escalation, decide.
//
// Parse and snapshot failures are returned as errors (the caller logs and
// skips the offer). Any unexpected panic during evaluation is recovered at
// this boundary and converted to an Error decision carrying the short title
// and offer id; it never propagates to crash the caller.
func (e *Engine) Reprice(offer models.OwnerOffer, results []models.SearchResult) (out Outcome, err error) {
	out.OfferID = offer.OfferID
	if verr := offer.Validate(); verr != nil {
		return out, fmt.Errorf("offer %s: %w", offer.OfferID, verr)
	}

	info, perr := e.ParseTitle(offer.Title)
	if perr != nil {
		return out, perr
	}
	info.OfferID = offer.OfferID
	out.ShortTitle = info.ShortTitle

	defer func() {
		if r := recover(); r != nil {
			err = nil
			out.Decision = models.ErrorDecision("evaluation failed for %s (offer %s): %v",
				info.ShortTitle, offer.OfferID, r)
		}
	}()

	snap, berr := e.BuildSnapshot(results, info)
	if berr != nil {
		return out, berr
	}

	if newTitle, escalated := e.Escalate(snap); escalated {
		out.NewTitle = newTitle
	}

	out.Decision = e.Decide(snap)

	if out.Decision.Kind == models.DecisionNewPrice {
		out.NewMinPurchaseQty = e.adjustedMinQty(out.Decision.Price, offer.MinPurchaseQty)
	}
	return out, nil
}

// adjustedMinQty raises the minimum purchase quantity when the new price
// makes price × qty fall under the configured minimal order value. Returns 0
// when no adjustment is needed.
func (e *Engine) adjustedMinQty(price decimal.Decimal, currentQty int) int {
	if !e.cfg.MinOrderValue.IsPositive() || currentQty <= 0 || !price.IsPositive() {
		return 0
	}
	orderValue := price.Mul(decimal.NewFromInt(int64(currentQty)))
	if orderValue.GreaterThanOrEqual(e.cfg.MinOrderValue) {
		return 0
	}
	return int(e.cfg.MinOrderValue.Div(price).Ceil().IntPart())
}

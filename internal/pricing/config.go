package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// Config is the explicit value object carrying everything the engine needs
// for one pricing cycle. It is constructed once at startup and passed in;
// engine behavior never depends on process-wide mutable state.
type Config struct {
	OwnerUsername string
	Categories    *models.CategorySet

	// IgnoreWords mark schematic-type listings; see models.ClassifyOfferType.
	IgnoreWords []string

	// The top-priority category uses its own competitor ignore list; every
	// other category shares the second one.
	IgnoreCompetitorsTop   []string
	IgnoreCompetitorsOther []string

	// Two-tier undercut: competitors priced at or below ThresholdPrice are
	// undercut by UndercutBelowPct, the rest by UndercutAbovePct.
	ThresholdPrice   decimal.Decimal
	UndercutBelowPct decimal.Decimal
	UndercutAbovePct decimal.Decimal

	// Pull-up settings: never pull above PullCeiling, price PullMarginPct
	// under the next rank, and only when the percent gap to the next rank
	// lies within [PullMinGapPct, PullMaxGapPct].
	PullCeiling   decimal.Decimal
	PullMarginPct decimal.Decimal
	PullMinGapPct decimal.Decimal
	PullMaxGapPct decimal.Decimal

	// Category escalation thresholds (positions and below-floor seller
	// counts), for prices over and under the current floor respectively.
	OverLimitPosition  int
	UnderLimitPosition int

	// NonPopularDiscountPct is a reserved extension point for discounting
	// the sole seller of a non-popular item. Currently dormant.
	NonPopularDiscountPct decimal.Decimal

	// MinOrderValue is the minimal acceptable price × min-purchase-qty
	// product; a price drop below it raises the suggested purchase qty.
	MinOrderValue decimal.Decimal
}

// Validate checks that the configuration can drive a pricing cycle.
func (c Config) Validate() error {
	if c.OwnerUsername == "" {
		return errors.New("owner username is required")
	}
	if c.Categories == nil {
		return errors.New("category set is required")
	}
	if !c.ThresholdPrice.IsPositive() {
		return errors.New("threshold price must be positive")
	}
	for name, pct := range map[string]decimal.Decimal{
		"undercut_percent_below": c.UndercutBelowPct,
		"undercut_percent_above": c.UndercutAbovePct,
		"pull_margin_percent":    c.PullMarginPct,
	} {
		if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return fmt.Errorf("%s must be in [0, 100), got %s", name, pct)
		}
	}
	if !c.PullCeiling.IsPositive() {
		return errors.New("pull ceiling must be positive")
	}
	if c.PullMinGapPct.IsNegative() || c.PullMaxGapPct.LessThan(c.PullMinGapPct) {
		return fmt.Errorf("pull gap band [%s, %s] is invalid", c.PullMinGapPct, c.PullMaxGapPct)
	}
	if c.OverLimitPosition < 1 {
		return errors.New("over-limit position threshold must be at least 1")
	}
	if c.UnderLimitPosition < 1 {
		return errors.New("under-limit position threshold must be at least 1")
	}
	if c.MinOrderValue.IsNegative() {
		return errors.New("min order value must not be negative")
	}
	return nil
}

// ignoreListFor picks the competitor ignore list active for the category.
func (c Config) ignoreListFor(category models.PricingCategory) []string {
	if c.Categories.IsTop(category) {
		return c.IgnoreCompetitorsTop
	}
	return c.IgnoreCompetitorsOther
}

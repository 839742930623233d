package pricing

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Roll1ngo/Last-item-bot/internal/logger"
	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// percentCut returns price reduced by pct percent, at full precision.
// Callers round to 6 decimal places at the point the value becomes a price.
func percentCut(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(one.Sub(pct.Div(hundred)))
}

// percentDifference returns |(other - base) / base| × 100 at full precision.
// Rounding is applied only when the value is formatted for logs.
func percentDifference(base, other decimal.Decimal) decimal.Decimal {
	return other.Sub(base).Div(base).Mul(hundred).Abs()
}

// pullIndicator reports whether the owner is effectively first among real
// competitors: literally at rank 1 with at least one other ranked entry, or
// preceded only by ignored sellers.
func pullIndicator(ownerPosition int, entries []models.CompetitorEntry, ignore []string) bool {
	if ownerPosition == 1 {
		return len(entries) >= 2
	}
	for _, entry := range entries[:ownerPosition-1] {
		if !slices.Contains(ignore, entry.Username) {
			return false
		}
	}
	return true
}

// undercutCoefficient picks the percentage for beating a competitor price:
// one tier at or below the configured threshold price, another above it.
func (e *Engine) undercutCoefficient(price decimal.Decimal) decimal.Decimal {
	if price.LessThanOrEqual(e.cfg.ThresholdPrice) {
		return e.cfg.UndercutBelowPct
	}
	return e.cfg.UndercutAbovePct
}

// Decide runs the terminal decision procedure over the (possibly escalated)
// snapshot and returns exactly one tagged decision. Ranks are walked from 1
// upward; the first branch that resolves terminates the evaluation, so at
// most one price change is produced per cycle.
func (e *Engine) Decide(s *models.Snapshot) models.Decision {
	owner := s.Owner
	ignore := e.cfg.ignoreListFor(owner.Category)
	isTop := e.cfg.Categories.IsTop(owner.Category)
	pull := pullIndicator(owner.Position, s.Entries, ignore)

	for i, entry := range s.Entries {
		rank := i + 1
		price := entry.Price

		switch {
		case slices.Contains(ignore, entry.Username):
			logger.Debugf("[%s] ignoring %s at position %d on %s (price %s)",
				owner.OfferID, entry.Username, rank, owner.ShortTitle, price)
			continue

		case entry.Username == owner.Username && rank == 1 && len(s.Entries) == 1:
			// Reserved branch: a sole-seller discount for non-popular items
			// (NonPopularDiscountPct) is intentionally dormant here.
			return models.NoChange("%s is the sole seller of %s at %s",
				owner.Username, owner.ShortTitle, price)

		case pull:
			return e.pullToward(s, rank, price)

		case entry.Username == owner.Username && rank != 1:
			return models.NoChange("owner keeps position %d on %s at %s",
				rank, owner.ShortTitle, price)

		case price.LessThan(owner.Category.Floor) && !isTop:
			continue
		}

		coef := e.undercutCoefficient(price)
		newPrice := percentCut(price, coef).Round(6)
		logger.Infof("[%s] undercutting %s at position %d on %s: %s -> %s (coefficient %s%%)",
			owner.OfferID, entry.Username, rank, owner.ShortTitle, price, newPrice, coef)
		return models.NewPrice(newPrice)
	}

	return models.NoChange("no competitors found for %s", owner.ShortTitle)
}

// pullToward raises the owner's price toward the next-ranked competitor when
// already leading: never past the pull ceiling, by the configured margin
// under the next rank, and only when the percent gap to the next rank lies
// within the configured band.
func (e *Engine) pullToward(s *models.Snapshot, rank int, price decimal.Decimal) models.Decision {
	owner := s.Owner
	if owner.Position == s.LastRank() {
		return models.NoChange("owner is last at position %d on %s, nothing to pull toward",
			owner.Position, owner.ShortTitle)
	}
	if price.GreaterThan(e.cfg.PullCeiling) {
		return models.NoChange("price %s on %s exceeds pull ceiling %s",
			price, owner.ShortTitle, e.cfg.PullCeiling)
	}

	next := s.At(rank + 1)
	gap := percentDifference(price, next.Price)
	potential := percentCut(next.Price, e.cfg.PullMarginPct)

	if potential.GreaterThan(e.cfg.PullCeiling) {
		return models.NoChange("pulled price %s on %s would exceed ceiling %s",
			potential.Round(6), owner.ShortTitle, e.cfg.PullCeiling)
	}
	if gap.GreaterThanOrEqual(e.cfg.PullMinGapPct) && gap.LessThanOrEqual(e.cfg.PullMaxGapPct) &&
		potential.LessThan(e.cfg.PullCeiling) {
		newPrice := potential.Round(6)
		logger.Infof("[%s] pulling %s up from %s to %s, gap to %s at position %d was %s%%",
			owner.OfferID, owner.ShortTitle, price, newPrice, next.Username, rank+1, gap.StringFixed(2))
		return models.NewPrice(newPrice)
	}
	return models.NoChange("gap to position %d on %s is %s%%, outside [%s, %s]",
		rank+1, owner.ShortTitle, gap.StringFixed(2), e.cfg.PullMinGapPct, e.cfg.PullMaxGapPct)
}

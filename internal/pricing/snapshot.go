package pricing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Roll1ngo/Last-item-bot/internal/logger"
	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// ErrInvalidSnapshot is returned when the ranked view is unusable: no
// comparable sellers at all, or the owner was not found within the visible
// page. The offer is skipped for this cycle; no price change is sent.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

const usdCurrency = "USD"

// BuildSnapshot converts the raw, price-ascending search results into a
// dense, 1-based ranked snapshot:
//
//   - records whose OfferType differs from the owner's are skipped and do
//     not consume a rank;
//   - records with the owner's username but a different offer id are other
//     listings of the same seller, skipped likewise;
//   - non-USD records are re-priced from their display price (already USD
//     equivalent) and flagged;
//   - the owner's own record fills in Position and PreviousPrice.
//
// While ranking, it collects usernames of ignore-exempt sellers priced below
// the owner's category floor; collection stops once the owner is located.
func (e *Engine) BuildSnapshot(results []models.SearchResult, owner models.OwnerInfo) (*models.Snapshot, error) {
	ignore := e.cfg.ignoreListFor(owner.Category)
	snap := &models.Snapshot{Owner: owner}
	located := false

	for _, r := range results {
		offerType := models.ClassifyOfferType(r.Title, e.cfg.IgnoreWords)
		if offerType != owner.OfferType {
			continue
		}
		if r.Username == owner.Username && r.OfferID != owner.OfferID {
			logger.Debugf("[%s] skipping %s's unrelated listing %s (%s)",
				owner.OfferID, r.Username, r.OfferID, r.Title)
			continue
		}

		price := r.UnitPrice.Round(6)
		converted := false
		if r.Currency != usdCurrency {
			logger.Warnf("[%s] seller %s lists %s in %s, ranking by display price %s instead of unit price %s",
				owner.OfferID, r.Username, r.Title, r.Currency, r.DisplayPrice, r.UnitPrice)
			price = r.DisplayPrice.Round(6)
			converted = true
		}

		snap.Entries = append(snap.Entries, models.CompetitorEntry{
			Username:  r.Username,
			OfferID:   r.OfferID,
			Title:     r.Title,
			Price:     price,
			Currency:  r.Currency,
			Converted: converted,
			OfferType: offerType,
		})
		rank := len(snap.Entries)

		if !located && !slices.Contains(ignore, r.Username) && price.LessThan(owner.Category.Floor) {
			snap.BelowFloorSellers = append(snap.BelowFloorSellers, r.Username)
		}

		if r.Username == owner.Username && r.OfferID == owner.OfferID {
			snap.Owner.PreviousPrice = price
			snap.Owner.Position = rank
			located = true
		}
	}

	if len(snap.Entries) == 0 {
		return nil, fmt.Errorf("%w: no comparable sellers for %s", ErrInvalidSnapshot, owner.ShortTitle)
	}
	if !located {
		return nil, fmt.Errorf("%w: owner %s not found within the visible page for %s (offer %s)",
			ErrInvalidSnapshot, owner.Username, owner.ShortTitle, owner.OfferID)
	}
	return snap, nil
}

package pricing

import (
	"strings"

	"github.com/Roll1ngo/Last-item-bot/internal/logger"
	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// Escalate decides whether the owner's category must migrate to the next,
// more permissive category before pricing: the owner is buried at or past
// the configured position while enough ignore-exempt sellers sit below the
// current floor. The over-limit and under-limit tests are mutually exclusive
// by the sign of the price-to-floor comparison.
//
// On transition the snapshot's owner record is updated in place (category,
// floor, title) and the rewritten title is returned for the caller to push
// back to the listing, independent of whether a price change also happens
// this cycle. The top-priority category never escalates; a terminal category
// logs and stays put.
func (e *Engine) Escalate(s *models.Snapshot) (string, bool) {
	owner := &s.Owner
	if e.cfg.Categories.IsTop(owner.Category) {
		return "", false
	}

	floor := owner.Category.Floor
	belowFloor := len(s.BelowFloorSellers)
	over := owner.PreviousPrice.GreaterThan(floor) &&
		owner.Position >= e.cfg.OverLimitPosition &&
		belowFloor >= e.cfg.OverLimitPosition
	under := owner.PreviousPrice.LessThan(floor) &&
		owner.Position >= e.cfg.UnderLimitPosition &&
		belowFloor >= e.cfg.UnderLimitPosition
	if !over && !under {
		return "", false
	}

	next, ok := e.cfg.Categories.Next(owner.Category)
	if !ok {
		logger.Infof("[%s] category %s is terminal, escalation skipped for %s",
			owner.OfferID, owner.Category.Name, owner.ShortTitle)
		return "", false
	}

	newTitle := strings.ReplaceAll(owner.Title, owner.Category.Symbol, next.Symbol)
	logger.Infof("[%s] escalating %s from %s(%s, floor %s) to %s(%s, floor %s): position %d, price %s, %d sellers below floor",
		owner.OfferID, owner.ShortTitle,
		owner.Category.Name, owner.Category.Symbol, owner.Category.Floor,
		next.Name, next.Symbol, next.Floor,
		owner.Position, owner.PreviousPrice, belowFloor)

	owner.Title = newTitle
	owner.Category = next
	return newTitle, true
}

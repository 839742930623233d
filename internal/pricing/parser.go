package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// ErrNoCategoryTag is returned when no category's delimiter pair brackets a
// substring of the title. The listing cannot be priced this cycle.
var ErrNoCategoryTag = errors.New("no category delimiter matched the title")

type categoryPattern struct {
	category models.PricingCategory
	re       *regexp.Regexp
}

// compilePatterns builds one "delimiter ... same-delimiter" pattern per
// category, in registration order. Each category uses a unique delimiter, so
// match order only matters for malformed titles.
func compilePatterns(set *models.CategorySet) ([]categoryPattern, error) {
	patterns := make([]categoryPattern, 0, len(set.Registered()))
	for _, c := range set.Registered() {
		sym := regexp.QuoteMeta(c.Symbol)
		re, err := regexp.Compile(sym + "([^" + sym + "]+)" + sym)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		patterns = append(patterns, categoryPattern{category: c, re: re})
	}
	return patterns, nil
}

// ParseTitle extracts the delimiter-wrapped short title and the pricing
// category it names from a raw listing title. The first category whose
// pattern matches wins. The returned OwnerInfo carries no position or price
// yet; the snapshot builder fills those in.
func (e *Engine) ParseTitle(title string) (models.OwnerInfo, error) {
	for _, p := range e.patterns {
		m := p.re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		short := strings.TrimSpace(m[1])
		return models.OwnerInfo{
			Username:   e.cfg.OwnerUsername,
			Title:      title,
			ShortTitle: short,
			Category:   p.category,
			OfferType:  models.ClassifyOfferType(short, e.cfg.IgnoreWords),
		}, nil
	}
	return models.OwnerInfo{}, fmt.Errorf("%w: %q", ErrNoCategoryTag, title)
}

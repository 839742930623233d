package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// PricingCategory is a named rule bucket identified by a unique title
// delimiter symbol and an associated price floor. Categories are totally
// ordered by floor (descending); the category with the lowest floor is
// terminal and cannot be escalated past.
type PricingCategory struct {
	Name   string
	Symbol string
	Floor  decimal.Decimal
}

// Validate checks that the category carries a usable delimiter and floor.
func (c PricingCategory) Validate() error {
	if c.Name == "" {
		return errors.New("category name must not be empty")
	}
	if c.Symbol == "" {
		return errors.New("category symbol must not be empty")
	}
	if len([]rune(c.Symbol)) != 1 {
		return fmt.Errorf("category %q symbol must be a single character, got %q", c.Name, c.Symbol)
	}
	if c.Floor.IsNegative() {
		return fmt.Errorf("category %q floor must not be negative", c.Name)
	}
	return nil
}

// CategorySet holds the configured categories in two orders: the registration
// order (used for title parsing, first match wins) and descending-floor order
// (used for escalation transitions).
type CategorySet struct {
	registered []PricingCategory
	byFloor    []PricingCategory
}

// NewCategorySet builds a CategorySet from categories in registration order.
// Symbols and names must be unique across the set.
func NewCategorySet(categories []PricingCategory) (*CategorySet, error) {
	if len(categories) == 0 {
		return nil, errors.New("at least one pricing category is required")
	}

	seenName := make(map[string]bool, len(categories))
	seenSymbol := make(map[string]bool, len(categories))
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if seenName[c.Name] {
			return nil, fmt.Errorf("duplicate category name %q", c.Name)
		}
		if seenSymbol[c.Symbol] {
			return nil, fmt.Errorf("duplicate category symbol %q", c.Symbol)
		}
		seenName[c.Name] = true
		seenSymbol[c.Symbol] = true
	}

	registered := make([]PricingCategory, len(categories))
	copy(registered, categories)

	byFloor := make([]PricingCategory, len(categories))
	copy(byFloor, categories)
	sort.SliceStable(byFloor, func(i, j int) bool {
		return byFloor[i].Floor.GreaterThan(byFloor[j].Floor)
	})

	return &CategorySet{registered: registered, byFloor: byFloor}, nil
}

// Registered returns the categories in registration order.
func (s *CategorySet) Registered() []PricingCategory {
	return s.registered
}

// Top returns the top-priority category: the one with the highest floor.
// The top category uses its own ignore list, never skips below-floor
// competitors, and is exempt from escalation in both directions.
func (s *CategorySet) Top() PricingCategory {
	return s.byFloor[0]
}

// IsTop reports whether c is the top-priority category.
func (s *CategorySet) IsTop(c PricingCategory) bool {
	return c.Name == s.byFloor[0].Name
}

// Next returns the category immediately following c in descending-floor
// order. ok is false when c is terminal (already last) or unknown.
func (s *CategorySet) Next(c PricingCategory) (PricingCategory, bool) {
	for i, cand := range s.byFloor {
		if cand.Name == c.Name {
			if i+1 < len(s.byFloor) {
				return s.byFloor[i+1], true
			}
			return PricingCategory{}, false
		}
	}
	return PricingCategory{}, false
}

// ByName looks a category up by its configured name.
func (s *CategorySet) ByName(name string) (PricingCategory, bool) {
	for _, c := range s.registered {
		if c.Name == name {
			return c, true
		}
	}
	return PricingCategory{}, false
}

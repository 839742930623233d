package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DecisionKind tags the outcome of one pricing cycle.
type DecisionKind int

const (
	// DecisionNoChange means the current price stands; Reason explains why.
	DecisionNoChange DecisionKind = iota
	// DecisionNewPrice carries a new price rounded to 6 decimal places.
	DecisionNewPrice
	// DecisionError means evaluation failed; the offer is skipped this cycle.
	DecisionError
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionNewPrice:
		return "new_price"
	case DecisionError:
		return "error"
	default:
		return "no_change"
	}
}

// Decision is the tagged result of the pricing state machine. Callers branch
// on Kind, never on run-time inspection of a string versus a number.
type Decision struct {
	Kind   DecisionKind
	Price  decimal.Decimal
	Reason string
}

// NoChange builds a no-op decision with a human-readable explanation.
func NoChange(format string, args ...any) Decision {
	return Decision{Kind: DecisionNoChange, Reason: fmt.Sprintf(format, args...)}
}

// NewPrice builds a decision carrying the computed price.
func NewPrice(value decimal.Decimal) Decision {
	return Decision{Kind: DecisionNewPrice, Price: value}
}

// ErrorDecision builds an error decision; the reason carries the offending
// short title and offer id for the logs.
func ErrorDecision(format string, args ...any) Decision {
	return Decision{Kind: DecisionError, Reason: fmt.Sprintf(format, args...)}
}

func (d Decision) String() string {
	if d.Kind == DecisionNewPrice {
		return fmt.Sprintf("new_price(%s)", d.Price.String())
	}
	return fmt.Sprintf("%s(%s)", d.Kind, d.Reason)
}

package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

const testOwner = "rollo"

func testCategories(t *testing.T) *models.CategorySet {
	t.Helper()
	set, err := models.NewCategorySet([]models.PricingCategory{
		{Name: "asterisk", Symbol: "*", Floor: decimal.NewFromFloat(2.0)},
		{Name: "hash", Symbol: "#", Floor: decimal.NewFromFloat(1.0)},
		{Name: "tilde", Symbol: "~", Floor: decimal.NewFromFloat(0.5)},
	})
	require.NoError(t, err)
	return set
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		OwnerUsername:          testOwner,
		Categories:             testCategories(t),
		IgnoreWords:            []string{"Schematic"},
		IgnoreCompetitorsTop:   []string{"friendly_top"},
		IgnoreCompetitorsOther: []string{"friendly"},
		ThresholdPrice:         decimal.NewFromFloat(1.0),
		UndercutBelowPct:       decimal.NewFromFloat(1.0),
		UndercutAbovePct:       decimal.NewFromFloat(3.0),
		PullCeiling:            decimal.NewFromFloat(100.0),
		PullMarginPct:          decimal.NewFromFloat(5.0),
		PullMinGapPct:          decimal.NewFromFloat(5.0),
		PullMaxGapPct:          decimal.NewFromFloat(20.0),
		OverLimitPosition:      5,
		UnderLimitPosition:     6,
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func entry(username string, price float64) models.CompetitorEntry {
	return models.CompetitorEntry{
		Username: username,
		OfferID:  "offer-" + username,
		Title:    username + "'s listing",
		Price:    decimal.NewFromFloat(price),
		Currency: "USD",
	}
}

func result(username, offerID, title string, unitPrice float64) models.SearchResult {
	return models.SearchResult{
		Username:     username,
		OfferID:      offerID,
		Title:        title,
		UnitPrice:    decimal.NewFromFloat(unitPrice),
		DisplayPrice: decimal.NewFromFloat(unitPrice),
		Currency:     "USD",
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.OwnerUsername = ""
	_, err := NewEngine(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.OverLimitPosition = 0
	_, err = NewEngine(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.PullMinGapPct = decimal.NewFromFloat(30)
	_, err = NewEngine(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.UndercutAbovePct = decimal.NewFromFloat(100)
	_, err = NewEngine(cfg)
	require.Error(t, err)
}

func TestRepriceFullCycleWithEscalation(t *testing.T) {
	e := newTestEngine(t, testConfig(t))

	offer := models.OwnerOffer{
		OfferID:   "G777",
		Title:     "Epic #Sword# NEW",
		UnitPrice: decimal.NewFromFloat(1.5),
	}

	// Six sellers below the hash floor (1.0) ahead of the owner, whose
	// price sits above the floor at position 7: over-limit escalation to
	// tilde (floor 0.5) fires, then pricing reacts to the first entry at
	// or above the new floor.
	results := []models.SearchResult{
		result("a", "o-a", "Sword cheap", 0.40),
		result("b", "o-b", "Sword cheap", 0.50),
		result("c", "o-c", "Sword cheap", 0.60),
		result("d", "o-d", "Sword cheap", 0.70),
		result("e", "o-e", "Sword cheap", 0.80),
		result("f", "o-f", "Sword cheap", 0.90),
		result(testOwner, "G777", "Epic #Sword# NEW", 1.50),
	}

	out, err := e.Reprice(offer, results)
	require.NoError(t, err)

	require.Equal(t, "Epic ~Sword~ NEW", out.NewTitle)
	require.Equal(t, models.DecisionNewPrice, out.Decision.Kind)
	// First non-skipped rank is b at 0.50 (>= new floor), below the
	// threshold price, so the lower undercut tier applies.
	require.Equal(t, "0.495", out.Decision.Price.String())

	// The rewritten title must re-parse into the new category.
	info, err := e.ParseTitle(out.NewTitle)
	require.NoError(t, err)
	require.Equal(t, "tilde", info.Category.Name)
	require.Equal(t, "Sword", info.ShortTitle)
}

func TestRepriceParseFailure(t *testing.T) {
	e := newTestEngine(t, testConfig(t))

	offer := models.OwnerOffer{
		OfferID:   "G1",
		Title:     "no delimiters here",
		UnitPrice: decimal.NewFromFloat(1.0),
	}
	_, err := e.Reprice(offer, nil)
	require.ErrorIs(t, err, ErrNoCategoryTag)
}

func TestRepriceInvalidSnapshot(t *testing.T) {
	e := newTestEngine(t, testConfig(t))

	offer := models.OwnerOffer{
		OfferID:   "G1",
		Title:     "Foo #Bar# Baz",
		UnitPrice: decimal.NewFromFloat(1.0),
	}

	// Owner not present in the visible page.
	_, err := e.Reprice(offer, []models.SearchResult{
		result("a", "o-a", "Bar", 0.9),
		result("b", "o-b", "Bar", 1.1),
	})
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	// No results at all.
	_, err = e.Reprice(offer, nil)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestRepriceRecoversPanicToErrorDecision(t *testing.T) {
	e := newTestEngine(t, testConfig(t))

	// A zero owner price makes the pull gap computation divide by zero,
	// which must surface as an Error decision, not a crash.
	offer := models.OwnerOffer{
		OfferID:   "G9",
		Title:     "Foo #Bar# Baz",
		UnitPrice: decimal.Zero,
	}
	results := []models.SearchResult{
		result(testOwner, "G9", "Foo #Bar# Baz", 0),
		result("b", "o-b", "Bar", 1.1),
	}

	out, err := e.Reprice(offer, results)
	require.NoError(t, err)
	require.Equal(t, models.DecisionError, out.Decision.Kind)
	require.Contains(t, out.Decision.Reason, "Bar")
	require.Contains(t, out.Decision.Reason, "G9")
}

func TestRepriceAdjustsMinPurchaseQty(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinOrderValue = decimal.NewFromFloat(5.0)
	e := newTestEngine(t, cfg)

	offer := models.OwnerOffer{
		OfferID:        "G5",
		Title:          "Foo #Bar# Baz",
		UnitPrice:      decimal.NewFromFloat(2.0),
		MinPurchaseQty: 1,
	}
	results := []models.SearchResult{
		result("a", "o-a", "Bar", 1.50),
		result(testOwner, "G5", "Foo #Bar# Baz", 2.0),
	}

	out, err := e.Reprice(offer, results)
	require.NoError(t, err)
	require.Equal(t, models.DecisionNewPrice, out.Decision.Kind)
	// 1.50 is above the threshold price: 1.50 * 0.97 = 1.455.
	require.Equal(t, "1.455", out.Decision.Price.String())
	// 1.455 * 1 < 5.0, so qty is raised to ceil(5 / 1.455) = 4.
	require.Equal(t, 4, out.NewMinPurchaseQty)
}

func TestAdjustedMinQtyNoopCases(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinOrderValue = decimal.NewFromFloat(5.0)
	e := newTestEngine(t, cfg)

	require.Equal(t, 0, e.adjustedMinQty(decimal.NewFromFloat(10), 1))
	require.Equal(t, 0, e.adjustedMinQty(decimal.NewFromFloat(1), 0))
	require.Equal(t, 0, e.adjustedMinQty(decimal.Zero, 3))

	noMin := testConfig(t)
	e2 := newTestEngine(t, noMin)
	require.Equal(t, 0, e2.adjustedMinQty(decimal.NewFromFloat(0.1), 1))
}

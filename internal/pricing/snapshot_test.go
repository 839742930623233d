package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

func ownerInfo(t *testing.T, catName, offerID string) models.OwnerInfo {
	t.Helper()
	return models.OwnerInfo{
		Username:   testOwner,
		OfferID:    offerID,
		Title:      "Foo #Bar# Baz",
		ShortTitle: "Bar",
		Category:   category(t, catName),
		OfferType:  models.ItemType,
	}
}

func TestBuildSnapshotRanksAndLocatesOwner(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	s, err := e.BuildSnapshot([]models.SearchResult{
		result("a", "o-a", "Bar", 1.10),
		result("b", "o-b", "Bar", 1.20),
		result(testOwner, "G1", "Foo #Bar# Baz", 1.30),
		result("c", "o-c", "Bar", 1.40),
	}, owner)
	require.NoError(t, err)

	require.Len(t, s.Entries, 4)
	require.Equal(t, 3, s.Owner.Position)
	require.Equal(t, "1.3", s.Owner.PreviousPrice.String())
	require.Equal(t, 4, s.LastRank())
	require.Equal(t, "a", s.At(1).Username)
	require.Equal(t, "c", s.At(4).Username)
}

func TestBuildSnapshotTypeFilterKeepsRanksDense(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	// The schematic listing must not consume a rank: the owner lands at
	// position 2, not 3.
	s, err := e.BuildSnapshot([]models.SearchResult{
		result("a", "o-a", "Bar", 1.10),
		result("b", "o-b", "Schematic: Bar", 1.15),
		result(testOwner, "G1", "Foo #Bar# Baz", 1.30),
	}, owner)
	require.NoError(t, err)

	require.Len(t, s.Entries, 2)
	require.Equal(t, 2, s.Owner.Position)
	for _, en := range s.Entries {
		require.Equal(t, models.ItemType, en.OfferType)
	}
}

func TestBuildSnapshotSkipsOwnersOtherListings(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	s, err := e.BuildSnapshot([]models.SearchResult{
		result(testOwner, "G-other", "Bar bundle", 1.05),
		result("a", "o-a", "Bar", 1.10),
		result(testOwner, "G1", "Foo #Bar# Baz", 1.30),
	}, owner)
	require.NoError(t, err)

	require.Len(t, s.Entries, 2)
	require.Equal(t, 2, s.Owner.Position)
	require.Equal(t, "a", s.At(1).Username)
}

func TestBuildSnapshotCurrencyNormalization(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	eur := models.SearchResult{
		Username:     "euro_seller",
		OfferID:      "o-eur",
		Title:        "Bar",
		UnitPrice:    decimal.NewFromFloat(5.8),
		DisplayPrice: decimal.NewFromFloat(6.2),
		Currency:     "EUR",
	}
	s, err := e.BuildSnapshot([]models.SearchResult{
		eur,
		result(testOwner, "G1", "Foo #Bar# Baz", 7.00),
	}, owner)
	require.NoError(t, err)

	first := s.At(1)
	require.Equal(t, "6.2", first.Price.String())
	require.True(t, first.Converted)
	require.Equal(t, "EUR", first.Currency)
	require.False(t, s.At(2).Converted)
}

func TestBuildSnapshotBelowFloorCollector(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	// Ignored sellers never count; collection stops at the owner, so the
	// cheap seller ranked behind is not recorded.
	s, err := e.BuildSnapshot([]models.SearchResult{
		result("cheap1", "o-1", "Bar", 0.40),
		result("friendly", "o-2", "Bar", 0.50),
		result("cheap2", "o-3", "Bar", 0.60),
		result(testOwner, "G1", "Foo #Bar# Baz", 1.30),
		result("cheap3", "o-4", "Bar", 0.70),
	}, owner)
	require.NoError(t, err)

	require.Equal(t, []string{"cheap1", "cheap2"}, s.BelowFloorSellers)
}

func TestBuildSnapshotInvalid(t *testing.T) {
	e := newTestEngine(t, testConfig(t))
	owner := ownerInfo(t, "hash", "G1")

	t.Run("no comparable sellers", func(t *testing.T) {
		_, err := e.BuildSnapshot(nil, owner)
		require.ErrorIs(t, err, ErrInvalidSnapshot)

		// Everything filtered out by type still counts as empty.
		_, err = e.BuildSnapshot([]models.SearchResult{
			result("a", "o-a", "Schematic: Bar", 1.10),
		}, owner)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("owner outside visible page", func(t *testing.T) {
		_, err := e.BuildSnapshot([]models.SearchResult{
			result("a", "o-a", "Bar", 1.10),
			result("b", "o-b", "Bar", 1.20),
		}, owner)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})
}

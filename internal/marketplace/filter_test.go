package marketplace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/marketplace"
)

func record(listingID string, price uint64, name, description string) domain.ListingRecord {
	return domain.ListingRecord{
		ListingID: listingID,
		Price:     price,
		Seller:    "0xseller",
		Asset: domain.AssetRecord{
			ID:          "0xa-" + listingID,
			Name:        name,
			Description: description,
			Alive:       true,
		},
	}
}

func ptr(v uint64) *uint64 { return &v }

func TestFilterPriceBoundsInclusive(t *testing.T) {
	records := []domain.ListingRecord{
		record("0xl1", 1_000_000_000, "One", ""),
		record("0xl2", 2_000_000_000, "Two", ""),
		record("0xl3", 3_000_000_000, "Three", ""),
	}

	filtered := marketplace.Filter(records, marketplace.FilterOptions{
		MinPrice: ptr(1_000_000_000),
		MaxPrice: ptr(2_000_000_000),
	})

	// Records sitting exactly on either bound are kept
	require.Len(t, filtered, 2)
	assert.Equal(t, "0xl2", filtered[0].ListingID) // newest first by default
	assert.Equal(t, "0xl1", filtered[1].ListingID)
}

func TestFilterSearchMatchesNameAndDescription(t *testing.T) {
	records := []domain.ListingRecord{
		record("0xl1", 1, "Sunset Boulevard", ""),
		record("0xl2", 2, "Ocean", "a sunset over water"),
		record("0xl3", 3, "Mountain", "snow"),
	}

	filtered := marketplace.Filter(records, marketplace.FilterOptions{Search: "SUNSET"})

	require.Len(t, filtered, 2)
}

func TestFilterSorts(t *testing.T) {
	records := []domain.ListingRecord{
		record("0xl2", 300, "B", ""),
		record("0xl1", 100, "A", ""),
		record("0xl3", 200, "C", ""),
	}

	byPriceAsc := marketplace.Filter(records, marketplace.FilterOptions{Sort: marketplace.SortPriceAsc})
	assert.Equal(t, []uint64{100, 200, 300}, prices(byPriceAsc))

	byPriceDesc := marketplace.Filter(records, marketplace.FilterOptions{Sort: marketplace.SortPriceDesc})
	assert.Equal(t, []uint64{300, 200, 100}, prices(byPriceDesc))

	oldest := marketplace.Filter(records, marketplace.FilterOptions{Sort: marketplace.SortOldest})
	assert.Equal(t, "0xl1", oldest[0].ListingID)

	newest := marketplace.Filter(records, marketplace.FilterOptions{})
	assert.Equal(t, "0xl3", newest[0].ListingID)
}

func TestFilterLeavesInputUntouched(t *testing.T) {
	records := []domain.ListingRecord{
		record("0xl2", 300, "B", ""),
		record("0xl1", 100, "A", ""),
	}

	_ = marketplace.Filter(records, marketplace.FilterOptions{Sort: marketplace.SortPriceAsc})

	assert.Equal(t, "0xl2", records[0].ListingID)
}

func prices(records []domain.ListingRecord) []uint64 {
	out := make([]uint64, len(records))
	for i, r := range records {
		out[i] = r.Price
	}
	return out
}

package marketplace

import (
	"sort"
	"strings"

	"github.com/nftbazaar/marketgate/internal/domain"
)

// SortOrder names the supported listing sort orders
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// FilterOptions narrows and orders an already-fetched listing set.
// Price bounds are inclusive and in MIST; nil means unbounded.
type FilterOptions struct {
	Search   string
	MinPrice *uint64
	MaxPrice *uint64
	Sort     SortOrder
}

// Filter applies search, price bounds and ordering to records. It is pure:
// it never touches the network and leaves the input slice untouched.
func Filter(records []domain.ListingRecord, opts FilterOptions) []domain.ListingRecord {
	out := make([]domain.ListingRecord, 0, len(records))

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, r := range records {
		if search != "" && !matchesSearch(&r, search) {
			continue
		}
		if opts.MinPrice != nil && r.Price < *opts.MinPrice {
			continue
		}
		if opts.MaxPrice != nil && r.Price > *opts.MaxPrice {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out, opts.Sort)
	return out
}

func matchesSearch(r *domain.ListingRecord, search string) bool {
	return strings.Contains(strings.ToLower(r.Asset.Name), search) ||
		strings.Contains(strings.ToLower(r.Asset.Description), search)
}

// sortRecords orders records in place. Creation recency is approximated by
// listing object id, which is all the listing object itself carries.
func sortRecords(records []domain.ListingRecord, order SortOrder) {
	switch order {
	case SortOldest:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ListingID < records[j].ListingID
		})
	case SortPriceAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price < records[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Price > records[j].Price
		})
	default: // SortNewest
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ListingID > records[j].ListingID
		})
	}
}

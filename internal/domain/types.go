package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MISTPerSUI is the number of base units (MIST) in one display unit (SUI)
const MISTPerSUI uint64 = 1_000_000_000

// MaxPriceSUI is the largest accepted price/amount in display units
const MaxPriceSUI = 1_000_000

// DefaultAssetName is used when no strategy can resolve a display name
const DefaultAssetName = "NFT"

// EventKind classifies a marketplace activity event
type EventKind string

const (
	EventKindSale    EventKind = "sale"
	EventKindListing EventKind = "listing"
	EventKindCancel  EventKind = "cancel"
)

// OwnerKind classifies who holds a ledger object
type OwnerKind string

const (
	OwnerAddress   OwnerKind = "address"   // held directly by an account
	OwnerObject    OwnerKind = "object"    // held by another object (listing escrow)
	OwnerShared    OwnerKind = "shared"    // shared object, no single holder
	OwnerImmutable OwnerKind = "immutable" // frozen object
)

// OwnerRef identifies the holder of a ledger object. ID carries the holder
// address for OwnerAddress and the owning object id for OwnerObject; it is
// empty for shared and immutable objects.
type OwnerRef struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// AssetRecord is the display view of an NFT. Alive is derived, not
// authoritative: absence from every lookup strategy is treated as "likely
// destroyed", never a ledger-verified burn.
type AssetRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url"`
	Owner       OwnerRef `json:"owner"`
	Alive       bool     `json:"alive"`
}

// ListingRecord pairs an escrowed asset with an asking price and seller.
// Listings are rebuilt from the ledger on every read and never persisted.
type ListingRecord struct {
	ListingID string      `json:"listing_id"`
	Price     uint64      `json:"price"` // MIST
	Seller    string      `json:"seller"`
	Asset     AssetRecord `json:"asset"`
}

// ActivityEvent is one entry of the merged marketplace feed. Sale entries
// carry buyer, seller and price; listing entries carry seller and price;
// cancel entries carry neither price nor a guaranteed seller.
type ActivityEvent struct {
	Key           string    `json:"key"`
	Kind          EventKind `json:"kind"`
	TimestampMs   int64     `json:"timestamp_ms"`
	AssetID       string    `json:"asset_id"`
	ListingID     string    `json:"listing_id,omitempty"`
	Price         uint64    `json:"price,omitempty"`
	Buyer         string    `json:"buyer,omitempty"`
	Seller        string    `json:"seller,omitempty"`
	TxDigest      string    `json:"tx_digest"`
	AssetName     string    `json:"asset_name"`
	AssetImageURL string    `json:"asset_image_url,omitempty"`
	AssetBurned   bool      `json:"asset_burned,omitempty"`
}

// ActivityKey builds the feed deduplication key. Only exact event identity
// (transaction digest + per-transaction sequence + kind) collapses; the same
// asset may legitimately appear many times.
func ActivityKey(txDigest, eventSeq string, kind EventKind) string {
	return txDigest + "-" + eventSeq + "-" + string(kind)
}

// RefreshScope names which read views a refresh event covers
type RefreshScope string

const (
	RefreshScopeListings RefreshScope = "listings"
	RefreshScopeActivity RefreshScope = "activity"
	RefreshScopeAll      RefreshScope = "all"
)

// RefreshEvent is broadcast after a confirmed write or a poll cycle so
// dependent views re-run their fetch strategies
type RefreshEvent struct {
	Token uint64       `json:"token"`
	Scope RefreshScope `json:"scope"`
	At    time.Time    `json:"at"`
}

// FormatSUI renders a MIST amount in display units: amounts of one SUI or
// more keep at most 3 decimals, smaller amounts keep 6.
func FormatSUI(mist uint64) string {
	whole := mist / MISTPerSUI
	frac := mist % MISTPerSUI

	if whole >= 1 {
		s := strconv.FormatFloat(float64(whole)+float64(frac)/float64(MISTPerSUI), 'f', 3, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
		return s
	}
	return strconv.FormatFloat(float64(frac)/float64(MISTPerSUI), 'f', 6, 64)
}

// ParseSUI parses a user-entered display-unit amount into MIST.
// Rejects empty, non-numeric, non-positive and oversized values, and more
// than 9 decimal places.
func ParseSUI(value string) (uint64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, &ValidationError{Field: "amount", Message: "amount is required"}
	}
	if strings.HasPrefix(s, "-") {
		return 0, &ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return 0, &ValidationError{Field: "amount", Message: "amount must be a valid number"}
		}
	}
	if len(fracPart) > 9 {
		return 0, &ValidationError{Field: "amount", Message: "amount can have at most 9 decimal places"}
	}
	if intPart == "" {
		intPart = "0"
	}

	whole, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Message: "amount must be a valid number"}
	}
	if whole > MaxPriceSUI {
		return 0, &ValidationError{Field: "amount", Message: fmt.Sprintf("amount must be at most %d SUI", MaxPriceSUI)}
	}

	var frac uint64
	if fracPart != "" {
		// Right-pad to 9 digits so "0.5" means 500_000_000 MIST
		padded := fracPart + strings.Repeat("0", 9-len(fracPart))
		frac, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, &ValidationError{Field: "amount", Message: "amount must be a valid number"}
		}
	}

	mist := whole*MISTPerSUI + frac
	if mist == 0 {
		return 0, &ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}
	if whole == MaxPriceSUI && frac > 0 {
		return 0, &ValidationError{Field: "amount", Message: fmt.Sprintf("amount must be at most %d SUI", MaxPriceSUI)}
	}
	return mist, nil
}

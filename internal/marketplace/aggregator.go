package marketplace

import (
	"context"

	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

const (
	// listingQueryLimit bounds the live-object query
	listingQueryLimit = 200

	// listingEventLimit bounds the event-based fallback
	listingEventLimit = 100
)

// ListingAggregator rebuilds the active listing set from the ledger on every
// call. Nothing is persisted; the ledger is the only source of truth.
type ListingAggregator struct {
	client sui.Client
	cfg    *config.LedgerConfig
}

// NewListingAggregator creates a new listing aggregator
func NewListingAggregator(client sui.Client, cfg *config.LedgerConfig) *ListingAggregator {
	return &ListingAggregator{client: client, cfg: cfg}
}

// ListActive returns the current active listings. Three strategies run in
// order and the chain stops at the first one that yields records:
//
//  1. query live shared objects of the listing type
//  2. recent listing-created events, resolved back to live objects
//  3. listings held by the configured admin address
//
// The fallbacks are lossier than the primary; they exist because not every
// RPC endpoint supports type-scoped object queries.
func (a *ListingAggregator) ListActive(ctx context.Context) ([]domain.ListingRecord, error) {
	opts := sui.ObjectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true}

	objects, err := a.client.QueryObjects(ctx, a.cfg.Types.Listing, opts, listingQueryLimit)
	if err != nil {
		logger.WarnCtx(ctx, "listing object query unsupported, falling back to events", zap.Error(err))
	} else if records := a.buildRecords(ctx, objects); len(records) > 0 {
		return records, nil
	}

	objects, err = a.listFromEvents(ctx, opts)
	if err != nil {
		logger.WarnCtx(ctx, "listing event scan failed, falling back to owned objects", zap.Error(err))
	} else if records := a.buildRecords(ctx, objects); len(records) > 0 {
		return records, nil
	}

	if a.cfg.AdminAddress == "" {
		return []domain.ListingRecord{}, nil
	}
	objects, err = a.client.GetOwnedObjects(ctx, a.cfg.AdminAddress, a.cfg.Types.Listing, opts)
	if err != nil {
		return nil, err
	}
	return a.buildRecords(ctx, objects), nil
}

// listFromEvents recovers listing ids from recent listing-created events and
// resolves them back to objects. Consumed listings come back without content
// and are dropped by buildRecords.
func (a *ListingAggregator) listFromEvents(ctx context.Context, opts sui.ObjectDataOptions) ([]sui.ObjectResponse, error) {
	events, err := a.client.QueryEvents(ctx, a.cfg.ListEventType(), listingEventLimit, true)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		id := sui.FieldString(ev.ParsedJSON, "listing_id")
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return a.client.MultiGetObjects(ctx, ids, opts)
}

// buildRecords converts object responses to listing records, dropping dead
// objects and deduplicating by listing id with first occurrence winning
func (a *ListingAggregator) buildRecords(ctx context.Context, objects []sui.ObjectResponse) []domain.ListingRecord {
	records := make([]domain.ListingRecord, 0, len(objects))
	seen := make(map[string]struct{}, len(objects))

	for i := range objects {
		obj := &objects[i]
		if !obj.Live() {
			continue
		}
		if _, ok := seen[obj.Data.ObjectID]; ok {
			continue
		}

		record, ok := a.buildRecord(ctx, obj)
		if !ok {
			continue
		}
		seen[record.ListingID] = struct{}{}
		records = append(records, record)
	}
	return records
}

func (a *ListingAggregator) buildRecord(ctx context.Context, obj *sui.ObjectResponse) (domain.ListingRecord, bool) {
	fields := obj.Data.Content.Fields

	record := domain.ListingRecord{
		ListingID: obj.Data.ObjectID,
		Price:     sui.FieldUint64(fields, "price"),
		Seller:    sui.FieldString(fields, "seller"),
	}
	if record.Seller == "" {
		record.Seller = sui.FieldString(fields, "owner")
	}

	if assetFields := sui.EmbeddedAssetFields(fields); assetFields != nil {
		record.Asset = domain.AssetRecord{
			ID:          sui.EmbeddedAssetID(assetFields),
			Name:        sui.FieldString(assetFields, "name"),
			Description: sui.FieldString(assetFields, "description"),
			ImageURL:    sui.ExtractImageURL(assetFields),
			Owner:       domain.OwnerRef{Kind: domain.OwnerObject, ID: record.ListingID},
			Alive:       true,
		}
	} else if nftID := sui.FieldString(fields, "nft_id"); nftID != "" {
		// Legacy contracts escrow by reference instead of embedding
		record.Asset = a.fetchReferencedAsset(ctx, nftID, record.ListingID)
	} else {
		logger.WarnCtx(ctx, "listing carries no asset",
			zap.String("listing_id", record.ListingID))
		return domain.ListingRecord{}, false
	}

	if record.Asset.Name == "" {
		record.Asset.Name = domain.DefaultAssetName
	}
	return record, true
}

func (a *ListingAggregator) fetchReferencedAsset(ctx context.Context, assetID, listingID string) domain.AssetRecord {
	record := domain.AssetRecord{
		ID:    assetID,
		Owner: domain.OwnerRef{Kind: domain.OwnerObject, ID: listingID},
	}

	obj, err := a.client.GetObject(ctx, assetID, sui.ObjectDataOptions{ShowContent: true})
	if err != nil || !obj.Live() {
		logger.WarnCtx(ctx, "referenced asset lookup failed",
			zap.String("asset_id", assetID), zap.Error(err))
		return record
	}

	fields := obj.Data.Content.Fields
	record.Name = sui.FieldString(fields, "name")
	record.Description = sui.FieldString(fields, "description")
	record.ImageURL = sui.ExtractImageURL(fields)
	record.Alive = true
	return record
}

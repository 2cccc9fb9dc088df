package marketplace

import (
	"context"

	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

// Inventory rebuilds the set of assets an address holds directly. Listed
// assets do not appear here; while escrowed they are owned by their listing
// object and surface through the aggregator instead.
type Inventory struct {
	client sui.Client
	cfg    *config.LedgerConfig
}

// NewInventory creates a new owned-asset inventory
func NewInventory(client sui.Client, cfg *config.LedgerConfig) *Inventory {
	return &Inventory{client: client, cfg: cfg}
}

// OwnedAssets returns the assets held by address, newest RPC order preserved
func (inv *Inventory) OwnedAssets(ctx context.Context, address string) ([]domain.AssetRecord, error) {
	opts := sui.ObjectDataOptions{ShowType: true, ShowContent: true, ShowDisplay: true}

	objects, err := inv.client.GetOwnedObjects(ctx, address, inv.cfg.Types.Asset, opts)
	if err != nil {
		return nil, err
	}

	records := make([]domain.AssetRecord, 0, len(objects))
	for i := range objects {
		obj := &objects[i]
		if !obj.Live() {
			continue
		}

		record := domain.AssetRecord{
			ID:    obj.Data.ObjectID,
			Owner: domain.OwnerRef{Kind: domain.OwnerAddress, ID: address},
			Alive: true,
		}
		fields := obj.Data.Content.Fields
		record.Name = sui.FieldString(fields, "name")
		record.Description = sui.FieldString(fields, "description")
		record.ImageURL = sui.ExtractImageURL(fields)
		if obj.Data.Display != nil {
			if record.Name == "" {
				record.Name = obj.Data.Display.Data["name"]
			}
			if record.Description == "" {
				record.Description = obj.Data.Display.Data["description"]
			}
			if record.ImageURL == "" {
				record.ImageURL = obj.Data.Display.Data["image_url"]
			}
		}
		if record.Name == "" {
			record.Name = domain.DefaultAssetName
		}
		records = append(records, record)
	}
	return records, nil
}

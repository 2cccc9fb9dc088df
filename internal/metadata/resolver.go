package metadata

import (
	"context"
	"sync"

	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
	"go.uber.org/zap"
)

// Resolved is the display view a resolution pass produces for one asset.
// Alive is advisory: false means no strategy could observe the object, which
// usually means burned but is never ledger-verified.
type Resolved struct {
	Name        string
	Description string
	ImageURL    string
	Alive       bool
}

// Resolver resolves asset display metadata through an ordered strategy chain.
// It holds no cache itself; callers open a Pass per read cycle.
type Resolver struct {
	client sui.Client
}

// NewResolver creates a new metadata resolver
func NewResolver(client sui.Client) *Resolver {
	return &Resolver{client: client}
}

// Pass is one resolution pass. Results are memoized per asset id for the
// lifetime of the pass, so every event touching the same asset renders the
// same record. The pass is discarded when the read cycle ends.
type Pass struct {
	resolver *Resolver

	mu    sync.Mutex
	cache map[string]Resolved
}

// NewPass opens a resolution pass with an empty memo
func (r *Resolver) NewPass() *Pass {
	return &Pass{
		resolver: r,
		cache:    make(map[string]Resolved),
	}
}

// Resolve resolves one asset. listingID, when known, enables the
// listing-embedded strategy; kindHint orders the strategies (a listing event
// means the escrow object is the freshest source, a sale or cancel means it
// is already consumed). The first resolution of an asset id wins for the
// whole pass.
func (p *Pass) Resolve(ctx context.Context, assetID, listingID string, kindHint domain.EventKind) Resolved {
	if assetID == "" {
		return Resolved{Name: domain.DefaultAssetName}
	}

	p.mu.Lock()
	if cached, ok := p.cache[assetID]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	resolved := p.resolver.resolve(ctx, assetID, listingID, kindHint)

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have raced us here; keep the first entry so the
	// memoization stays consistent within the pass.
	if cached, ok := p.cache[assetID]; ok {
		return cached
	}
	p.cache[assetID] = resolved
	return resolved
}

func (r *Resolver) resolve(ctx context.Context, assetID, listingID string, kindHint domain.EventKind) Resolved {
	var res Resolved
	embeddedTried := false

	// For listing events the escrow object still exists and embeds the asset
	if listingID != "" && kindHint == domain.EventKindListing {
		embeddedTried = true
		r.fillFromListing(ctx, listingID, assetID, &res)
	}

	r.fillFromObject(ctx, assetID, &res)

	// Direct lookup failed and the embedded copy has not been consulted yet
	if !res.Alive && !embeddedTried && listingID != "" {
		r.fillFromListing(ctx, listingID, assetID, &res)
	}

	if res.Name == "" {
		res.Name = domain.DefaultAssetName
	}
	return res
}

// fillFromObject fetches the asset object directly. A live object marks the
// asset alive and fills any field an earlier strategy left empty.
func (r *Resolver) fillFromObject(ctx context.Context, assetID string, res *Resolved) {
	obj, err := r.client.GetObject(ctx, assetID, sui.ObjectDataOptions{
		ShowContent: true,
		ShowDisplay: true,
	})
	if err != nil {
		logger.WarnCtx(ctx, "asset object lookup failed",
			zap.String("asset_id", assetID), zap.Error(err))
		return
	}
	if !obj.Live() {
		return
	}

	res.Alive = true
	fields := obj.Data.Content.Fields
	fillMissing(&res.Name, sui.FieldString(fields, "name"))
	fillMissing(&res.Description, sui.FieldString(fields, "description"))
	fillMissing(&res.ImageURL, sui.ExtractImageURL(fields))

	if obj.Data.Display != nil {
		fillMissing(&res.Name, obj.Data.Display.Data["name"])
		fillMissing(&res.Description, obj.Data.Display.Data["description"])
		fillMissing(&res.ImageURL, obj.Data.Display.Data["image_url"])
	}
}

// fillFromListing reads the asset copy embedded in the listing escrow object.
// A matching embedded copy in a live escrow proves the asset exists, so it
// marks the asset alive just like a direct fetch would.
func (r *Resolver) fillFromListing(ctx context.Context, listingID, assetID string, res *Resolved) {
	obj, err := r.client.GetObject(ctx, listingID, sui.ObjectDataOptions{ShowContent: true})
	if err != nil {
		logger.WarnCtx(ctx, "listing object lookup failed",
			zap.String("listing_id", listingID), zap.Error(err))
		return
	}
	if !obj.Live() {
		return
	}

	fields := sui.EmbeddedAssetFields(obj.Data.Content.Fields)
	if fields == nil {
		return
	}
	// The embedded copy may belong to a different asset under legacy
	// contracts that reference by nft_id
	if embedded := sui.EmbeddedAssetID(fields); embedded != "" && embedded != assetID {
		return
	}

	res.Alive = true
	fillMissing(&res.Name, sui.FieldString(fields, "name"))
	fillMissing(&res.Description, sui.FieldString(fields, "description"))
	fillMissing(&res.ImageURL, sui.ExtractImageURL(fields))
}

// fillMissing sets dst only when no earlier strategy produced a value
func fillMissing(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

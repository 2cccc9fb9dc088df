package marketplace

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

// FeePercent is the marketplace commission, fixed in the contract
const FeePercent = 2

// Info is the resolved marketplace singleton state
type Info struct {
	ObjectID   string `json:"object_id"`
	FeeBalance uint64 `json:"fee_balance"` // accumulated commission, MIST
	FeePercent int    `json:"fee_percent"`
}

// Locator finds the shared marketplace singleton. A configured object id is
// validated by type before use; without one the locator falls back to a
// type-scoped discovery query.
type Locator struct {
	client sui.Client
	cfg    *config.LedgerConfig
}

// NewLocator creates a new marketplace locator
func NewLocator(client sui.Client, cfg *config.LedgerConfig) *Locator {
	return &Locator{client: client, cfg: cfg}
}

// Locate resolves the marketplace singleton and its fee state.
// Returns domain.ErrNoMarketplace when neither configuration nor discovery
// can produce one.
func (l *Locator) Locate(ctx context.Context) (*Info, error) {
	opts := sui.ObjectDataOptions{ShowType: true, ShowContent: true}

	if l.cfg.MarketplaceObjectID != "" {
		obj, err := l.client.GetObject(ctx, l.cfg.MarketplaceObjectID, opts)
		if err == nil && obj.Live() && l.typeMatches(obj.Data.Type) {
			return l.info(obj), nil
		}
		logger.WarnCtx(ctx, "configured marketplace object invalid, discovering by type",
			zap.String("object_id", l.cfg.MarketplaceObjectID), zap.Error(err))
	}

	objects, err := l.client.QueryObjects(ctx, l.cfg.MarketplaceType(), opts, 1)
	if err != nil {
		return nil, err
	}
	for i := range objects {
		if objects[i].Live() {
			return l.info(&objects[i]), nil
		}
	}
	return nil, domain.ErrNoMarketplace
}

func (l *Locator) typeMatches(objType string) bool {
	return objType == "" || strings.HasPrefix(objType, l.cfg.MarketplaceType())
}

func (l *Locator) info(obj *sui.ObjectResponse) *Info {
	return &Info{
		ObjectID:   obj.Data.ObjectID,
		FeeBalance: sui.FieldUint64(obj.Data.Content.Fields, "balance"),
		FeePercent: FeePercent,
	}
}

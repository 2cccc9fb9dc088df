package txflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

// Builder constructs unsigned move-call transactions for wallet signing.
// Arguments are positional and must match the contract signatures exactly;
// the function names come from configuration so redeployed contracts only
// need a config change.
type Builder struct {
	client sui.Client
	cfg    *config.LedgerConfig
}

// NewBuilder creates a new transaction builder
func NewBuilder(client sui.Client, cfg *config.LedgerConfig) *Builder {
	return &Builder{client: client, cfg: cfg}
}

// Mint builds a mint transaction: mint(name, description, imageURL)
func (b *Builder) Mint(ctx context.Context, signer, name, description, imageURL string) (*sui.TransactionBytes, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) > maxNameLength {
		return nil, &domain.ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, &domain.ValidationError{Field: "image_url", Message: "image URL is required"}
	}

	return b.call(ctx, signer, b.cfg.NFTModule, b.cfg.Functions.Mint,
		name, description, imageURL)
}

// List builds a listing transaction: list(asset, price)
func (b *Builder) List(ctx context.Context, signer, assetID string, price uint64) (*sui.TransactionBytes, error) {
	if err := requireObjectID("asset_id", assetID); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	return b.call(ctx, signer, b.cfg.MarketModule, b.cfg.Functions.List,
		assetID, strconv.FormatUint(price, 10))
}

// Buy builds a purchase transaction: buy(listing, payment, marketplace).
// The payment coin must already cover price plus commission; coin splitting
// happens wallet-side before signing.
func (b *Builder) Buy(ctx context.Context, signer, listingID, paymentCoinID, marketplaceID string) (*sui.TransactionBytes, error) {
	if err := requireObjectID("listing_id", listingID); err != nil {
		return nil, err
	}
	if err := requireObjectID("payment_coin_id", paymentCoinID); err != nil {
		return nil, err
	}
	if err := requireObjectID("marketplace_id", marketplaceID); err != nil {
		return nil, err
	}

	return b.call(ctx, signer, b.cfg.MarketModule, b.cfg.Functions.Buy,
		listingID, paymentCoinID, marketplaceID)
}

// Cancel builds a delisting transaction: cancel(listing)
func (b *Builder) Cancel(ctx context.Context, signer, listingID string) (*sui.TransactionBytes, error) {
	if err := requireObjectID("listing_id", listingID); err != nil {
		return nil, err
	}

	return b.call(ctx, signer, b.cfg.MarketModule, b.cfg.Functions.Cancel,
		listingID)
}

// Withdraw builds a commission withdrawal:
// withdraw(marketplace, amount, recipient). The contract enforces that only
// the admin capability holder can execute it; the recipient receives the coin.
func (b *Builder) Withdraw(ctx context.Context, signer, marketplaceID string, amount uint64, recipient string) (*sui.TransactionBytes, error) {
	if err := requireObjectID("marketplace_id", marketplaceID); err != nil {
		return nil, err
	}
	if err := validatePrice(amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipient) == "" {
		return nil, &domain.ValidationError{Field: "recipient", Message: "recipient address is required"}
	}

	return b.call(ctx, signer, b.cfg.MarketModule, b.cfg.Functions.Withdraw,
		marketplaceID, strconv.FormatUint(amount, 10), recipient)
}

// Burn builds a destroy transaction: burn(asset)
func (b *Builder) Burn(ctx context.Context, signer, assetID string) (*sui.TransactionBytes, error) {
	if err := requireObjectID("asset_id", assetID); err != nil {
		return nil, err
	}

	return b.call(ctx, signer, b.cfg.NFTModule, b.cfg.Functions.Burn,
		assetID)
}

// UpdateDescription builds a description update: update_description(asset, text)
func (b *Builder) UpdateDescription(ctx context.Context, signer, assetID, description string) (*sui.TransactionBytes, error) {
	if err := requireObjectID("asset_id", assetID); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	return b.call(ctx, signer, b.cfg.NFTModule, b.cfg.Functions.UpdateDescription,
		assetID, description)
}

func (b *Builder) call(ctx context.Context, signer, module, function string, args ...interface{}) (*sui.TransactionBytes, error) {
	if strings.TrimSpace(signer) == "" {
		return nil, &domain.ValidationError{Field: "signer", Message: "signer address is required"}
	}
	return b.client.BuildMoveCall(ctx, signer, b.cfg.PackageID, module, function, nil, args, b.cfg.GasBudget)
}

func requireObjectID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func validatePrice(price uint64) error {
	if price == 0 {
		return &domain.ValidationError{Field: "price", Message: "price must be greater than 0"}
	}
	if price > domain.MaxPriceSUI*domain.MISTPerSUI {
		return &domain.ValidationError{Field: "price", Message: fmt.Sprintf("price must be at most %d SUI", domain.MaxPriceSUI)}
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return &domain.ValidationError{Field: "description", Message: fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)}
	}
	return nil
}

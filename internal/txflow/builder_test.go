package txflow_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/mocks"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

func builderConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		PackageID:    "0xpkg",
		MarketModule: "nft_marketplace",
		NFTModule:    "nft_marketplace",
		GasBudget:    100_000_000,
		Functions: config.FunctionsConfig{
			Mint:              "mint_to_sender",
			List:              "list_nft_for_sale",
			Buy:               "buy_nft",
			Cancel:            "cancel_listing",
			Withdraw:          "withdraw_marketplace_fees",
			Burn:              "burn_nft",
			UpdateDescription: "update_nft_description",
		},
	}
}

func TestBuildListPositionalArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	cfg := builderConfig()

	client.EXPECT().
		BuildMoveCall(gomock.Any(), "0xsigner", "0xpkg", "nft_marketplace", "list_nft_for_sale",
			gomock.Nil(), []interface{}{"0xasset", "1000000000"}, uint64(100_000_000)).
		Return(&sui.TransactionBytes{TxBytes: "AAA="}, nil)

	builder := txflow.NewBuilder(client, cfg)
	tx, err := builder.List(context.Background(), "0xsigner", "0xasset", 1_000_000_000)

	require.NoError(t, err)
	assert.Equal(t, "AAA=", tx.TxBytes)
}

func TestBuildMintValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	// Validation failures never reach the ledger: no BuildMoveCall
	// expectation is registered
	tests := []struct {
		name     string
		assetN   string
		imageURL string
	}{
		{"empty name", "", "https://img.example/x"},
		{"blank name", "   ", "https://img.example/x"},
		{"missing image", "Piece", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.Mint(context.Background(), "0xsigner", tc.assetN, "", tc.imageURL)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestBuildListRejectsBadPrices(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	_, err := builder.List(context.Background(), "0xsigner", "0xasset", 0)
	assert.True(t, domain.IsValidation(err))

	over := (domain.MaxPriceSUI + 1) * domain.MISTPerSUI
	_, err = builder.List(context.Background(), "0xsigner", "0xasset", over)
	assert.True(t, domain.IsValidation(err))
}

func TestBuildBuyPositionalArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	cfg := builderConfig()

	client.EXPECT().
		BuildMoveCall(gomock.Any(), "0xsigner", "0xpkg", "nft_marketplace", "buy_nft",
			gomock.Nil(), []interface{}{"0xlisting", "0xcoin", "0xmarket"}, uint64(100_000_000)).
		Return(&sui.TransactionBytes{TxBytes: "BBB="}, nil)

	builder := txflow.NewBuilder(client, cfg)
	tx, err := builder.Buy(context.Background(), "0xsigner", "0xlisting", "0xcoin", "0xmarket")

	require.NoError(t, err)
	assert.Equal(t, "BBB=", tx.TxBytes)
}

func TestBuildBuyRequiresPaymentCoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	_, err := builder.Buy(context.Background(), "0xsigner", "0xlisting", "", "0xmarket")
	assert.True(t, domain.IsValidation(err))
}

func TestBuildWithdrawPositionalArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	cfg := builderConfig()

	// The contract takes the payout recipient as an explicit third argument
	client.EXPECT().
		BuildMoveCall(gomock.Any(), "0xadmin", "0xpkg", "nft_marketplace", "withdraw_marketplace_fees",
			gomock.Nil(), []interface{}{"0xmarket", "2000000000", "0xtreasury"}, uint64(100_000_000)).
		Return(&sui.TransactionBytes{TxBytes: "WWW="}, nil)

	builder := txflow.NewBuilder(client, cfg)
	tx, err := builder.Withdraw(context.Background(), "0xadmin", "0xmarket", 2_000_000_000, "0xtreasury")

	require.NoError(t, err)
	assert.Equal(t, "WWW=", tx.TxBytes)
}

func TestBuildWithdrawRequiresRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	_, err := builder.Withdraw(context.Background(), "0xadmin", "0xmarket", 2_000_000_000, "")
	assert.True(t, domain.IsValidation(err))
}

func TestBuildRequiresSigner(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	_, err := builder.Cancel(context.Background(), "", "0xlisting")
	assert.True(t, domain.IsValidation(err))
}

func TestBuildDescriptionLengthLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)
	builder := txflow.NewBuilder(client, builderConfig())

	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'a'
	}

	_, err := builder.UpdateDescription(context.Background(), "0xsigner", "0xasset", string(long))
	assert.True(t, domain.IsValidation(err))
}

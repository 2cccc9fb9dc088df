package activity_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/activity"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/mocks"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testMergerMocks struct {
	client *mocks.MockSuiClient
	clock  *mocks.MockClock
	cfg    *config.LedgerConfig
	merger *activity.Merger
}

func setupTestMerger(t *testing.T) *testMergerMocks {
	ctrl := gomock.NewController(t)

	tm := &testMergerMocks{
		client: mocks.NewMockSuiClient(ctrl),
		clock:  mocks.NewMockClock(ctrl),
		cfg: &config.LedgerConfig{
			PackageID:    "0xpkg",
			MarketModule: "nft_marketplace",
			NFTModule:    "nft_marketplace",
		},
	}

	resolver := metadata.NewResolver(tm.client)
	tm.merger = activity.NewMerger(tm.client, tm.cfg, resolver, tm.clock, 4)
	t.Cleanup(tm.merger.Stop)

	return tm
}

func saleEvent(digest, seq, assetID, ts string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: digest, EventSeq: seq},
		Type: "0xpkg::nft_marketplace::PurchaseNFTEvent",
		ParsedJSON: map[string]interface{}{
			"nft_id": assetID,
			"price":  "5000000000",
			"buyer":  "0xbuyer",
			"seller": "0xseller",
		},
		TimestampMs: ts,
	}
}

func listEvent(digest, seq, assetID, listingID, ts string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: digest, EventSeq: seq},
		Type: "0xpkg::nft_marketplace::ListNFTEvent",
		ParsedJSON: map[string]interface{}{
			"nft_id":     assetID,
			"listing_id": listingID,
			"price":      "5000000000",
			"seller":     "0xseller",
		},
		TimestampMs: ts,
	}
}

func cancelEvent(digest, seq, assetID, ts string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: digest, EventSeq: seq},
		Type: "0xpkg::nft_marketplace::DelistNFTEvent",
		ParsedJSON: map[string]interface{}{
			"nft_id": assetID,
		},
		TimestampMs: ts,
	}
}

// expectMetadata lets every resolution succeed with a fixed live asset
func (tm *testMergerMocks) expectMetadata() {
	tm.client.EXPECT().
		GetObject(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&sui.ObjectResponse{
			Data: &sui.ObjectData{
				ObjectID: "0xany",
				Content: &sui.ObjectContent{
					DataType: "moveObject",
					Fields: map[string]interface{}{
						"name": "Piece",
						"url":  "https://img.example/piece",
					},
				},
			},
		}, nil).
		AnyTimes()
}

func TestRecentActivityEventSequenceIdentity(t *testing.T) {
	tm := setupTestMerger(t)

	// One transaction emitting three events at sequences 0, 1 and 2, plus
	// the sale event duplicated in its stream
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return([]sui.Event{
			saleEvent("txA", "1", "0xa1", "2000"),
			saleEvent("txA", "1", "0xa1", "2000"),
		}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{
			listEvent("txA", "0", "0xa1", "0xl1", "2000"),
		}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{
			cancelEvent("txA", "2", "0xa1", "2000"),
		}, nil)
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 100)
	require.NoError(t, err)

	// Distinct sequence numbers survive, the duplicated triple collapses,
	// and the shared asset id never collapses anything
	require.Len(t, entries, 3)
	keys := map[string]bool{}
	for _, e := range entries {
		keys[e.Key] = true
		assert.Equal(t, "0xa1", e.AssetID)
		assert.Equal(t, "Piece", e.AssetName)
	}
	assert.Len(t, keys, 3)
}

func TestRecentActivityKindShaping(t *testing.T) {
	tm := setupTestMerger(t)

	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return([]sui.Event{saleEvent("txS", "0", "0xa1", "3000")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{listEvent("txL", "0", "0xa2", "0xl2", "2000")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{cancelEvent("txC", "0", "0xa3", "1000")}, nil)
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	sale := entries[0]
	assert.Equal(t, domain.EventKindSale, sale.Kind)
	assert.Equal(t, "0xbuyer", sale.Buyer)
	assert.Equal(t, "0xseller", sale.Seller)
	assert.Equal(t, uint64(5_000_000_000), sale.Price)

	listing := entries[1]
	assert.Equal(t, domain.EventKindListing, listing.Kind)
	assert.Empty(t, listing.Buyer)
	assert.Equal(t, "0xseller", listing.Seller)
	assert.Equal(t, uint64(5_000_000_000), listing.Price)

	cancel := entries[2]
	assert.Equal(t, domain.EventKindCancel, cancel.Kind)
	assert.Empty(t, cancel.Buyer)
	assert.Empty(t, cancel.Seller)
	assert.Zero(t, cancel.Price)
}

func TestRecentActivityTimestampFallback(t *testing.T) {
	tm := setupTestMerger(t)

	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return([]sui.Event{saleEvent("txB", "0", "0xa1", "")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{listEvent("txC", "0", "0xa2", "0xl2", "")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)

	// txB resolves through its transaction; txC's lookup fails and falls
	// back to the current time, so it surfaces first
	tm.client.EXPECT().
		GetTransactionBlock(gomock.Any(), "txB").
		Return(&sui.TransactionBlock{Digest: "txB", TimestampMs: "1000"}, nil)
	tm.client.EXPECT().
		GetTransactionBlock(gomock.Any(), "txC").
		Return(nil, errors.New("not found"))
	tm.clock.EXPECT().Now().Return(time.UnixMilli(5000)).AnyTimes()
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "txC", entries[0].TxDigest)
	assert.Equal(t, int64(5000), entries[0].TimestampMs)
	assert.Equal(t, "txB", entries[1].TxDigest)
	assert.Equal(t, int64(1000), entries[1].TimestampMs)
}

func TestRecentActivityTruncatesToLimit(t *testing.T) {
	tm := setupTestMerger(t)

	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return([]sui.Event{
			saleEvent("tx1", "0", "0xa1", "3000"),
			saleEvent("tx2", "0", "0xa2", "2000"),
			saleEvent("tx3", "0", "0xa3", "1000"),
		}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "tx1", entries[0].TxDigest)
	assert.Equal(t, "tx2", entries[1].TxDigest)
}

func TestRecentActivityDegradesOnStreamFailure(t *testing.T) {
	tm := setupTestMerger(t)

	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return(nil, errors.New("rpc down"))
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{listEvent("txL", "0", "0xa2", "0xl2", "2000")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 100)
	require.NoError(t, err)

	// The failed stream degrades, the rest of the feed survives
	require.Len(t, entries, 1)
	assert.Equal(t, "txL", entries[0].TxDigest)
}

func TestRecentActivityDropsEventsWithoutAsset(t *testing.T) {
	tm := setupTestMerger(t)

	malformed := sui.Event{
		ID:          sui.EventID{TxDigest: "txM", EventSeq: "0"},
		ParsedJSON:  map[string]interface{}{"price": "100"},
		TimestampMs: "1000",
	}

	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.PurchaseEventType(), gomock.Any(), true).
		Return([]sui.Event{malformed, saleEvent("txS", "0", "0xa1", "2000")}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.ListEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)
	tm.client.EXPECT().
		QueryEvents(gomock.Any(), tm.cfg.DelistEventType(), gomock.Any(), true).
		Return([]sui.Event{}, nil)
	tm.expectMetadata()

	entries, err := tm.merger.RecentActivity(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "txS", entries[0].TxDigest)
}

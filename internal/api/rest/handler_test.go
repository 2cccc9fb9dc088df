package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftbazaar/marketgate/internal/activity"
	"github.com/nftbazaar/marketgate/internal/adapter"
	"github.com/nftbazaar/marketgate/internal/api/middleware"
	"github.com/nftbazaar/marketgate/internal/api/rest"
	"github.com/nftbazaar/marketgate/internal/api/ws"
	"github.com/nftbazaar/marketgate/internal/config"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/marketplace"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/mocks"
	"github.com/nftbazaar/marketgate/internal/pinning"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.Exit(code)
}

type testServer struct {
	client *mocks.MockSuiClient
	gate   *txflow.Gate
	token  *invalidation.Token
	router *gin.Engine
}

// setupTestServer wires real engines over a mocked ledger client, so route
// tests exercise the same paths the binary runs
func setupTestServer(t *testing.T) *testServer {
	ctrl := gomock.NewController(t)

	ts := &testServer{
		client: mocks.NewMockSuiClient(ctrl),
		gate:   txflow.NewGate(),
		token:  invalidation.NewToken(),
	}

	cfg := &config.LedgerConfig{
		PackageID:    "0xpkg",
		MarketModule: "nft_marketplace",
		NFTModule:    "nft_marketplace",
		GasBudget:    100_000_000,
		Types: config.TypesConfig{
			Asset:   "0xpkg::nft_marketplace::DevNetNFT",
			Listing: "0xpkg::nft_marketplace::Listing",
		},
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

	clock := adapter.NewClock()
	resolver := metadata.NewResolver(ts.client)
	aggregator := marketplace.NewListingAggregator(ts.client, cfg)
	inventory := marketplace.NewInventory(ts.client, cfg)
	merger := activity.NewMerger(ts.client, cfg, resolver, clock, 4)
	t.Cleanup(merger.Stop)
	locator := marketplace.NewLocator(ts.client, cfg)
	builder := txflow.NewBuilder(ts.client, cfg)
	submitter := txflow.NewSubmitter(ts.client, ts.gate, ts.token, nil, clock)

	httpCtrl := mocks.NewMockHTTPClient(gomock.NewController(t))
	pinner := pinning.NewService(httpCtrl, &config.PinningConfig{
		APIURL:      "https://api.pinata.cloud",
		GatewayHost: "gateway.pinata.cloud",
		MaxFileSize: 1024,
	})

	h := rest.NewHandler(aggregator, inventory, merger, resolver, locator, builder, submitter, pinner, ts.token, ts.client)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts.router = gin.New()
	rest.SetupRoutes(ts.router, h, hub, middleware.AuthConfig{APIKeys: []string{"test-key"}})
	return ts
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) postJSON(path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func listingObject(listingID, assetID, name, price string) sui.ObjectResponse {
	return sui.ObjectResponse{
		Data: &sui.ObjectData{
			ObjectID: listingID,
			Content: &sui.ObjectContent{
				DataType: "moveObject",
				Fields: map[string]interface{}{
					"price":  price,
					"seller": "0xseller",
					"nft": map[string]interface{}{
						"fields": map[string]interface{}{
							"id":   map[string]interface{}{"id": assetID},
							"name": name,
							"url":  "https://img.example/" + assetID,
						},
					},
				},
			},
		},
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.get("/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["token"])
}

func TestListListingsSortedByPrice(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		QueryObjects(gomock.Any(), "0xpkg::nft_marketplace::Listing", gomock.Any(), gomock.Any()).
		Return([]sui.ObjectResponse{
			listingObject("0xl1", "0xa1", "Cheap", "1000000000"),
			listingObject("0xl2", "0xa2", "Pricey", "5000000000"),
		}, nil)

	w := ts.get("/api/v1/listings?sort=price_desc")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])

	listings := body["listings"].([]interface{})
	first := listings[0].(map[string]interface{})
	assert.Equal(t, "0xl2", first["listing_id"])
}

func TestListListingsRejectsUnknownSort(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.get("/api/v1/listings?sort=random")

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "validation_failed", errBody["code"])
}

func TestListListingsDegradesToEmptySet(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		QueryObjects(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("method not found"))
	ts.client.EXPECT().
		QueryEvents(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rpc down"))

	w := ts.get("/api/v1/listings")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["count"])
}

func TestGetMarketplaceNotFound(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		QueryObjects(gomock.Any(), "0xpkg::nft_marketplace::Marketplace", gomock.Any(), 1).
		Return([]sui.ObjectResponse{}, nil)

	w := ts.get("/api/v1/marketplace")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "not_found", errBody["code"])
}

func TestGetBalance(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		GetBalance(gomock.Any(), "0xwallet").
		Return(uint64(2_500_000_000), nil)

	w := ts.get("/api/v1/accounts/0xwallet/balance")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2_500_000_000), body["balance_mist"])
	assert.Equal(t, "2.5", body["balance_sui"])
}

func TestGetOwnedAssets(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		GetOwnedObjects(gomock.Any(), "0xwallet", "0xpkg::nft_marketplace::DevNetNFT", gomock.Any()).
		Return([]sui.ObjectResponse{
			{
				Data: &sui.ObjectData{
					ObjectID: "0xa1",
					Content: &sui.ObjectContent{
						DataType: "moveObject",
						Fields: map[string]interface{}{
							"name": "Mine",
							"url":  "https://img.example/0xa1",
						},
					},
				},
			},
		}, nil)

	w := ts.get("/api/v1/accounts/0xwallet/assets")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	assets := body["assets"].([]interface{})
	first := assets[0].(map[string]interface{})
	assert.Equal(t, "0xa1", first["id"])
	assert.Equal(t, "Mine", first["name"])
}

func TestBuildListRejectsBadPrice(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.postJSON("/api/v1/tx/list", gin.H{
		"signer":   "0xsigner",
		"asset_id": "0xasset",
		"price":    "0",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "validation_failed", errBody["code"])
}

func TestBuildListReturnsTxBytes(t *testing.T) {
	ts := setupTestServer(t)

	ts.client.EXPECT().
		BuildMoveCall(gomock.Any(), "0xsigner", "0xpkg", "nft_marketplace", "list_nft_for_sale",
			gomock.Nil(), []interface{}{"0xasset", "2500000000"}, uint64(100_000_000)).
		Return(&sui.TransactionBytes{TxBytes: "AAA="}, nil)

	w := ts.postJSON("/api/v1/tx/list", gin.H{
		"signer":   "0xsigner",
		"asset_id": "0xasset",
		"price":    "2.5",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "AAA=", body["tx_bytes"])
}

func TestSubmitConflictsWhileWriteInFlight(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.gate.Acquire())

	w := ts.postJSON("/api/v1/tx/submit", gin.H{
		"tx_bytes":   "AAA=",
		"signatures": []string{"sig1"},
	})

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "conflict", errBody["code"])
}

func TestAdminWithdrawRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.postJSON("/api/v1/admin/withdraw", gin.H{
		"signer": "0xadmin",
		"amount": "1",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminWithdrawWithAPIKey(t *testing.T) {
	ts := setupTestServer(t)

	marketObj := sui.ObjectResponse{
		Data: &sui.ObjectData{
			ObjectID: "0xmarket",
			Type:     "0xpkg::nft_marketplace::Marketplace",
			Content: &sui.ObjectContent{
				DataType: "moveObject",
				Fields:   map[string]interface{}{"balance": "9000000000"},
			},
		},
	}
	ts.client.EXPECT().
		QueryObjects(gomock.Any(), "0xpkg::nft_marketplace::Marketplace", gomock.Any(), 1).
		Return([]sui.ObjectResponse{marketObj}, nil)
	// The recipient defaults to the signing admin when the request omits it
	ts.client.EXPECT().
		BuildMoveCall(gomock.Any(), "0xadmin", "0xpkg", "nft_marketplace", "withdraw_marketplace_fees",
			gomock.Nil(), []interface{}{"0xmarket", "1000000000", "0xadmin"}, uint64(100_000_000)).
		Return(&sui.TransactionBytes{TxBytes: "WWW="}, nil)

	payload, _ := json.Marshal(gin.H{"signer": "0xadmin", "amount": "1"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/withdraw", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey test-key")
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "WWW=", body["tx_bytes"])
}

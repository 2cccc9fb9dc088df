package metadata_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

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

func liveAsset(id, name, description, url string) *sui.ObjectResponse {
	return &sui.ObjectResponse{
		Data: &sui.ObjectData{
			ObjectID: id,
			Content: &sui.ObjectContent{
				DataType: "moveObject",
				Fields: map[string]interface{}{
					"name":        name,
					"description": description,
					"url":         url,
				},
			},
		},
	}
}

func liveListing(listingID, assetID, assetName string) *sui.ObjectResponse {
	return &sui.ObjectResponse{
		Data: &sui.ObjectData{
			ObjectID: listingID,
			Content: &sui.ObjectContent{
				DataType: "moveObject",
				Fields: map[string]interface{}{
					"price":  "1000000000",
					"seller": "0xseller",
					"nft": map[string]interface{}{
						"fields": map[string]interface{}{
							"id":   map[string]interface{}{"id": assetID},
							"name": assetName,
							"url":  "https://img.example/" + assetID,
						},
					},
				},
			},
		},
	}
}

func deadObject(id string) *sui.ObjectResponse {
	return &sui.ObjectResponse{
		Error: &sui.ObjectResponseError{Code: "deleted", ObjectID: id},
	}
}

func TestResolveDirectObject(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	client.EXPECT().
		GetObject(gomock.Any(), "0xasset", gomock.Any()).
		Return(liveAsset("0xasset", "Sunset", "a sunset", "https://img.example/sunset"), nil)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "0xasset", "", "")

	assert.True(t, resolved.Alive)
	assert.Equal(t, "Sunset", resolved.Name)
	assert.Equal(t, "a sunset", resolved.Description)
	assert.Equal(t, "https://img.example/sunset", resolved.ImageURL)
}

func TestResolveEmbeddedNameFromListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	// The escrowed asset is not directly fetchable while listed, but the
	// listing object still embeds its metadata
	client.EXPECT().
		GetObject(gomock.Any(), "0xlisting", gomock.Any()).
		Return(liveListing("0xlisting", "0xasset", "Foo"), nil)
	client.EXPECT().
		GetObject(gomock.Any(), "0xasset", gomock.Any()).
		Return(deadObject("0xasset"), nil)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "0xasset", "0xlisting", domain.EventKindListing)

	assert.Equal(t, "Foo", resolved.Name)
	assert.Equal(t, "https://img.example/0xasset", resolved.ImageURL)
	// The live escrow embeds the asset, so it is alive even though the
	// direct fetch came back dead
	assert.True(t, resolved.Alive)
}

func TestResolveEmbeddedRetryAfterDirectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	// For a sale event the direct lookup runs first; only its failure
	// triggers the listing-embedded fallback
	gomock.InOrder(
		client.EXPECT().
			GetObject(gomock.Any(), "0xasset", gomock.Any()).
			Return(nil, errors.New("rpc down")),
		client.EXPECT().
			GetObject(gomock.Any(), "0xlisting", gomock.Any()).
			Return(liveListing("0xlisting", "0xasset", "Foo"), nil),
	)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "0xasset", "0xlisting", domain.EventKindSale)

	assert.Equal(t, "Foo", resolved.Name)
	assert.True(t, resolved.Alive)
}

func TestResolveAllStrategiesFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	client.EXPECT().
		GetObject(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("rpc down")).
		Times(2)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "0xasset", "0xlisting", domain.EventKindListing)

	assert.Equal(t, domain.DefaultAssetName, resolved.Name)
	assert.Empty(t, resolved.ImageURL)
	assert.False(t, resolved.Alive)
}

func TestResolveDirectValuesDoNotOverrideEmbedded(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	client.EXPECT().
		GetObject(gomock.Any(), "0xlisting", gomock.Any()).
		Return(liveListing("0xlisting", "0xasset", "Embedded"), nil)
	client.EXPECT().
		GetObject(gomock.Any(), "0xasset", gomock.Any()).
		Return(liveAsset("0xasset", "Direct", "direct copy", ""), nil)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "0xasset", "0xlisting", domain.EventKindListing)

	// Earlier strategies win field by field; the direct fetch still marks
	// the asset alive and fills the gaps
	assert.Equal(t, "Embedded", resolved.Name)
	assert.Equal(t, "direct copy", resolved.Description)
	assert.True(t, resolved.Alive)
}

func TestResolvePassMemoization(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	client.EXPECT().
		GetObject(gomock.Any(), "0xasset", gomock.Any()).
		Return(liveAsset("0xasset", "Sunset", "", "https://img.example/sunset"), nil).
		Times(1)

	pass := metadata.NewResolver(client).NewPass()
	first := pass.Resolve(context.Background(), "0xasset", "", "")
	second := pass.Resolve(context.Background(), "0xasset", "", "")

	// One lookup, identical records, for as long as the pass lives
	assert.Equal(t, first, second)
}

func TestResolveEmptyAssetID(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSuiClient(ctrl)

	pass := metadata.NewResolver(client).NewPass()
	resolved := pass.Resolve(context.Background(), "", "", "")

	assert.Equal(t, domain.DefaultAssetName, resolved.Name)
	assert.False(t, resolved.Alive)
}

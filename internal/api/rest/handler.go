package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nftbazaar/marketgate/internal/activity"
	"github.com/nftbazaar/marketgate/internal/domain"
	"github.com/nftbazaar/marketgate/internal/invalidation"
	"github.com/nftbazaar/marketgate/internal/logger"
	"github.com/nftbazaar/marketgate/internal/marketplace"
	"github.com/nftbazaar/marketgate/internal/metadata"
	"github.com/nftbazaar/marketgate/internal/pinning"
	"github.com/nftbazaar/marketgate/internal/providers/sui"
	"github.com/nftbazaar/marketgate/internal/txflow"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// ListListings returns the active listing set with optional filtering
	// GET /api/v1/listings?search=<text>&min_price=<sui>&max_price=<sui>&sort=<newest|oldest|price_asc|price_desc>
	ListListings(c *gin.Context)

	// GetAsset resolves one asset's display metadata and its owning listing
	// GET /api/v1/assets/:id
	GetAsset(c *gin.Context)

	// GetActivity returns the merged marketplace activity feed
	// GET /api/v1/activity?limit=<n>
	GetActivity(c *gin.Context)

	// GetMarketplace returns the marketplace singleton and its fee state
	// GET /api/v1/marketplace
	GetMarketplace(c *gin.Context)

	// GetBalance returns the gas-coin balance of an address
	// GET /api/v1/accounts/:address/balance
	GetBalance(c *gin.Context)

	// GetOwnedAssets returns the assets held directly by an address
	// GET /api/v1/accounts/:address/assets
	GetOwnedAssets(c *gin.Context)

	// BuildMint builds an unsigned mint transaction
	// POST /api/v1/tx/mint
	BuildMint(c *gin.Context)

	// BuildList builds an unsigned listing transaction
	// POST /api/v1/tx/list
	BuildList(c *gin.Context)

	// BuildBuy builds an unsigned purchase transaction
	// POST /api/v1/tx/buy
	BuildBuy(c *gin.Context)

	// BuildCancel builds an unsigned delisting transaction
	// POST /api/v1/tx/cancel
	BuildCancel(c *gin.Context)

	// BuildBurn builds an unsigned burn transaction
	// POST /api/v1/tx/burn
	BuildBurn(c *gin.Context)

	// BuildDescription builds an unsigned description update transaction
	// POST /api/v1/tx/description
	BuildDescription(c *gin.Context)

	// SubmitTransaction executes signed transaction bytes
	// POST /api/v1/tx/submit
	SubmitTransaction(c *gin.Context)

	// Upload pins an uploaded file to IPFS
	// POST /api/v1/uploads
	Upload(c *gin.Context)

	// AdminWithdraw builds an unsigned commission withdrawal (requires auth)
	// POST /api/v1/admin/withdraw
	AdminWithdraw(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	aggregator *marketplace.ListingAggregator
	inventory  *marketplace.Inventory
	merger     *activity.Merger
	resolver   *metadata.Resolver
	locator    *marketplace.Locator
	builder    *txflow.Builder
	submitter  *txflow.Submitter
	pinner     *pinning.Service
	token      *invalidation.Token
	client     sui.Client
}

// NewHandler creates a new REST API handler
func NewHandler(
	aggregator *marketplace.ListingAggregator,
	inventory *marketplace.Inventory,
	merger *activity.Merger,
	resolver *metadata.Resolver,
	locator *marketplace.Locator,
	builder *txflow.Builder,
	submitter *txflow.Submitter,
	pinner *pinning.Service,
	token *invalidation.Token,
	client sui.Client,
) Handler {
	return &handler{
		aggregator: aggregator,
		inventory:  inventory,
		merger:     merger,
		resolver:   resolver,
		locator:    locator,
		builder:    builder,
		submitter:  submitter,
		pinner:     pinner,
		token:      token,
		client:     client,
	}
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"token":  h.token.Current(),
	})
}

// ListListings returns the active listing set. A ledger failure degrades to
// an empty set with a warning rather than an error page.
func (h *handler) ListListings(c *gin.Context) {
	opts, err := parseFilterQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	records, err := h.aggregator.ListActive(c.Request.Context())
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "listing aggregation failed, serving empty set", zap.Error(err))
		records = nil
	}

	filtered := marketplace.Filter(records, opts)
	c.JSON(http.StatusOK, gin.H{
		"token":    h.token.Current(),
		"count":    len(filtered),
		"listings": filtered,
	})
}

// parseFilterQuery parses the listing filter query parameters. Prices are
// display-unit decimals converted to MIST.
func parseFilterQuery(c *gin.Context) (marketplace.FilterOptions, error) {
	opts := marketplace.FilterOptions{
		Search: c.Query("search"),
		Sort:   marketplace.SortOrder(c.DefaultQuery("sort", string(marketplace.SortNewest))),
	}

	switch opts.Sort {
	case marketplace.SortNewest, marketplace.SortOldest, marketplace.SortPriceAsc, marketplace.SortPriceDesc:
	default:
		return opts, &domain.ValidationError{Field: "sort", Message: "unknown sort order"}
	}

	if raw := c.Query("min_price"); raw != "" {
		mist, err := domain.ParseSUI(raw)
		if err != nil {
			return opts, err
		}
		opts.MinPrice = &mist
	}
	if raw := c.Query("max_price"); raw != "" {
		mist, err := domain.ParseSUI(raw)
		if err != nil {
			return opts, err
		}
		opts.MaxPrice = &mist
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		return opts, &domain.ValidationError{Field: "min_price", Message: "min_price exceeds max_price"}
	}
	return opts, nil
}

// GetAsset resolves one asset and looks up its owning listing, if any.
// An unresolvable asset still renders, flagged as likely burned.
func (h *handler) GetAsset(c *gin.Context) {
	assetID := c.Param("id")
	if assetID == "" {
		respondBadRequest(c, "Asset ID is required")
		return
	}

	ctx := c.Request.Context()
	resolved := h.resolver.NewPass().Resolve(ctx, assetID, "", "")

	var owning *domain.ListingRecord
	records, err := h.aggregator.ListActive(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "listing lookup for asset failed", zap.Error(err))
	}
	for i := range records {
		if records[i].Asset.ID == assetID {
			owning = &records[i]
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"token": h.token.Current(),
		"asset": gin.H{
			"id":          assetID,
			"name":        resolved.Name,
			"description": resolved.Description,
			"image_url":   resolved.ImageURL,
			"alive":       resolved.Alive,
			"burned":      !resolved.Alive && owning == nil,
		},
		"listing": owning,
	})
}

// GetActivity returns the merged activity feed
func (h *handler) GetActivity(c *gin.Context) {
	limit := activity.DefaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondValidationError(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.merger.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		logger.WarnCtx(c.Request.Context(), "activity merge failed, serving empty feed", zap.Error(err))
		entries = nil
	}
	if entries == nil {
		entries = []domain.ActivityEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    h.token.Current(),
		"count":    len(entries),
		"activity": entries,
	})
}

// GetMarketplace returns the marketplace singleton and its fee state
func (h *handler) GetMarketplace(c *gin.Context) {
	info, err := h.locator.Locate(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoMarketplace) {
			respondNotFound(c, "Marketplace object not found")
			return
		}
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetBalance returns the gas-coin balance of an address
func (h *handler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Address is required")
		return
	}

	balance, err := h.client.GetBalance(c.Request.Context(), address)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      address,
		"balance_mist": balance,
		"balance_sui":  domain.FormatSUI(balance),
	})
}

// GetOwnedAssets returns the assets held directly by an address
func (h *handler) GetOwnedAssets(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		respondBadRequest(c, "Address is required")
		return
	}

	records, err := h.inventory.OwnedAssets(c.Request.Context(), address)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
		"count":   len(records),
		"assets":  records,
	})
}

type mintRequest struct {
	Signer      string `json:"signer"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// BuildMint builds an unsigned mint transaction
func (h *handler) BuildMint(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	tx, err := h.builder.Mint(c.Request.Context(), req.Signer, req.Name, req.Description, req.ImageURL)
	h.respondBuild(c, tx, err)
}

type listRequest struct {
	Signer  string `json:"signer"`
	AssetID string `json:"asset_id"`
	Price   string `json:"price"` // display units (SUI)
}

// BuildList builds an unsigned listing transaction
func (h *handler) BuildList(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	price, err := domain.ParseSUI(req.Price)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	tx, err := h.builder.List(c.Request.Context(), req.Signer, req.AssetID, price)
	h.respondBuild(c, tx, err)
}

type buyRequest struct {
	Signer        string `json:"signer"`
	ListingID     string `json:"listing_id"`
	PaymentCoinID string `json:"payment_coin_id"`
}

// BuildBuy builds an unsigned purchase transaction. The marketplace object
// is located server-side; the payment coin must already cover price plus
// commission.
func (h *handler) BuildBuy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	info, err := h.locator.Locate(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoMarketplace) {
			respondNotFound(c, "Marketplace object not found")
			return
		}
		respondLedgerError(c, err)
		return
	}

	tx, err := h.builder.Buy(c.Request.Context(), req.Signer, req.ListingID, req.PaymentCoinID, info.ObjectID)
	h.respondBuild(c, tx, err)
}

type cancelRequest struct {
	Signer    string `json:"signer"`
	ListingID string `json:"listing_id"`
}

// BuildCancel builds an unsigned delisting transaction
func (h *handler) BuildCancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	tx, err := h.builder.Cancel(c.Request.Context(), req.Signer, req.ListingID)
	h.respondBuild(c, tx, err)
}

type burnRequest struct {
	Signer  string `json:"signer"`
	AssetID string `json:"asset_id"`
}

// BuildBurn builds an unsigned burn transaction
func (h *handler) BuildBurn(c *gin.Context) {
	var req burnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	tx, err := h.builder.Burn(c.Request.Context(), req.Signer, req.AssetID)
	h.respondBuild(c, tx, err)
}

type descriptionRequest struct {
	Signer      string `json:"signer"`
	AssetID     string `json:"asset_id"`
	Description string `json:"description"`
}

// BuildDescription builds an unsigned description update transaction
func (h *handler) BuildDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	tx, err := h.builder.UpdateDescription(c.Request.Context(), req.Signer, req.AssetID, req.Description)
	h.respondBuild(c, tx, err)
}

type submitRequest struct {
	TxBytes    string   `json:"tx_bytes"`
	Signatures []string `json:"signatures"`
}

// SubmitTransaction executes signed transaction bytes. A concurrent write in
// flight yields 409; the caller retries after the current one settles.
func (h *handler) SubmitTransaction(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), req.TxBytes, req.Signatures)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBusy):
			respondConflict(c, "Another transaction is in progress")
		case domain.IsValidation(err):
			respondValidationError(c, err.Error())
		default:
			respondLedgerError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Upload pins an uploaded file to IPFS and returns its addresses
func (h *handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "A file field is required", err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "Failed to read upload")
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logger.Warn("failed to close upload", zap.Error(cerr))
		}
	}()

	result, err := h.pinner.PinFile(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		if domain.IsValidation(err) {
			respondValidationError(c, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type withdrawRequest struct {
	Signer    string `json:"signer"`
	Amount    string `json:"amount"`    // display units (SUI)
	Recipient string `json:"recipient"` // defaults to the signer
}

// AdminWithdraw builds an unsigned commission withdrawal. The route is
// behind authentication; the contract additionally enforces that only the
// admin capability holder can execute it.
func (h *handler) AdminWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	amount, err := domain.ParseSUI(req.Amount)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	info, err := h.locator.Locate(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoMarketplace) {
			respondNotFound(c, "Marketplace object not found")
			return
		}
		respondLedgerError(c, err)
		return
	}
	if amount > info.FeeBalance {
		respondValidationError(c, "amount exceeds the accumulated fee balance")
		return
	}

	recipient := req.Recipient
	if recipient == "" {
		recipient = req.Signer
	}
	tx, err := h.builder.Withdraw(c.Request.Context(), req.Signer, info.ObjectID, amount, recipient)
	h.respondBuild(c, tx, err)
}

// respondBuild renders a build result or maps its error class
func (h *handler) respondBuild(c *gin.Context, tx *sui.TransactionBytes, err error) {
	if err != nil {
		if domain.IsValidation(err) {
			respondValidationError(c, err.Error())
			return
		}
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tx_bytes": tx.TxBytes})
}

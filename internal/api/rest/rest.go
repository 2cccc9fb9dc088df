package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nftbazaar/marketgate/internal/api/middleware"
	"github.com/nftbazaar/marketgate/internal/api/ws"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, hub *ws.Hub, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Live refresh feed
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWS(c.Writer, c.Request)
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Read views (public)
		v1.GET("/listings", handler.ListListings)
		v1.GET("/assets/:id", handler.GetAsset)
		v1.GET("/activity", handler.GetActivity)
		v1.GET("/marketplace", handler.GetMarketplace)
		v1.GET("/accounts/:address/balance", handler.GetBalance)
		v1.GET("/accounts/:address/assets", handler.GetOwnedAssets)

		// Unsigned transaction builders (public; signing happens wallet-side)
		v1.POST("/tx/mint", handler.BuildMint)
		v1.POST("/tx/list", handler.BuildList)
		v1.POST("/tx/buy", handler.BuildBuy)
		v1.POST("/tx/cancel", handler.BuildCancel)
		v1.POST("/tx/burn", handler.BuildBurn)
		v1.POST("/tx/description", handler.BuildDescription)

		// Signed transaction execution
		v1.POST("/tx/submit", handler.SubmitTransaction)

		// Media uploads
		v1.POST("/uploads", handler.Upload)

		// Admin endpoints (requires authentication)
		v1.POST("/admin/withdraw", middleware.Auth(authCfg), handler.AdminWithdraw)
	}
}

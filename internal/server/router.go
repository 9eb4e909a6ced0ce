package server

import (
	"carz-auction/internal/metrics"
	handler "carz-auction/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application. A nil limiter disables rate limiting.
func SetupRouter(biddingService handler.BiddingServiceInterface, limiter *RateLimiter) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(metrics.Middleware)

	biddingHandler := handler.NewBiddingHandler(biddingService)

	router.GET("/healthz", biddingHandler.HealthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	limited := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		limited = limiter.Middleware
	}

	api := router.Group("/api")
	{
		api.POST("/register", limited, biddingHandler.RegisterHandler)
		api.POST("/login", limited, biddingHandler.LoginHandler)
	}

	auctions := api.Group("/auctions")
	{
		auctions.GET("", biddingHandler.ListAuctionsHandler)
		auctions.POST("/:id/bid", limited, biddingHandler.PlaceBidHandler)
		auctions.GET("/:id/bids", biddingHandler.GetBidsByAuctionHandler)
	}

	return router
}

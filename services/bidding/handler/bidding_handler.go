package handler

import (
	"context"
	"net/http"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/metrics"
	"carz-auction/internal/models"
	"carz-auction/services/bidding/helpers"
	"carz-auction/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	ListActiveAuctions(ctx context.Context) ([]models.AuctionSummary, error)
	PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (models.Bid, models.AuctionSummary, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error)
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Login(ctx context.Context, email, password string) (models.User, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	auctions, err := h.service.ListActiveAuctions(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListAuctionsHandler", err, nil)
		return
	}

	if auctions == nil {
		auctions = []models.AuctionSummary{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"count": len(auctions),
	})
}

// PlaceBidHandler handles POST /auctions/:id/bid
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordBid(string(biddingerrors.ReasonValidation))
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, auction, err := h.service.PlaceBid(c.Request.Context(), auctionID, req.UserID, req.Amount)
	if err != nil {
		metrics.RecordBid(string(biddingerrors.ReasonOf(err)))
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"user_id":    req.UserID,
			"amount":     req.Amount,
		})
		return
	}

	metrics.RecordBid(metrics.OutcomeAccepted)
	resp := helpers.PlaceBidResponse{
		OK:      true,
		Bid:     helpers.NewBidResponse(bid),
		Auction: auction,
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":       bid.BidID,
		"auction_id":   bid.AuctionID,
		"user_id":      bid.UserID,
		"amount":       bid.Amount,
		"bidder_count": auction.BidderCount,
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("id")
	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetBidsByAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.NewBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(resp),
	})
}

// RegisterHandler handles POST /register
func (h *BiddingHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.RegisterResponse{
		UserID: user.UserID,
		User:   helpers.NewUserResponse(user),
	}, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id": user.UserID,
	})
}

// LoginHandler handles POST /login
func (h *BiddingHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.LoginResponse{User: helpers.NewUserResponse(user)}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": user.UserID})
}

// HealthHandler handles GET /healthz
func (h *BiddingHandler) HealthHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
}

package helpers

import (
	"time"

	"carz-auction/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	Amount    int64  `json:"amount"`
	PlacedAt  string `json:"placed_at"`
}

type PlaceBidResponse struct {
	OK      bool                  `json:"ok"`
	Bid     BidResponse           `json:"bid"`
	Auction models.AuctionSummary `json:"auction"`
}

type UserResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type RegisterResponse struct {
	UserID string       `json:"user_id"`
	User   UserResponse `json:"user"`
}

type LoginResponse struct {
	User UserResponse `json:"user"`
}

// NewBidResponse converts a bid to its wire form
func NewBidResponse(bid models.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		UserName:  bid.UserName,
		Amount:    bid.Amount,
		PlacedAt:  bid.PlacedAt.UTC().Format(time.RFC3339),
	}
}

// NewUserResponse converts a user to its wire form, leaving out password material
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

package bidding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carz-auction/internal/auth"
	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/repository"
	"carz-auction/utils"
)

// BiddingService validates request shape and delegates to the auction store. Every business
// rule lives in the store.
type BiddingService struct {
	repo repository.AuctionDB
	auth auth.Authenticator
	now  func() time.Time
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, authenticator auth.Authenticator) *BiddingService {
	return &BiddingService{
		repo: repo,
		auth: authenticator,
		now:  time.Now,
	}
}

// ListActiveAuctions returns open auctions with their bidder counts, soonest ending first
func (s *BiddingService) ListActiveAuctions(ctx context.Context) ([]models.AuctionSummary, error) {
	auctions, err := s.repo.ListActiveAuctions(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return auctions, nil
}

// PlaceBid validates and records a user's bid on an auction, returning the accepted bid and
// the auction as it stands after the bid
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, userID string, amount int64) (models.Bid, models.AuctionSummary, error) {
	if err := validateBid(auctionID, userID, amount); err != nil {
		return models.Bid{}, models.AuctionSummary{}, err
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		PlacedAt:  s.now().UTC(),
	}

	auction, err := s.repo.PlaceBid(ctx, bid)
	if err != nil {
		return models.Bid{}, models.AuctionSummary{}, fmt.Errorf("service: failed to place bid on auction %s by user %s: %w", auctionID, userID, err)
	}

	return bid, auction, nil
}

// validateBid checks input shape only
func validateBid(auctionID, userID string, amount int64) error {
	if strings.TrimSpace(auctionID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("service: %w - missing auctionID or userID", biddingerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return fmt.Errorf("service: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}
	return nil
}

// GetBidsForAuction returns all bids for an auction, highest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if strings.TrimSpace(auctionID) == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	return bids, nil
}

// Register creates a user account
func (s *BiddingService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, fmt.Errorf("service: %w - name, email and password are required", biddingerrors.ErrInvalidUser)
	}

	user, err := s.auth.Register(ctx, name, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to register %s: %w", email, err)
	}
	return user, nil
}

// Login verifies credentials and returns the user
func (s *BiddingService) Login(ctx context.Context, email, password string) (models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, fmt.Errorf("service: %w - email and password are required", biddingerrors.ErrInvalidUser)
	}

	user, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to log in %s: %w", email, err)
	}
	return user, nil
}

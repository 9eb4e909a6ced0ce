package bidding

import (
	"context"
	"errors"
	"testing"
	"time"

	"carz-auction/internal/auth"
	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockedService(t *testing.T) (*BiddingService, *repository.MockAuctionDB, *auth.MockAuthenticator) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := repository.NewMockAuctionDB(ctrl)
	mockAuth := auth.NewMockAuthenticator(ctrl)
	service := NewBiddingService(mockRepo, mockAuth)
	service.now = func() time.Time { return fixedNow }
	return service, mockRepo, mockAuth
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	t.Parallel()

	// Table-driven test cases
	tests := []struct {
		name          string
		auctionID     string
		userID        string
		amount        int64
		mockSetup     func(repo *repository.MockAuctionDB)
		expectError   bool
		expectedError error
	}{
		{
			name:      "valid_bid",
			auctionID: "auction1",
			userID:    "user1",
			amount:    101000,
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, bid models.Bid) (models.AuctionSummary, error) {
						return models.AuctionSummary{
							Auction:     models.Auction{AuctionID: bid.AuctionID, CurrentPrice: bid.Amount},
							BidderCount: 1,
						}, nil
					})
			},
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			userID:        "user1",
			amount:        50,
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:          "blank_userID",
			auctionID:     "auction1",
			userID:        "  ",
			amount:        50,
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:          "zero_amount",
			auctionID:     "auction1",
			userID:        "user1",
			amount:        0,
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: biddingerrors.ErrValidation,
		},
		{
			name:          "negative_amount",
			auctionID:     "auction1",
			userID:        "user1",
			amount:        -50,
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: biddingerrors.ErrValidation,
		},
		{
			name:      "store_rejects_too_low",
			auctionID: "auction1",
			userID:    "user2",
			amount:    100500,
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).
					Return(models.AuctionSummary{}, pricing.NewPolicy(1000).Check(100000, 100500))
			},
			expectedError: biddingerrors.ErrBidTooLow,
		},
		{
			name:      "store_rejects_duplicate",
			auctionID: "auction1",
			userID:    "user2",
			amount:    200000,
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).
					Return(models.AuctionSummary{}, biddingerrors.ErrDuplicateBidder)
			},
			expectedError: biddingerrors.ErrDuplicateBidder,
		},
		{
			name:      "store_fails",
			auctionID: "auction1",
			userID:    "user3",
			amount:    120000,
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().PlaceBid(gomock.Any(), gomock.Any()).
					Return(models.AuctionSummary{}, errors.New("repo write failed"))
			},
			expectError:   true,
			expectedError: nil, // Service wraps repo error, we don't match specific error here
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, mockRepo, _ := newMockedService(t)
			tc.mockSetup(mockRepo)

			bid, auction, err := service.PlaceBid(context.Background(), tc.auctionID, tc.userID, tc.amount)

			if tc.expectError || tc.expectedError != nil {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.ErrorIs(t, err, tc.expectedError)
				}
				return
			}

			require.NoError(t, err)

			// Validate generated BidID
			_, parseErr := uuid.Parse(bid.BidID)
			require.NoError(t, parseErr, "BidID should be a valid UUID")

			require.Equal(t, tc.auctionID, bid.AuctionID)
			require.Equal(t, tc.userID, bid.UserID)
			require.Equal(t, tc.amount, bid.Amount)
			require.Equal(t, fixedNow, bid.PlacedAt)
			require.Equal(t, tc.amount, auction.CurrentPrice)
			require.Equal(t, 1, auction.BidderCount)
		})
	}
}

// Tests ListActiveAuctions passes the service clock to the store
func TestBiddingService_ListActiveAuctions(t *testing.T) {
	t.Parallel()

	t.Run("returns_store_result", func(t *testing.T) {
		t.Parallel()
		service, mockRepo, _ := newMockedService(t)
		want := []models.AuctionSummary{{Auction: models.Auction{AuctionID: "a1"}, BidderCount: 2}}
		mockRepo.EXPECT().ListActiveAuctions(gomock.Any(), fixedNow).Return(want, nil)

		got, err := service.ListActiveAuctions(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("store_unavailable", func(t *testing.T) {
		t.Parallel()
		service, mockRepo, _ := newMockedService(t)
		mockRepo.EXPECT().ListActiveAuctions(gomock.Any(), fixedNow).
			Return(nil, biddingerrors.ErrUnavailable)

		_, err := service.ListActiveAuctions(context.Background())
		require.ErrorIs(t, err, biddingerrors.ErrUnavailable)
	})
}

// Tests GetBidsForAuction
func TestBiddingService_GetBidsForAuction(t *testing.T) {
	t.Parallel()

	bidsExample := []models.Bid{
		{BidID: "bid2", AuctionID: "auction1", UserID: "user2", Amount: 150, PlacedAt: fixedNow.Add(time.Second)},
		{BidID: "bid1", AuctionID: "auction1", UserID: "user1", Amount: 100, PlacedAt: fixedNow},
	}

	tests := []struct {
		name          string
		auctionID     string
		mockSetup     func(repo *repository.MockAuctionDB)
		expectedError error
		expectedBids  []models.Bid
	}{
		{
			name:      "auction_with_bids",
			auctionID: "auction1",
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction1").Return(bidsExample, nil)
			},
			expectedBids: bidsExample,
		},
		{
			name:      "auction_without_bids",
			auctionID: "auction2",
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction2").Return([]models.Bid{}, nil)
			},
			expectedBids: []models.Bid{},
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			mockSetup:     func(*repository.MockAuctionDB) {},
			expectedError: biddingerrors.ErrInvalidBid,
		},
		{
			name:      "unknown_auction",
			auctionID: "auction3",
			mockSetup: func(repo *repository.MockAuctionDB) {
				repo.EXPECT().GetBidsByAuction(gomock.Any(), "auction3").Return(nil, biddingerrors.ErrAuctionNotFound)
			},
			expectedError: biddingerrors.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, mockRepo, _ := newMockedService(t)
			tc.mockSetup(mockRepo)

			bids, err := service.GetBidsForAuction(context.Background(), tc.auctionID)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedBids, bids)
		})
	}
}

// Tests Register and Login shape validation and delegation
func TestBiddingService_Accounts(t *testing.T) {
	t.Parallel()

	user := models.User{UserID: uuid.NewString(), Email: "jane@example.com", DisplayName: "Jane"}

	t.Run("register_delegates", func(t *testing.T) {
		t.Parallel()
		service, _, mockAuth := newMockedService(t)
		mockAuth.EXPECT().Register(gomock.Any(), "Jane", "jane@example.com", "secret123").Return(user, nil)

		got, err := service.Register(context.Background(), "Jane", "jane@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, user, got)
	})

	t.Run("register_missing_field", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newMockedService(t)

		_, err := service.Register(context.Background(), "Jane", "", "secret123")
		require.ErrorIs(t, err, biddingerrors.ErrValidation)
	})

	t.Run("register_duplicate_email", func(t *testing.T) {
		t.Parallel()
		service, _, mockAuth := newMockedService(t)
		mockAuth.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(models.User{}, biddingerrors.ErrDuplicateEmail)

		_, err := service.Register(context.Background(), "Jane", "jane@example.com", "secret123")
		require.ErrorIs(t, err, biddingerrors.ErrDuplicateEmail)
	})

	t.Run("login_delegates", func(t *testing.T) {
		t.Parallel()
		service, _, mockAuth := newMockedService(t)
		mockAuth.EXPECT().Authenticate(gomock.Any(), "jane@example.com", "secret123").Return(user, nil)

		got, err := service.Login(context.Background(), "jane@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, user, got)
	})

	t.Run("login_missing_password", func(t *testing.T) {
		t.Parallel()
		service, _, _ := newMockedService(t)

		_, err := service.Login(context.Background(), "jane@example.com", "")
		require.ErrorIs(t, err, biddingerrors.ErrValidation)
	})

	t.Run("login_invalid_credentials", func(t *testing.T) {
		t.Parallel()
		service, _, mockAuth := newMockedService(t)
		mockAuth.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(models.User{}, biddingerrors.ErrInvalidCredentials)

		_, err := service.Login(context.Background(), "jane@example.com", "nope")
		require.ErrorIs(t, err, biddingerrors.ErrInvalidCredentials)
	})
}

// Tests the service against the real in-memory store
func TestBiddingService_WithMemoryRepo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewMemoryRepo(pricing.NewPolicy(pricing.DefaultMinIncrement))
	service := NewBiddingService(repo, auth.NewPasswordAuthenticator(repo, bcrypt.MinCost))

	require.NoError(t, repo.AddAuction(ctx, models.Auction{
		AuctionID:     "A",
		Title:         "Car",
		StartingPrice: 100000,
		EndTime:       time.Now().Add(time.Hour),
	}))

	u1, err := service.Register(ctx, "One", "one@example.com", "secret123")
	require.NoError(t, err)
	u2, err := service.Register(ctx, "Two", "two@example.com", "secret123")
	require.NoError(t, err)

	_, _, err = service.PlaceBid(ctx, "A", u1.UserID, 100500)
	require.ErrorIs(t, err, biddingerrors.ErrBidTooLow)

	_, auction, err := service.PlaceBid(ctx, "A", u1.UserID, 101000)
	require.NoError(t, err)
	require.Equal(t, int64(101000), auction.CurrentPrice)
	require.Equal(t, 1, auction.BidderCount)

	_, _, err = service.PlaceBid(ctx, "A", u1.UserID, 105000)
	require.ErrorIs(t, err, biddingerrors.ErrDuplicateBidder)

	_, auction, err = service.PlaceBid(ctx, "A", u2.UserID, 102000)
	require.NoError(t, err)
	require.Equal(t, int64(102000), auction.CurrentPrice)
	require.Equal(t, 2, auction.BidderCount)

	bids, err := service.GetBidsForAuction(ctx, "A")
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, "Two", bids[0].UserName)

	logged, err := service.Login(ctx, "one@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, u1.UserID, logged.UserID)
}

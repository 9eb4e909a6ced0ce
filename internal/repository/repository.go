package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB is the auction store. Implementations are the single source of truth for
// auctions, bids and users, and enforce every bidding invariant themselves.
type AuctionDB interface {
	// ListActiveAuctions returns active auctions ending after now, ordered by end time,
	// each annotated with its distinct bidder count.
	ListActiveAuctions(ctx context.Context, now time.Time) ([]models.AuctionSummary, error)
	GetAuction(ctx context.Context, auctionID string) (models.AuctionSummary, error)
	AddAuction(ctx context.Context, auction models.Auction) error
	// PlaceBid atomically validates and records bid, using bid.PlacedAt as the current time.
	PlaceBid(ctx context.Context, bid models.Bid) (models.AuctionSummary, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error)
	// ExpireAuctions marks active auctions whose end time has passed as ended.
	ExpireAuctions(ctx context.Context, now time.Time) (int, error)

	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	Close() error
}

// auctionEntry guards one auction and its bids. Bids on different auctions never contend.
type auctionEntry struct {
	mu      sync.Mutex
	auction models.Auction
	bids    []models.Bid
	bidders map[string]struct{}
}

func (e *auctionEntry) summary() models.AuctionSummary {
	a := e.auction
	a.Media = append([]models.MediaRef(nil), a.Media...)
	if a.Specs != nil {
		specs := make(map[string]string, len(a.Specs))
		for k, v := range a.Specs {
			specs[k] = v
		}
		a.Specs = specs
	}
	return models.AuctionSummary{Auction: a, BidderCount: len(e.bidders)}
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	policy pricing.Policy

	mu       sync.RWMutex
	auctions map[string]*auctionEntry // key: auctionID
	users    map[string]models.User   // key: userID
	emails   map[string]string        // key: normalised email -> userID
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo(policy pricing.Policy) *MemoryRepo {
	return &MemoryRepo{
		policy:   policy,
		auctions: make(map[string]*auctionEntry),
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
	}
}

// ListActiveAuctions returns open auctions ordered by ascending end time
func (r *MemoryRepo) ListActiveAuctions(_ context.Context, now time.Time) ([]models.AuctionSummary, error) {
	r.mu.RLock()
	entries := make([]*auctionEntry, 0, len(r.auctions))
	for _, e := range r.auctions {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]models.AuctionSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if e.auction.IsOpen(now) {
			out = append(out, e.summary())
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].EndTime.Before(out[j].EndTime)
		}
		return out[i].AuctionID < out[j].AuctionID
	})
	return out, nil
}

// GetAuction returns one auction regardless of status
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (models.AuctionSummary, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return models.AuctionSummary{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary(), nil
}

// AddAuction seeds an auction. Existing IDs are left untouched.
func (r *MemoryRepo) AddAuction(_ context.Context, auction models.Auction) error {
	auction = normaliseAuction(auction)
	if auction.AuctionID == "" {
		return fmt.Errorf("add auction: %w - empty auction ID", biddingerrors.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.auctions[auction.AuctionID]; exists {
		return nil
	}
	r.auctions[auction.AuctionID] = &auctionEntry{
		auction: auction,
		bidders: make(map[string]struct{}),
	}
	return nil
}

// PlaceBid records a bid if it satisfies every invariant. The whole check-and-write runs
// under the auction's own lock, so a racing bid always sees the winner's price.
func (r *MemoryRepo) PlaceBid(_ context.Context, bid models.Bid) (models.AuctionSummary, error) {
	e, ok := r.entry(bid.AuctionID)
	if !ok {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	r.mu.RLock()
	user, userExists := r.users[bid.UserID]
	r.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auction.IsOpen(bid.PlacedAt) {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionEnded)
	}
	if err := r.policy.Check(e.auction.CurrentPrice, bid.Amount); err != nil {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID, err)
	}
	if _, dup := e.bidders[bid.UserID]; dup {
		return models.AuctionSummary{}, fmt.Errorf("place bid on auction %s: %w", bid.AuctionID,
			biddingerrors.Reject(biddingerrors.ErrDuplicateBidder, "you have already placed a bid on this auction"))
	}
	if !userExists {
		return models.AuctionSummary{}, fmt.Errorf("place bid by user %s: %w", bid.UserID, biddingerrors.ErrUserNotFound)
	}

	bid.UserName = user.DisplayName
	e.bids = append(e.bids, bid)
	e.bidders[bid.UserID] = struct{}{}
	e.auction.CurrentPrice = bid.Amount

	return e.summary(), nil
}

// GetBidsByAuction returns the bids of an auction, highest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]models.Bid, error) {
	e, ok := r.entry(auctionID)
	if !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}

	e.mu.Lock()
	bids := append([]models.Bid(nil), e.bids...)
	e.mu.Unlock()

	sortBids(bids)
	return bids, nil
}

// ExpireAuctions flips every past-end active auction to ended
func (r *MemoryRepo) ExpireAuctions(_ context.Context, now time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expired := 0
	for _, e := range r.auctions {
		e.mu.Lock()
		if e.auction.Status == models.StatusActive && !e.auction.EndTime.After(now) {
			e.auction.Status = models.StatusEnded
			expired++
		}
		e.mu.Unlock()
	}
	return expired, nil
}

// CreateUser stores a new user; emails are unique case-insensitively
func (r *MemoryRepo) CreateUser(_ context.Context, user models.User) error {
	email := NormaliseEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emails[email]; exists {
		return fmt.Errorf("create user %s: %w", email, biddingerrors.ErrDuplicateEmail)
	}
	user.Email = email
	r.users[user.UserID] = user
	r.emails[email] = user.UserID
	return nil
}

// GetUserByEmail looks a user up by email
func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[NormaliseEmail(email)]
	if !ok {
		return models.User{}, fmt.Errorf("get user %s: %w", email, biddingerrors.ErrUserNotFound)
	}
	return r.users[id], nil
}

// Close is a no-op for the in-memory store
func (r *MemoryRepo) Close() error {
	return nil
}

func (r *MemoryRepo) entry(auctionID string) (*auctionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.auctions[auctionID]
	return e, ok
}

// NormaliseEmail lower-cases and trims an email address
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normaliseAuction(a models.Auction) models.Auction {
	if a.CurrentPrice < a.StartingPrice {
		a.CurrentPrice = a.StartingPrice
	}
	if a.Status == "" {
		a.Status = models.StatusActive
	}
	a.EndTime = a.EndTime.UTC()
	return a
}

// sortBids orders bids by amount descending, earliest first on ties
func sortBids(bids []models.Bid) {
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].PlacedAt.Before(bids[j].PlacedAt)
	})
}

// Package storefront is the client side of the auction: a cached catalog that stays usable when
// the auction service is unreachable, the bid submission strategy, and the session and filter
// state a presentation layer renders.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrLoginRequired is returned for actions that need a session.
	ErrLoginRequired = errors.New("please login to place a bid")
	// ErrBidInFlight rejects a second submission while one is outstanding for the same auction.
	ErrBidInFlight = errors.New("a bid on this auction is already being submitted")
)

// bidHistoryFetches bounds concurrent bid history requests during a refresh.
const bidHistoryFetches = 4

// BidOutcome describes an accepted bid.
type BidOutcome struct {
	Listing Listing
	Amount  int64
	// Offline is set when the bid was only applied to the local copy.
	Offline bool
}

// Storefront coordinates the cache, the auction API and the session.
type Storefront struct {
	api    API
	cache  *Cache
	policy pricing.Policy
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	session  *Session
	filter   Filter
	inflight map[string]struct{}
}

// Option configures a Storefront.
type Option func(*Storefront)

// WithPolicy sets the bid increment policy. It must match the server's.
func WithPolicy(p pricing.Policy) Option {
	return func(s *Storefront) { s.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Storefront) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Storefront) { s.now = now }
}

// New creates a storefront over api with an empty cache.
func New(api API, opts ...Option) *Storefront {
	s := &Storefront{
		api:      api,
		cache:    NewCache(),
		policy:   pricing.NewPolicy(pricing.DefaultMinIncrement),
		now:      time.Now,
		logger:   slog.Default(),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the underlying cache for read access.
func (s *Storefront) Cache() *Cache {
	return s.cache
}

// Policy returns the bid policy in use.
func (s *Storefront) Policy() pricing.Policy {
	return s.policy
}

// Refresh replaces the cache with the server's catalog. Any failure loads the sample catalog
// instead. The returned source is what this fetch produced; a newer fetch may already have
// superseded it.
func (s *Storefront) Refresh(ctx context.Context) Source {
	gen := s.cache.BeginFetch()

	listings, err := s.fetchCatalog(ctx)
	if err != nil {
		s.logger.Warn("catalog fetch failed, showing sample catalog", "error", err)
		s.cache.ReplaceAll(gen, SampleCatalog(s.now()), SourceFallback)
		return SourceFallback
	}

	if !s.cache.ReplaceAll(gen, listings, SourceServer) {
		s.logger.Debug("dropped stale catalog response", "generation", gen)
	}
	return SourceServer
}

// fetchCatalog loads open auctions and their bid histories. A history that cannot be loaded
// leaves that listing without bids.
func (s *Storefront) fetchCatalog(ctx context.Context) ([]Listing, error) {
	auctions, err := s.api.ListAuctions(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, len(auctions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bidHistoryFetches)
	for i, a := range auctions {
		listings[i] = Listing{AuctionSummary: a}
		g.Go(func() error {
			bids, err := s.api.GetBids(gctx, a.AuctionID)
			if err != nil {
				s.logger.Warn("bid history unavailable", "auction_id", a.AuctionID, "error", err)
				return nil
			}
			listings[i].Bids = bids
			return nil
		})
	}
	_ = g.Wait()
	return listings, nil
}

// PlaceBid submits a bid for the logged-in user. amount 0 bids the minimum. Rejections by the
// local check or by the server leave the cache untouched; when the server cannot be reached the
// bid is applied to the local copy only.
func (s *Storefront) PlaceBid(ctx context.Context, auctionID string, amount int64) (BidOutcome, error) {
	session, ok := s.Session()
	if !ok {
		return BidOutcome{}, ErrLoginRequired
	}

	if !s.acquire(auctionID) {
		return BidOutcome{}, ErrBidInFlight
	}
	defer s.release(auctionID)

	amount, err := s.checkBid(auctionID, session.User.UserID, amount)
	if err != nil {
		return BidOutcome{}, err
	}

	outcome, err := s.remoteBid(ctx, auctionID, session.User, amount)
	if biddingerrors.Retryable(err) {
		s.logger.Warn("auction service unreachable, applying bid locally",
			"auction_id", auctionID, "amount", amount, "error", err)
		return s.localBid(auctionID, session.User, amount)
	}
	return outcome, err
}

// checkBid validates a bid against the cached listing and resolves a zero amount to the minimum.
// It must run while the auction's in-flight slot is held so it sees any bid that just completed.
func (s *Storefront) checkBid(auctionID, userID string, amount int64) (int64, error) {
	listing, ok := s.cache.Lookup(auctionID)
	if !ok {
		return 0, biddingerrors.Reject(biddingerrors.ErrNotFound, "auction not found")
	}
	if !listing.IsOpen(s.now()) {
		return 0, biddingerrors.Reject(biddingerrors.ErrNotFound, "auction has ended")
	}
	if listing.HasBidFrom(userID) {
		return 0, biddingerrors.Reject(biddingerrors.ErrDuplicateBidder, "you have already placed a bid on this vehicle")
	}

	if amount == 0 {
		amount = s.policy.MinimumBid(listing.CurrentPrice)
	}
	if err := s.policy.Check(listing.CurrentPrice, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// remoteBid places the bid on the server and reloads the catalog on success.
func (s *Storefront) remoteBid(ctx context.Context, auctionID string, user models.User, amount int64) (BidOutcome, error) {
	summary, err := s.api.PlaceBid(ctx, auctionID, user.UserID, amount)
	if err != nil {
		return BidOutcome{}, err
	}

	s.logger.Info("bid accepted", "auction_id", auctionID, "amount", amount, "bidders", summary.BidderCount)
	s.Refresh(ctx)

	listing, ok := s.cache.Lookup(auctionID)
	if !ok {
		listing = Listing{AuctionSummary: summary}
	}
	return BidOutcome{Listing: listing, Amount: amount}, nil
}

// localBid applies the bid to the cached copy only. It is never sent to the server later.
func (s *Storefront) localBid(auctionID string, user models.User, amount int64) (BidOutcome, error) {
	listing, err := s.cache.ApplyOptimisticBid(models.Bid{
		BidID:     "local-" + uuid.NewString(),
		AuctionID: auctionID,
		UserID:    user.UserID,
		UserName:  user.DisplayName,
		Amount:    amount,
		PlacedAt:  s.now().UTC(),
	})
	if err != nil {
		return BidOutcome{}, err
	}
	return BidOutcome{Listing: listing, Amount: amount, Offline: true}, nil
}

func (s *Storefront) acquire(auctionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[auctionID]; busy {
		return false
	}
	s.inflight[auctionID] = struct{}{}
	return true
}

func (s *Storefront) release(auctionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, auctionID)
}

// Login authenticates against the server. When the server cannot be reached an offline session
// is created so the storefront stays usable.
func (s *Storefront) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, biddingerrors.Reject(biddingerrors.ErrValidation, "please enter both email and password")
	}

	user, err := s.api.Login(ctx, email, password)
	switch {
	case biddingerrors.Retryable(err):
		s.logger.Warn("auction service unreachable, logging in offline", "email", email, "error", err)
		return s.startSession(offlineSession("", email)), nil
	case err != nil:
		return Session{}, err
	}

	session := s.startSession(Session{User: user})
	s.Refresh(ctx)
	return session, nil
}

// Register creates an account and logs it in. When the server cannot be reached an offline
// session is created instead.
func (s *Storefront) Register(ctx context.Context, name, email, password string) (Session, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Session{}, biddingerrors.Reject(biddingerrors.ErrValidation, "please fill all fields")
	}

	user, err := s.api.Register(ctx, name, email, password)
	switch {
	case biddingerrors.Retryable(err):
		s.logger.Warn("auction service unreachable, registering offline", "email", email, "error", err)
		return s.startSession(offlineSession(name, email)), nil
	case err != nil:
		return Session{}, err
	}

	session := s.startSession(Session{User: user})
	s.Refresh(ctx)
	return session, nil
}

func (s *Storefront) startSession(session Session) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	s.logger.Info("logged in", "user_id", session.User.UserID, "offline", session.Offline)
	return session
}

// Logout ends the session.
func (s *Storefront) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// Session returns the current session, if any.
func (s *Storefront) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// SetFilter replaces the filter criteria.
func (s *Storefront) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// UpdateFilter applies fn to the current filter.
func (s *Storefront) UpdateFilter(fn func(*Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.filter)
}

// ClearFilters removes every criterion.
func (s *Storefront) ClearFilters() {
	s.SetFilter(Filter{})
}

// Filter returns the current criteria.
func (s *Storefront) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// View returns the filtered listings. The cache is not modified.
func (s *Storefront) View() []Listing {
	return s.Filter().Apply(s.cache.CurrentView(), s.now())
}

// Detail returns one listing from the full catalog regardless of filters.
func (s *Storefront) Detail(auctionID string) (Listing, error) {
	l, ok := s.cache.Lookup(auctionID)
	if !ok {
		return Listing{}, fmt.Errorf("%w: %s", biddingerrors.ErrAuctionNotFound, auctionID)
	}
	return l, nil
}

// Now returns the storefront's clock reading.
func (s *Storefront) Now() time.Time {
	return s.now()
}

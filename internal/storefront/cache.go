package storefront

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
)

// Source says where the cached catalog came from.
type Source int

const (
	SourceNone Source = iota
	SourceServer
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceServer:
		return "server"
	case SourceFallback:
		return "offline sample"
	default:
		return "empty"
	}
}

// Listing is one cached auction with the bid history known to the client.
type Listing struct {
	models.AuctionSummary
	Bids []models.Bid `json:"bids"`
}

// HasBidFrom reports whether userID has a bid on the listing.
func (l Listing) HasBidFrom(userID string) bool {
	if userID == "" {
		return false
	}
	for _, b := range l.Bids {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

// WinningBid returns the highest known bid.
func (l Listing) WinningBid() (models.Bid, bool) {
	var best models.Bid
	found := false
	for _, b := range l.Bids {
		if !found || b.Amount > best.Amount {
			best, found = b, true
		}
	}
	return best, found
}

func (l Listing) clone() Listing {
	out := l
	out.Media = slices.Clone(l.Media)
	out.Specs = maps.Clone(l.Specs)
	out.Bids = slices.Clone(l.Bids)
	return out
}

// Cache is the client's working copy of the catalog. All reads return copies.
type Cache struct {
	mu       sync.RWMutex
	listings []Listing
	index    map[string]int
	source   Source

	// fetches counts initiated fetches; applied is the newest one written.
	fetches uint64
	applied uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{index: make(map[string]int)}
}

// BeginFetch registers a new catalog fetch and returns its generation.
func (c *Cache) BeginFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	return c.fetches
}

// ReplaceAll swaps the whole catalog for the response of fetch gen. A response older than one
// already applied is dropped and ReplaceAll returns false.
func (c *Cache) ReplaceAll(gen uint64, listings []Listing, source Source) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen <= c.applied {
		return false
	}

	c.applied = gen
	c.source = source
	c.listings = make([]Listing, 0, len(listings))
	c.index = make(map[string]int, len(listings))
	for _, l := range listings {
		c.index[l.AuctionID] = len(c.listings)
		c.listings = append(c.listings, l.clone())
	}
	return true
}

// ApplyOptimisticBid records a bid the server never confirmed: it is appended to the
// listing's history, becomes the current price, and the bidder count is recomputed from
// local history. A second bid from the same user or one that does not raise the price is
// rejected.
func (c *Cache) ApplyOptimisticBid(bid models.Bid) (Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[bid.AuctionID]
	if !ok {
		return Listing{}, fmt.Errorf("optimistic bid on %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	l := &c.listings[i]
	if l.HasBidFrom(bid.UserID) {
		return Listing{}, biddingerrors.Reject(biddingerrors.ErrDuplicateBidder, "you have already placed a bid on this vehicle")
	}
	if bid.Amount <= l.CurrentPrice {
		return Listing{}, biddingerrors.Reject(biddingerrors.ErrBidTooLow, "bid must exceed %s", pricing.Format(l.CurrentPrice))
	}
	l.Bids = append(l.Bids, bid)
	l.CurrentPrice = bid.Amount
	l.BidderCount = models.DistinctBidders(l.Bids)
	return l.clone(), nil
}

// MarkEnded flips every active listing whose end time is not after now to ended and returns
// the listings that changed.
func (c *Cache) MarkEnded(now time.Time) []Listing {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ended []Listing
	for i := range c.listings {
		l := &c.listings[i]
		if l.Status == models.StatusActive && !l.EndTime.After(now) {
			l.Status = models.StatusEnded
			ended = append(ended, l.clone())
		}
	}
	return ended
}

// CurrentView returns a copy of every cached listing in catalog order.
func (c *Cache) CurrentView() []Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Listing, len(c.listings))
	for i, l := range c.listings {
		out[i] = l.clone()
	}
	return out
}

// Lookup returns a copy of one listing.
func (c *Cache) Lookup(auctionID string) (Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[auctionID]
	if !ok {
		return Listing{}, false
	}
	return c.listings[i].clone(), true
}

// Source reports where the current catalog came from.
func (c *Cache) Source() Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

package models

import "time"

// User represents a registered bidder
type User struct {
	UserID       string    `json:"user_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"-"`
}

// MediaKind tags a gallery entry
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaEmbed MediaKind = "embed"
)

// MediaRef is one entry of an auction's gallery
type MediaRef struct {
	Kind MediaKind `json:"kind" yaml:"kind"`
	Src  string    `json:"src" yaml:"src"`
	Alt  string    `json:"alt,omitempty" yaml:"alt"`
}

// AuctionStatus is the lifecycle state of an auction
type AuctionStatus string

const (
	StatusActive AuctionStatus = "active"
	StatusEnded  AuctionStatus = "ended"
)

// Auction represents one vehicle for sale
type Auction struct {
	AuctionID     string            `json:"auction_id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Media         []MediaRef        `json:"media"`
	Specs         map[string]string `json:"specs,omitempty"`
	StartingPrice int64             `json:"starting_price"`
	CurrentPrice  int64             `json:"current_price"`
	EndTime       time.Time         `json:"end_time"`
	Status        AuctionStatus     `json:"status"`
}

// IsOpen reports whether the auction accepts bids at now.
func (a Auction) IsOpen(now time.Time) bool {
	return a.Status == StatusActive && a.EndTime.After(now)
}

// ImageRef returns the first image of the gallery, or the first entry of any kind.
func (a Auction) ImageRef() string {
	for _, m := range a.Media {
		if m.Kind == MediaImage {
			return m.Src
		}
	}
	if len(a.Media) > 0 {
		return a.Media[0].Src
	}
	return ""
}

// AuctionSummary is an auction annotated with the number of distinct bidders
type AuctionSummary struct {
	Auction
	BidderCount int `json:"bidder_count"`
}

// Bid represents an accepted offer by one user on one auction
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Amount    int64     `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}

// DistinctBidders counts the distinct users across bids.
func DistinctBidders(bids []Bid) int {
	seen := make(map[string]struct{}, len(bids))
	for _, b := range bids {
		seen[b.UserID] = struct{}{}
	}
	return len(seen)
}

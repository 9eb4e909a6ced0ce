package storefront

import (
	"context"
	"fmt"
	"time"
)

// CountdownPeriod is how often remaining times are recomputed.
const CountdownPeriod = time.Second

// ExpiringThreshold flags listings with less remaining time than this.
const ExpiringThreshold = time.Hour

// EndedLabel replaces the countdown once an auction is over.
const EndedLabel = "Auction Ended"

// FormatRemaining renders the time left until end as "Xd Xh Xm Xs".
func FormatRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return EndedLabel
	}

	seconds := int64(diff / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours%24, minutes%60, seconds%60)
}

// Expiring reports whether an auction ending at end is in its last hour.
func Expiring(end, now time.Time) bool {
	return end.Sub(now) < ExpiringThreshold
}

// Tick marks every listing whose end time has passed as ended in the local view and returns
// those listings. The server is not contacted.
func (s *Storefront) Tick(now time.Time) []Listing {
	return s.cache.MarkEnded(now)
}

// RunCountdown ticks every period until ctx is done, passing newly ended listings to onEnded.
func (s *Storefront) RunCountdown(ctx context.Context, period time.Duration, onEnded func([]Listing)) {
	if period <= 0 {
		period = CountdownPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ended := s.Tick(s.now())
			if len(ended) == 0 {
				continue
			}
			for _, l := range ended {
				s.logger.Info("auction ended", "auction_id", l.AuctionID, "title", l.Title)
			}
			if onEnded != nil {
				onEnded(ended)
			}
		}
	}
}

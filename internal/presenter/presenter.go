// Package presenter renders storefront results as plain text for a terminal.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"carz-auction/internal/biddingerrors"
	"carz-auction/internal/models"
	"carz-auction/internal/pricing"
	"carz-auction/internal/storefront"
)

// Presenter writes results to w.
type Presenter struct {
	w      io.Writer
	policy pricing.Policy
	now    func() time.Time
}

// New creates a presenter. policy is used to show the minimum next bid.
func New(w io.Writer, policy pricing.Policy, now func() time.Time) *Presenter {
	if now == nil {
		now = time.Now
	}
	return &Presenter{w: w, policy: policy, now: now}
}

// Render writes one command result. userID marks listings the user has bid on.
func (p *Presenter) Render(res storefront.Result, userID string) {
	if res.Message != "" {
		fmt.Fprintln(p.w, res.Message)
	}
	switch res.Kind {
	case storefront.ResultListings:
		p.Listings(res.Listings, res.Source, res.Filter, userID)
	case storefront.ResultDetail:
		p.Detail(res.Listing, userID)
	case storefront.ResultHelp:
		p.Help()
	}
}

// Listings writes the catalog as a table.
func (p *Presenter) Listings(listings []storefront.Listing, source storefront.Source, filter storefront.Filter, userID string) {
	now := p.now()
	header := fmt.Sprintf("%d cars (%s)", len(listings), source)
	if !filter.IsZero() {
		header += " filtered by " + describeFilter(filter)
	}
	fmt.Fprintln(p.w, header)

	if len(listings) == 0 {
		fmt.Fprintln(p.w, "No cars found matching your search. Try adjusting your search terms or filters.")
		return
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCURRENT BID\tBIDDERS\tENDS IN\tNOTE")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			l.AuctionID, l.Title, pricing.Format(l.CurrentPrice), l.BidderCount,
			storefront.FormatRemaining(l.EndTime, now), note(l, userID, now))
	}
	_ = tw.Flush()
}

func note(l storefront.Listing, userID string, now time.Time) string {
	switch {
	case !l.IsOpen(now):
		if best, ok := l.WinningBid(); ok {
			return "winning bid " + pricing.Format(best.Amount)
		}
		return "no bids placed"
	case l.HasBidFrom(userID):
		return "you have bid"
	case storefront.Expiring(l.EndTime, now):
		return "expiring"
	}
	return ""
}

func describeFilter(f storefront.Filter) string {
	var parts []string
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	if f.Price != storefront.PriceAny {
		parts = append(parts, "price "+string(f.Price))
	}
	if f.Window != storefront.WindowAny {
		parts = append(parts, "time "+string(f.Window))
	}
	return strings.Join(parts, ", ")
}

// Detail writes one listing with gallery, specs and bid history.
func (p *Presenter) Detail(l storefront.Listing, userID string) {
	now := p.now()
	fmt.Fprintf(p.w, "%s [%s]\n", l.Title, l.AuctionID)
	if l.Description != "" {
		fmt.Fprintln(p.w, l.Description)
	}
	fmt.Fprintf(p.w, "Current Bid: %s (starting %s, %d bidders)\n",
		pricing.Format(l.CurrentPrice), pricing.Format(l.StartingPrice), l.BidderCount)
	fmt.Fprintf(p.w, "Time Remaining: %s\n", storefront.FormatRemaining(l.EndTime, now))

	if len(l.Media) > 0 {
		fmt.Fprintln(p.w, "Gallery:")
		for _, m := range l.Media {
			fmt.Fprintf(p.w, "  [%s] %s %s\n", m.Kind, m.Src, m.Alt)
		}
	}

	if len(l.Specs) > 0 {
		fmt.Fprintln(p.w, "Specifications:")
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		keys := make([]string, 0, len(l.Specs))
		for k := range l.Specs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "  %s\t%s\n", k, l.Specs[k])
		}
		_ = tw.Flush()
	}

	p.bidHistory(l.Bids)

	switch {
	case !l.IsOpen(now):
		fmt.Fprintln(p.w, storefront.EndedLabel)
		if best, ok := l.WinningBid(); ok {
			fmt.Fprintf(p.w, "Winning Bid: %s\n", pricing.Format(best.Amount))
		} else {
			fmt.Fprintln(p.w, "No bids placed")
		}
	case l.HasBidFrom(userID):
		fmt.Fprintln(p.w, "You have already placed a bid on this vehicle")
	default:
		fmt.Fprintf(p.w, "Minimum bid: %s (bid %s <amount>)\n",
			pricing.Format(p.policy.MinimumBid(l.CurrentPrice)), l.AuctionID)
	}
}

func (p *Presenter) bidHistory(bids []models.Bid) {
	if len(bids) == 0 {
		return
	}
	sorted := slices.Clone(bids)
	slices.SortStableFunc(sorted, func(a, b models.Bid) int {
		switch {
		case a.Amount > b.Amount:
			return -1
		case a.Amount < b.Amount:
			return 1
		}
		return a.PlacedAt.Compare(b.PlacedAt)
	})

	fmt.Fprintln(p.w, "Bid History:")
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, b := range sorted {
		name := b.UserName
		if name == "" {
			name = b.UserID
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, pricing.Format(b.Amount), b.PlacedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

// Ended announces listings the countdown just closed.
func (p *Presenter) Ended(listings []storefront.Listing) {
	for _, l := range listings {
		fmt.Fprintf(p.w, "%s: %s\n", storefront.EndedLabel, l.Title)
	}
}

// Error writes a user-facing failure message. Internal causes are not shown.
func (p *Presenter) Error(err error) {
	fmt.Fprintln(p.w, "Error: "+Message(err))
}

// Message returns the text a user should see for err.
func Message(err error) string {
	var rej *biddingerrors.Rejection
	switch {
	case errors.As(err, &rej):
		return rej.Detail
	case errors.Is(err, biddingerrors.ErrUnavailable):
		return "the auction service is unavailable, try again later"
	case biddingerrors.ReasonOf(err) != biddingerrors.ReasonUnavailable:
		return biddingerrors.Detail(err)
	}
	return err.Error()
}

// Help lists the commands.
func (p *Presenter) Help() {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, line := range [][2]string{
		{"list", "show the catalog with the current filters"},
		{"show <id>", "show one car with gallery, specs and bids"},
		{"bid <id> [amount]", "bid on a car, the minimum when no amount is given"},
		{"login <email> <password>", "log in"},
		{"register <name> <email> <password>", "create an account and log in"},
		{"logout", "log out"},
		{"search <text>", "filter by title or description"},
		{"price <band>", "0-50000, 50000-100000, 100000-500000, 500000+ or all"},
		{"time <window>", "ending-soon, ending-week or all"},
		{"clear", "remove all filters"},
		{"refresh", "reload the catalog from the server"},
		{"quit", "exit"},
	} {
		fmt.Fprintf(tw, "  %s\t%s\n", line[0], line[1])
	}
	_ = tw.Flush()
}

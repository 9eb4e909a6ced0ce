package storefront

import (
	"fmt"
	"strings"
	"time"
)

// PriceBand restricts listings by current price.
type PriceBand string

const (
	PriceAny        PriceBand = ""
	PriceUnder50k   PriceBand = "0-50000"
	Price50kTo100k  PriceBand = "50000-100000"
	Price100kTo500k PriceBand = "100000-500000"
	PriceOver500k   PriceBand = "500000+"
)

// TimeWindow restricts listings by remaining time.
type TimeWindow string

const (
	WindowAny        TimeWindow = ""
	WindowEndingSoon TimeWindow = "ending-soon"
	WindowEndingWeek TimeWindow = "ending-week"
)

// ParsePriceBand accepts one of the band names or "all"/"" for no restriction.
func ParsePriceBand(s string) (PriceBand, error) {
	switch b := PriceBand(strings.TrimSpace(strings.ToLower(s))); b {
	case PriceAny, PriceUnder50k, Price50kTo100k, Price100kTo500k, PriceOver500k:
		return b, nil
	case "all":
		return PriceAny, nil
	default:
		return PriceAny, fmt.Errorf("unknown price band %q", s)
	}
}

// ParseTimeWindow accepts one of the window names or "all"/"" for no restriction.
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch w := TimeWindow(strings.TrimSpace(strings.ToLower(s))); w {
	case WindowAny, WindowEndingSoon, WindowEndingWeek:
		return w, nil
	case "all":
		return WindowAny, nil
	default:
		return WindowAny, fmt.Errorf("unknown time window %q", s)
	}
}

func (b PriceBand) contains(price int64) bool {
	switch b {
	case PriceUnder50k:
		return price <= 50000
	case Price50kTo100k:
		return price > 50000 && price <= 100000
	case Price100kTo500k:
		return price > 100000 && price <= 500000
	case PriceOver500k:
		return price > 500000
	default:
		return true
	}
}

func (w TimeWindow) contains(remaining time.Duration) bool {
	switch w {
	case WindowEndingSoon:
		return remaining <= day
	case WindowEndingWeek:
		return remaining <= 7*day
	default:
		return true
	}
}

// Filter is the set of criteria the view is derived with.
type Filter struct {
	Search string
	Price  PriceBand
	Window TimeWindow
}

// IsZero reports whether the filter lets everything through.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Price == PriceAny && f.Window == WindowAny
}

// Match reports whether l passes every criterion at now.
func (f Filter) Match(l Listing, now time.Time) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(l.Title), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) {
			return false
		}
	}
	return f.Price.contains(l.CurrentPrice) && f.Window.contains(l.EndTime.Sub(now))
}

// Apply returns the listings that match, in their original order. The input is not modified.
func (f Filter) Apply(listings []Listing, now time.Time) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if f.Match(l, now) {
			out = append(out, l)
		}
	}
	return out
}

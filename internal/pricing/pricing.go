// Package pricing holds the bid increment policy and money formatting shared by the
// auction server and the storefront client, so both sides reject the same amounts.
package pricing

import (
	"math"

	"carz-auction/internal/biddingerrors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultMinIncrement is the smallest step above the current price a new bid must reach.
const DefaultMinIncrement int64 = 1000

// Currency prefixes formatted amounts.
const Currency = "KSH"

var printer = message.NewPrinter(language.English)

// Policy is the minimum-increment rule.
type Policy struct {
	MinIncrement int64
}

// NewPolicy returns a policy with the given increment. Negative increments are treated as zero.
func NewPolicy(minIncrement int64) Policy {
	if minIncrement < 0 {
		minIncrement = 0
	}
	return Policy{MinIncrement: minIncrement}
}

// MinimumBid is the lowest acceptable amount given the current price. With a zero increment
// the amount must still strictly exceed the current price. The result saturates at math.MaxInt64.
func (p Policy) MinimumBid(current int64) int64 {
	if p.saturated(current) {
		return math.MaxInt64
	}
	return current + p.step()
}

// Check returns a TooLow rejection when amount is below MinimumBid(current), or when no amount
// can clear the current price.
func (p Policy) Check(current, amount int64) error {
	if p.saturated(current) {
		return biddingerrors.Reject(biddingerrors.ErrBidTooLow, "bid cannot exceed %s", Format(current))
	}
	if min := p.MinimumBid(current); amount < min {
		return biddingerrors.Reject(biddingerrors.ErrBidTooLow, "bid must be at least %s", Format(min))
	}
	return nil
}

func (p Policy) step() int64 {
	if p.MinIncrement <= 0 {
		return 1
	}
	return p.MinIncrement
}

// saturated reports whether current plus one step would overflow int64.
func (p Policy) saturated(current int64) bool {
	return current > math.MaxInt64-p.step()
}

// Format renders an amount with thousands separators, e.g. "KSH 101,000".
func Format(amount int64) string {
	return printer.Sprintf("%s %d", Currency, amount)
}

package biddingerrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store or the service wraps exactly one of these.
var (
	ErrValidation         = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrDuplicateBidder    = errors.New("user has already placed a bid on this auction")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnavailable        = errors.New("service unavailable")
	ErrRateLimited        = errors.New("too many requests")
)

// Repository-level errors
var (
	ErrAuctionNotFound = fmt.Errorf("auction %w", ErrNotFound)
	ErrAuctionEnded    = fmt.Errorf("auction has ended: %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

// business logic errors
var (
	ErrInvalidBid  = fmt.Errorf("invalid bid: %w", ErrValidation)
	ErrInvalidUser = fmt.Errorf("invalid user details: %w", ErrValidation)
)

// details are user-facing texts for derived errors that carry no Rejection
var details = []struct {
	err  error
	text string
}{
	{ErrAuctionEnded, "auction has ended"},
	{ErrAuctionNotFound, "auction not found"},
	{ErrUserNotFound, "user not found"},
	{ErrInvalidBid, "invalid bid details"},
	{ErrInvalidUser, "invalid user details"},
}

// Rejection is a business-rule rejection whose Detail is safe to show to end users.
type Rejection struct {
	Kind   error
	Detail string
}

func (r *Rejection) Error() string {
	return r.Detail
}

func (r *Rejection) Unwrap() error {
	return r.Kind
}

// Reject builds a Rejection of the given kind with a formatted detail.
func Reject(kind error, format string, args ...any) error {
	return &Rejection{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Detail returns the user-facing text of err. Errors that carry no Rejection fall back to the
// text of their kind, so internal causes never leak.
func Detail(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Detail
	}
	for _, d := range details {
		if errors.Is(err, d.err) {
			return d.text
		}
	}
	if r := ReasonOf(err); r != ReasonUnavailable {
		if kind := KindOf(r); kind != nil {
			return kind.Error()
		}
	}
	return ErrUnavailable.Error()
}

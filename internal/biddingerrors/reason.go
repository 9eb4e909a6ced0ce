package biddingerrors

import "errors"

// Reason is the machine-readable failure code carried in API responses.
type Reason string

const (
	ReasonValidation         Reason = "ValidationError"
	ReasonNotFound           Reason = "NotFound"
	ReasonTooLow             Reason = "TooLow"
	ReasonDuplicateBidder    Reason = "DuplicateBidder"
	ReasonDuplicateEmail     Reason = "DuplicateEmail"
	ReasonInvalidCredentials Reason = "InvalidCredentials"
	ReasonUnavailable        Reason = "Unavailable"
	ReasonRateLimited        Reason = "RateLimited"
)

var kinds = []struct {
	reason Reason
	kind   error
}{
	{ReasonValidation, ErrValidation},
	{ReasonNotFound, ErrNotFound},
	{ReasonTooLow, ErrBidTooLow},
	{ReasonDuplicateBidder, ErrDuplicateBidder},
	{ReasonDuplicateEmail, ErrDuplicateEmail},
	{ReasonInvalidCredentials, ErrInvalidCredentials},
	{ReasonRateLimited, ErrRateLimited},
	{ReasonUnavailable, ErrUnavailable},
}

// ReasonOf classifies err. Anything unrecognised is Unavailable.
func ReasonOf(err error) Reason {
	for _, k := range kinds {
		if errors.Is(err, k.kind) {
			return k.reason
		}
	}
	return ReasonUnavailable
}

// KindOf returns the sentinel for a reason received over the wire, or nil if unknown.
func KindOf(r Reason) error {
	for _, k := range kinds {
		if k.reason == r {
			return k.kind
		}
	}
	return nil
}

// Retryable reports whether err should push a client into offline mode.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

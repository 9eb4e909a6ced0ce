package helpers

import (
	"errors"
	"net/http"

	"carz-auction/internal/biddingerrors"
	"carz-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, biddingerrors.ReasonValidation,
		errors.New("invalid request payload"), "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code, reason and message.
// Store outages are 503; anything unclassified is 500.
func MapErrorToHTTP(err error) (int, biddingerrors.Reason, string) {
	switch reason := biddingerrors.ReasonOf(err); reason {
	case biddingerrors.ReasonValidation:
		return http.StatusBadRequest, reason, "invalid request details"
	case biddingerrors.ReasonNotFound:
		if errors.Is(err, biddingerrors.ErrAuctionEnded) {
			return http.StatusNotFound, reason, "auction has ended"
		}
		return http.StatusNotFound, reason, "not found"
	case biddingerrors.ReasonTooLow:
		return http.StatusConflict, reason, "bid amount too low"
	case biddingerrors.ReasonDuplicateBidder:
		return http.StatusConflict, reason, "duplicate bid"
	case biddingerrors.ReasonDuplicateEmail:
		return http.StatusConflict, reason, "email already registered"
	case biddingerrors.ReasonInvalidCredentials:
		return http.StatusUnauthorized, reason, "invalid credentials"
	case biddingerrors.ReasonRateLimited:
		return http.StatusTooManyRequests, reason, "too many requests"
	case biddingerrors.ReasonUnavailable:
		if errors.Is(err, biddingerrors.ErrUnavailable) {
			return http.StatusServiceUnavailable, reason, "service unavailable"
		}
		return http.StatusInternalServerError, reason, "internal server error"
	default:
		return http.StatusInternalServerError, biddingerrors.ReasonUnavailable, "internal server error"
	}
}

// RespondError writes the error envelope for err and logs it. Business rejections are logged
// at warn, anything unexpected at error with the full cause.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, reason, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, reason, errors.New(biddingerrors.Detail(err)), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["reason"] = reason
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

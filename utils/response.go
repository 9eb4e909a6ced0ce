package utils

import (
	"carz-auction/internal/biddingerrors"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response. err is the user-facing text only.
func JSONError(c *gin.Context, status int, reason biddingerrors.Reason, err error, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"status":  status,
		"message": message,
		"reason":  reason,
		"error":   err.Error(),
	})
}

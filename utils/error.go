package utils

import (
	"net/http"

	"servicehub/errs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.Int("status", status), zap.String("details", details))
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errs.Is(err, errs.Unauthenticated):
		return http.StatusUnauthorized
	case errs.Is(err, errs.Unauthorized):
		return http.StatusForbidden
	case errs.Is(err, errs.NotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.NotValid):
		return http.StatusBadRequest
	case errs.Is(err, errs.Conflict):
		return http.StatusConflict
	case errs.Is(err, errs.Backend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err with the status its classification calls for. The
// store's message is the response message.
func RespondError(c *gin.Context, err error) {
	JSONError(c, StatusFor(err), err.Error(), "")
}

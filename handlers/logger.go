package handlers

import (
	"net/http"

	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request logger set by the logging middleware, or the
// global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// bindJSON decodes the body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		getLogger(c).Debug("Invalid request body", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

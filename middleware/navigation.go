package middleware

import (
	"net/http"

	"servicehub/navigation"

	"github.com/gin-gonic/gin"
)

// NavigationGate redirects SPA navigations the guard does not allow.
func NavigationGate(guard *navigation.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := guard.Decide(c.Request.Context(), AppFrom(c).Identity, c.Request.URL.Path)
		if !d.Allowed() {
			c.Redirect(http.StatusFound, d.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}

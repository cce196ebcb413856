package middleware

import (
	"net/http"
	"slices"

	"servicehub/models"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without an identity. An identity still being
// resolved is waited for once, bounded by the adapter's init timeout.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := AppFrom(c).Identity
		ident.Await(c.Request.Context())
		if ident.User() == nil {
			utils.JSONError(c, http.StatusUnauthorized, "User not authenticated", "")
			return
		}
		c.Next()
	}
}

// RequireRole admits only identities whose role, as read from the user
// record, is one of roles. Use after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, AppFrom(c).Identity.Role()) {
			utils.JSONError(c, http.StatusForbidden, "Unauthorized", "")
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"time"

	"servicehub/services/session"

	"github.com/gin-gonic/gin"
)

const (
	// SessionIDCookie identifies the browser session.
	SessionIDCookie = "sid"
	// CredentialCookie carries the identity provider's session cookie.
	CredentialCookie = "__session"

	appKey = "app"
)

// CookieOptions control the cookies written by the session middleware and the
// auth handlers.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// Session attaches the application session of the calling browser to the
// request, issuing a session id on first contact. The identity adapter is
// started with the presented credential and re-resolves when it changes.
func Session(reg *session.Registry, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionIDCookie)
		if err != nil || sid == "" {
			sid = session.NewID()
			setCookie(c, SessionIDCookie, sid, opts)
		}
		app := reg.Get(sid)

		credential, _ := c.Cookie(CredentialCookie)
		app.Identity.Start(c.Request.Context(), credential)
		app.Identity.Observe(c.Request.Context(), credential)

		c.Set(appKey, app)
		c.Next()
	}
}

// AppFrom returns the application session attached by Session.
func AppFrom(c *gin.Context) *session.App {
	return c.MustGet(appKey).(*session.App)
}

// SetCredential stores the identity credential in the browser.
func SetCredential(c *gin.Context, credential string, opts CookieOptions) {
	setCookie(c, CredentialCookie, credential, opts)
}

// ClearCredential removes the identity credential from the browser.
func ClearCredential(c *gin.Context, opts CookieOptions) {
	opts.MaxAge = -time.Second
	setCookie(c, CredentialCookie, "", opts)
}

func setCookie(c *gin.Context, name, value string, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
}

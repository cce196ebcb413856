package handlers

import (
	"net/http"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/services/identity"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	Cookies middleware.CookieOptions
}

func NewAuthHandler(cookies middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{Cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var in identity.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	ident := middleware.AppFrom(c).Identity
	user, err := ident.Register(c.Request.Context(), in)
	if err != nil {
		getLogger(c).Info("Registration failed", zap.String("email", in.Email), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	middleware.SetCredential(c, ident.Credential(), h.Cookies)
	c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginRequest
	if !bindJSON(c, &in) {
		return
	}
	ident := middleware.AppFrom(c).Identity
	user, err := ident.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	middleware.SetCredential(c, ident.Credential(), h.Cookies)
	c.JSON(http.StatusOK, user)
}

// LoginWithToken handles POST /api/auth/login/token with the ID token of a
// third-party sign-in.
func (h *AuthHandler) LoginWithToken(c *gin.Context) {
	var in tokenLoginRequest
	if !bindJSON(c, &in) {
		return
	}
	ident := middleware.AppFrom(c).Identity
	user, err := ident.LoginWithIDToken(c.Request.Context(), in.IDToken)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	middleware.SetCredential(c, ident.Credential(), h.Cookies)
	c.JSON(http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.AppFrom(c).Identity.Logout(c.Request.Context()); err != nil {
		utils.RespondError(c, err)
		return
	}
	middleware.ClearCredential(c, h.Cookies)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

type meResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *identity.Identity `json:"user"`
	Role          models.Role        `json:"role"`
	CachedRole    models.Role        `json:"cachedRole"`
	Readiness     string             `json:"readiness"`
	Error         string             `json:"error,omitempty"`
}

// Me handles GET /api/auth/me. It waits for the first identity resolution,
// bounded by the init timeout.
func (h *AuthHandler) Me(c *gin.Context) {
	ident := middleware.AppFrom(c).Identity
	readiness := ident.Await(c.Request.Context())
	c.JSON(http.StatusOK, meResponse{
		Authenticated: ident.IsAuthenticated(),
		User:          ident.User(),
		Role:          ident.Role(),
		CachedRole:    ident.CachedRole(),
		Readiness:     readiness.String(),
		Error:         ident.LastError(),
	})
}

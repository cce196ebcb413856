package identity

import (
	"context"
	"time"
)

// Identity is what the identity provider knows about a signed-in principal.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
	PhotoURL    string `json:"photoURL"`
}

// Provider is the external identity service.
type Provider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error)
	// SignInWithPassword checks the credentials and returns a short lived ID token.
	SignInWithPassword(ctx context.Context, email, password string) (string, *Identity, error)
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
	// SessionCookie exchanges an ID token for a long lived session credential.
	SessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string) (*Identity, error)
	RevokeTokens(ctx context.Context, uid string) error
}

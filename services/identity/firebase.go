package identity

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// FirebaseProvider implements Provider with the Firebase Admin SDK. Password
// sign-in is not part of the Admin SDK and goes through the Identity Toolkit
// REST API with the project's web API key.
type FirebaseProvider struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
}

// NewFirebaseProvider builds the auth and toolkit clients for app.
func NewFirebaseProvider(ctx context.Context, app *firebase.App, webAPIKey string) (*FirebaseProvider, error) {
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Auth client: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(webAPIKey))
	if err != nil {
		return nil, fmt.Errorf("firebase: error creating identity toolkit service: %w", err)
	}
	return &FirebaseProvider{auth: authClient, toolkit: toolkit}, nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}
	rec, err := p.auth.CreateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (string, *Identity, error) {
	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, err
	}
	ident := &Identity{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		PhotoURL:    resp.PhotoUrl,
	}
	return resp.IdToken, ident, nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return p.lookup(ctx, tok)
}

func (p *FirebaseProvider) SessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	return p.auth.SessionCookie(ctx, idToken, ttl)
}

func (p *FirebaseProvider) VerifySessionCookie(ctx context.Context, cookie string) (*Identity, error) {
	tok, err := p.auth.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return p.lookup(ctx, tok)
}

func (p *FirebaseProvider) RevokeTokens(ctx context.Context, uid string) error {
	return p.auth.RevokeRefreshTokens(ctx, uid)
}

// lookup prefers the full user record and falls back to the token claims.
func (p *FirebaseProvider) lookup(ctx context.Context, tok *auth.Token) (*Identity, error) {
	rec, err := p.auth.GetUser(ctx, tok.UID)
	if err == nil {
		return fromRecord(rec), nil
	}
	if !auth.IsUserNotFound(err) {
		return nil, err
	}
	ident := &Identity{UID: tok.UID}
	ident.Email, _ = tok.Claims["email"].(string)
	ident.DisplayName, _ = tok.Claims["name"].(string)
	ident.PhotoURL, _ = tok.Claims["picture"].(string)
	return ident, nil
}

func fromRecord(rec *auth.UserRecord) *Identity {
	return &Identity{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		PhoneNumber: rec.PhoneNumber,
		PhotoURL:    rec.PhotoURL,
	}
}

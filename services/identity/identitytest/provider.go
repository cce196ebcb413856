// Package identitytest provides an in-process identity provider for tests of
// packages that sit above the identity adapter.
package identitytest

import (
	"context"
	"errors"
	"sync"
	"time"

	"servicehub/services/identity"
)

var ErrInvalidCredentials = errors.New("INVALID_LOGIN_CREDENTIALS")

type account struct {
	ident    identity.Identity
	password string
}

// Provider implements identity.Provider in memory. ID tokens are
// "token-<uid>" and session cookies "cookie-<uid>".
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]string   // id token -> uid
	cookies  map[string]string   // cookie -> uid
	revoked  []string
}

func NewProvider() *Provider {
	return &Provider{
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		cookies:  map[string]string{},
	}
}

// AddAccount registers a principal that can sign in with email and password.
func (p *Provider) AddAccount(ident identity.Identity, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[ident.Email] = &account{ident: ident, password: password}
}

// IssueIDToken returns an ID token for uid, as a third-party sign-in would.
func (p *Provider) IssueIDToken(uid string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := "token-" + uid
	p.tokens[token] = uid
	return token
}

// IssueCookie returns a valid session cookie for uid.
func (p *Provider) IssueCookie(uid string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	cookie := "cookie-" + uid
	p.cookies[cookie] = uid
	return cookie
}

// Revoked lists the uids whose tokens were revoked.
func (p *Provider) Revoked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.revoked...)
}

func (p *Provider) byUID(uid string) *identity.Identity {
	for _, a := range p.accounts {
		if a.ident.UID == uid {
			ident := a.ident
			return &ident
		}
	}
	return &identity.Identity{UID: uid}
}

func (p *Provider) CreateUser(_ context.Context, email, password, displayName string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return nil, errors.New("EMAIL_EXISTS")
	}
	ident := identity.Identity{UID: "uid-" + email, Email: email, DisplayName: displayName}
	p.accounts[email] = &account{ident: ident, password: password}
	return &ident, nil
}

func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (string, *identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[email]
	if !ok || a.password != password {
		return "", nil, ErrInvalidCredentials
	}
	token := "token-" + a.ident.UID
	p.tokens[token] = a.ident.UID
	ident := a.ident
	return token, &ident, nil
}

func (p *Provider) VerifyIDToken(_ context.Context, idToken string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[idToken]
	if !ok {
		return nil, errors.New("ID token has invalid signature")
	}
	return p.byUID(uid), nil
}

func (p *Provider) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[idToken]
	if !ok {
		return "", errors.New("ID token has invalid signature")
	}
	cookie := "cookie-" + uid
	p.cookies[cookie] = uid
	return cookie, nil
}

func (p *Provider) VerifySessionCookie(_ context.Context, cookie string) (*identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.cookies[cookie]
	if !ok {
		return nil, errors.New("session cookie is revoked or invalid")
	}
	return p.byUID(uid), nil
}

func (p *Provider) RevokeTokens(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for cookie, owner := range p.cookies {
		if owner == uid {
			delete(p.cookies, cookie)
		}
	}
	p.revoked = append(p.revoked, uid)
	return nil
}

var _ identity.Provider = (*Provider)(nil)

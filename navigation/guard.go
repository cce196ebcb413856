package navigation

import (
	"context"

	"servicehub/models"
	"servicehub/services/identity"

	"go.uber.org/zap"
)

// State is where a navigation request ended up.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authorized
	Denied
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Adapter is the identity view the guard needs.
type Adapter interface {
	Ready() bool
	Await(ctx context.Context) identity.Readiness
	User() *identity.Identity
	CachedRole() models.Role
}

// Decision is the outcome of one navigation. Redirect is empty when the
// navigation is allowed.
type Decision struct {
	State    State
	Route    Route
	Redirect string
	Waited   bool
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

type Guard struct {
	log *zap.Logger
}

func NewGuard(logger *zap.Logger) *Guard {
	return &Guard{log: logger.With(zap.String("component", "navigation"))}
}

// Decide runs the navigation state machine for path. Public and unknown paths
// are allowed without consulting the adapter. For a protected route an
// unresolved identity is waited for once; the adapter bounds that wait with
// its own init timeout.
func (g *Guard) Decide(ctx context.Context, a Adapter, path string) Decision {
	route, ok := Match(path)
	if !ok || !route.RequiresAuth() {
		return Decision{State: Authorized, Route: route}
	}

	d := Decision{Route: route}
	if !a.Ready() {
		d.Waited = true
		g.log.Debug("Navigation waiting for identity", zap.String("path", path), zap.Stringer("state", Authenticating))
		if r := a.Await(ctx); r == identity.TimedOut {
			g.log.Info("Identity not resolved before navigation", zap.String("path", path))
		}
	}

	if a.User() == nil {
		d.State = Unauthenticated
		d.Redirect = LoginPath
		return d
	}
	if a.CachedRole() != route.Role {
		d.State = Denied
		d.Redirect = DefaultPath
		return d
	}
	d.State = Authorized
	return d
}

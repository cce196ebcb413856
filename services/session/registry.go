// Package session keeps one application session per browser session. Each
// application session owns its identity adapter and its own catalog, worker
// and booking stores; nothing is shared between browser sessions except the
// backends.
package session

import (
	"context"
	"sync"
	"time"

	"servicehub/database/repository"
	"servicehub/services/booking"
	"servicehub/services/catalog"
	"servicehub/services/identity"
	"servicehub/services/workers"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// App is the state of one browser session.
type App struct {
	ID       string
	Identity *identity.Session
	Catalog  *catalog.Store
	Workers  *workers.Store
	Bookings *booking.Store

	lastSeen time.Time // guarded by Registry.mu
}

// Deps are the collaborators shared by every application session.
type Deps struct {
	Repos       *repository.Repositories
	Identity    identity.Deps
	Notifier    booking.Notifier
	Clock       clock.Clock
	Logger      *zap.Logger
	IdleTimeout time.Duration
}

type Registry struct {
	deps Deps
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*App
}

func NewRegistry(deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Identity.Users = deps.Repos.Users
	deps.Identity.Clock = deps.Clock
	deps.Identity.Logger = deps.Logger
	return &Registry{
		deps:     deps,
		log:      deps.Logger.With(zap.String("component", "sessions")),
		sessions: make(map[string]*App),
	}
}

// NewID returns a fresh browser session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the application session for sid, creating it on first use, and
// marks it as seen.
func (r *Registry) Get(sid string) *App {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.deps.Clock.Now()
	if app, ok := r.sessions[sid]; ok {
		app.lastSeen = now
		return app
	}
	app := r.build(sid)
	app.lastSeen = now
	r.sessions[sid] = app
	return app
}

// Lookup returns the application session for sid without creating one.
func (r *Registry) Lookup(sid string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.sessions[sid]
	return app, ok
}

func (r *Registry) build(sid string) *App {
	ident := identity.NewSession(sid, r.deps.Identity)
	logger := r.deps.Logger.With(zap.String("sid", sid))
	return &App{
		ID:       sid,
		Identity: ident,
		Catalog:  catalog.NewStore(r.deps.Repos.Catalog, r.deps.Clock, logger),
		Workers:  workers.NewStore(r.deps.Repos, ident, logger),
		Bookings: booking.NewStore(r.deps.Repos.Bookings, ident, r.deps.Notifier, r.deps.Clock, logger),
	}
}

// Len is the number of live application sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops application sessions idle for longer than the idle timeout and
// returns how many were dropped. The role cache entries stay until their own
// TTL, so a returning browser starts from its cached role.
func (r *Registry) Sweep() int {
	if r.deps.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.deps.Clock.Now().Add(-r.deps.IdleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for sid, app := range r.sessions {
		if app.lastSeen.Before(cutoff) {
			delete(r.sessions, sid)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.deps.Clock.After(interval):
			if n := r.Sweep(); n > 0 {
				r.log.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

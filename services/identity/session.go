package identity

import (
	"context"
	"sync"
	"time"

	"servicehub/database/repository"
	"servicehub/errs"
	"servicehub/models"

	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Readiness is the outcome of waiting for the first identity resolution.
type Readiness int

const (
	Resolved Readiness = iota + 1
	TimedOut
)

func (r Readiness) String() string {
	if r == Resolved {
		return "resolved"
	}
	return "timed out"
}

// Deps are the collaborators shared by every Session.
type Deps struct {
	Provider    Provider
	Users       repository.UserRepository
	Cache       RoleCache
	Clock       clock.Clock
	Logger      *zap.Logger
	InitTimeout time.Duration
	CookieTTL   time.Duration
}

// Session tracks the identity of one browser session. Identity changes arrive
// as notifications (identity or none) and are applied in order; a notification
// from a superseded credential is dropped.
type Session struct {
	sid  string
	deps Deps
	log  *zap.Logger

	// cacheMu orders role cache writes so a write from a superseded
	// generation never lands after a newer one.
	cacheMu sync.Mutex

	mu         sync.RWMutex
	user       *Identity
	role       models.Role
	cachedRole models.Role
	credential string
	gen        uint64
	lastErr    string

	startOnce sync.Once
	deadline  time.Time
	ready     chan struct{}
	readyOnce sync.Once
}

func NewSession(sid string, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Session{
		sid:   sid,
		deps:  deps,
		log:   deps.Logger.With(zap.String("store", "identity"), zap.String("sid", sid)),
		ready: make(chan struct{}),
	}
}

// ID is the browser session id the adapter is scoped to.
func (s *Session) ID() string { return s.sid }

// Start reads the role cache once and resolves credential in the background.
// Only the first call has any effect.
func (s *Session) Start(ctx context.Context, credential string) {
	s.startOnce.Do(func() {
		s.deadline = s.deps.Clock.Now().Add(s.deps.InitTimeout)

		cached, err := s.deps.Cache.Load(ctx, s.sid)
		if err != nil {
			s.recordErr(err)
		}

		s.mu.Lock()
		s.cachedRole = cached.Role
		s.credential = credential
		gen := s.gen
		s.mu.Unlock()

		go s.resolve(context.WithoutCancel(ctx), credential, gen)
	})
}

// Await blocks until the first notification has been applied or the init
// timeout elapses, whichever comes first.
func (s *Session) Await(ctx context.Context) Readiness {
	select {
	case <-s.ready:
		return Resolved
	default:
	}

	remaining := s.deadline.Sub(s.deps.Clock.Now())
	if remaining <= 0 {
		return TimedOut
	}
	select {
	case <-s.ready:
		return Resolved
	case <-s.deps.Clock.After(remaining):
		s.log.Warn("Identity initialization timed out", zap.Duration("timeout", s.deps.InitTimeout))
		return TimedOut
	case <-ctx.Done():
		return TimedOut
	}
}

// Ready reports whether the first notification has been applied.
func (s *Session) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Observe re-resolves the identity when the presented credential differs from
// the one last seen.
func (s *Session) Observe(ctx context.Context, credential string) {
	s.mu.Lock()
	if credential == s.credential {
		s.mu.Unlock()
		return
	}
	s.credential = credential
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.resolve(ctx, credential, gen)
}

func (s *Session) resolve(ctx context.Context, credential string, gen uint64) {
	if credential == "" {
		s.notify(ctx, nil, gen)
		return
	}
	ident, err := s.deps.Provider.VerifySessionCookie(ctx, credential)
	if err != nil {
		s.log.Info("Session credential rejected", zap.Error(err))
		s.notify(ctx, nil, gen)
		return
	}
	s.notify(ctx, ident, gen)
}

// notify applies one identity change. With an identity the cached role is
// adopted as a placeholder and then corrected from the user record.
func (s *Session) notify(ctx context.Context, ident *Identity, gen uint64) {
	defer s.markReady()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if ident == nil {
		s.user = nil
		s.role = ""
		s.cachedRole = ""
		s.mu.Unlock()
		s.persist(gen, func() error { return s.deps.Cache.Clear(ctx, s.sid) })
		return
	}
	s.user = ident
	if s.cachedRole != "" {
		s.role = s.cachedRole
	}
	s.mu.Unlock()

	s.persist(gen, func() error { return s.deps.Cache.SetUserID(ctx, s.sid, ident.UID) })
	_, _ = s.fetchRole(ctx, ident.UID, gen)
}

// persist runs a role cache write unless the identity moved past gen.
func (s *Session) persist(gen uint64, write func() error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.mu.RLock()
	stale := gen != s.gen
	s.mu.RUnlock()
	if stale {
		return
	}
	if err := write(); err != nil {
		s.recordErr(err)
	}
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// FetchRole reads the authoritative role of uid and persists it. A missing
// user record yields an empty role and no error.
func (s *Session) FetchRole(ctx context.Context, uid string) (models.Role, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()
	return s.fetchRole(ctx, uid, gen)
}

// fetchRole applies the looked up role only while the identity is still at
// gen. A result that arrives after a sign-out or a newer sign-in is dropped.
func (s *Session) fetchRole(ctx context.Context, uid string, gen uint64) (models.Role, error) {
	user, err := s.deps.Users.GetByID(ctx, uid)
	if err != nil {
		if errs.Is(err, errs.NotFound) {
			return "", nil
		}
		s.log.Error("Error getting user role", zap.String("uid", uid), zap.Error(err))
		return "", s.fail(err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return user.Role, nil
	}
	if s.user != nil && s.user.UID == uid {
		s.role = user.Role
	}
	s.cachedRole = user.Role
	s.mu.Unlock()

	s.persist(gen, func() error { return s.deps.Cache.SetRole(ctx, s.sid, user.Role) })
	return user.Role, nil
}

// RegisterInput carries a new account's credentials and requested role.
type RegisterInput struct {
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=6"`
	DisplayName string      `json:"displayName"`
	Role        models.Role `json:"role" validate:"omitempty,oneof=customer worker admin"`
}

// Register creates the identity, then the user record with its role profile,
// and signs the session in.
func (s *Session) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	s.clearErr()
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if err := models.Validate(in); err != nil {
		return nil, s.fail(err)
	}

	ident, err := s.deps.Provider.CreateUser(ctx, in.Email, in.Password, in.DisplayName)
	if err != nil {
		return nil, s.fail(err)
	}
	if ident.DisplayName == "" {
		ident.DisplayName = in.DisplayName
	}

	now := s.deps.Clock.Now()
	user := &models.User{
		ID:          ident.UID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Role:        in.Role,
		CreatedAt:   now,
		LastLogin:   now,
	}
	var customer *models.CustomerProfile
	var worker *models.WorkerProfile
	switch in.Role {
	case models.RoleCustomer:
		customer = models.NewCustomerProfile(ident.UID)
	case models.RoleWorker:
		worker = models.NewWorkerProfile(ident.UID)
	}
	if err := s.deps.Users.Register(ctx, user, customer, worker); err != nil {
		return nil, s.fail(err)
	}

	idToken, _, err := s.deps.Provider.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.establish(ctx, idToken, ident, in.Role); err != nil {
		return nil, err
	}
	s.log.Info("User registered", zap.String("uid", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login signs in with email and password. The user record must exist.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.clearErr()
	idToken, ident, err := s.deps.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, s.fail(errs.Unauthenticatedf("%s", err.Error()))
	}
	user, err := s.deps.Users.GetByID(ctx, ident.UID)
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.touch(ctx, user); err != nil {
		return nil, err
	}
	if err := s.establish(ctx, idToken, ident, user.Role); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithIDToken accepts the ID token of a third-party sign-in. A first-time
// principal gets a customer user record and an empty customer profile.
func (s *Session) LoginWithIDToken(ctx context.Context, idToken string) (*models.User, error) {
	s.clearErr()
	ident, err := s.deps.Provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, s.fail(errs.Unauthenticatedf("%s", err.Error()))
	}

	user, err := s.deps.Users.GetByID(ctx, ident.UID)
	switch {
	case errs.Is(err, errs.NotFound):
		now := s.deps.Clock.Now()
		user = &models.User{
			ID:          ident.UID,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
			PhoneNumber: ident.PhoneNumber,
			PhotoURL:    ident.PhotoURL,
			Role:        models.RoleCustomer,
			CreatedAt:   now,
			LastLogin:   now,
		}
		if err := s.deps.Users.Register(ctx, user, models.NewCustomerProfile(ident.UID), nil); err != nil {
			return nil, s.fail(err)
		}
	case err != nil:
		return nil, s.fail(err)
	default:
		if err := s.touch(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := s.establish(ctx, idToken, ident, user.Role); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Session) touch(ctx context.Context, user *models.User) error {
	now := s.deps.Clock.Now()
	if err := s.deps.Users.Update(ctx, user.ID, models.UserUpdate{LastLogin: &now}); err != nil {
		return s.fail(err)
	}
	user.LastLogin = now
	return nil
}

// establish exchanges idToken for the session credential and applies the
// identity with a role that is already known.
func (s *Session) establish(ctx context.Context, idToken string, ident *Identity, role models.Role) error {
	cookie, err := s.deps.Provider.SessionCookie(ctx, idToken, s.deps.CookieTTL)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.credential = cookie
	s.user = ident
	s.role = role
	s.cachedRole = role
	s.mu.Unlock()
	s.markReady()

	s.persist(gen, func() error { return s.deps.Cache.SetUserID(ctx, s.sid, ident.UID) })
	s.persist(gen, func() error { return s.deps.Cache.SetRole(ctx, s.sid, role) })
	return nil
}

// Logout revokes the principal's refresh tokens and clears the identity and
// both cache keys.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()

	if user != nil {
		if err := s.deps.Provider.RevokeTokens(ctx, user.UID); err != nil {
			return s.fail(err)
		}
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.credential = ""
	s.mu.Unlock()

	s.notify(ctx, nil, gen)
	return nil
}

// User returns the active identity, or nil.
func (s *Session) User() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// CachedRole is the role last persisted for this browser session.
func (s *Session) CachedRole() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cachedRole
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Credential is the session cookie value for the active identity.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) fail(err error) error {
	err = errs.FromBackend(err)
	s.recordErr(err)
	return err
}

func (s *Session) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *Session) clearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

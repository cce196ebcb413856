package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicehub/database/repository"
	"servicehub/database/repository/memory"
	"servicehub/errs"
	"servicehub/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	byEmail  map[string]*Identity
	byCookie map[string]*Identity
	byToken  map[string]*Identity
	revoked  []string
	block    chan struct{}
	failNext error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		byEmail:  map[string]*Identity{},
		byCookie: map[string]*Identity{},
		byToken:  map[string]*Identity{},
	}
}

func (p *fakeProvider) take() error {
	err := p.failNext
	p.failNext = nil
	return err
}

func (p *fakeProvider) CreateUser(_ context.Context, email, _, displayName string) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(); err != nil {
		return nil, err
	}
	ident := &Identity{UID: "uid-" + email, Email: email, DisplayName: displayName}
	p.byEmail[email] = ident
	return ident, nil
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, _ string) (string, *Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.take(); err != nil {
		return "", nil, err
	}
	ident, ok := p.byEmail[email]
	if !ok {
		return "", nil, errors.New("INVALID_PASSWORD")
	}
	token := "token-" + ident.UID
	p.byToken[token] = ident
	return token, ident, nil
}

func (p *fakeProvider) VerifyIDToken(_ context.Context, idToken string) (*Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident, ok := p.byToken[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return ident, nil
}

func (p *fakeProvider) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident, ok := p.byToken[idToken]
	if !ok {
		return "", errors.New("invalid token")
	}
	cookie := "cookie-" + ident.UID
	p.byCookie[cookie] = ident
	return cookie, nil
}

func (p *fakeProvider) VerifySessionCookie(_ context.Context, cookie string) (*Identity, error) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ident, ok := p.byCookie[cookie]
	if !ok {
		return nil, errors.New("session cookie revoked")
	}
	return ident, nil
}

func (p *fakeProvider) RevokeTokens(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, uid)
	for k, v := range p.byCookie {
		if v.UID == uid {
			delete(p.byCookie, k)
		}
	}
	return nil
}

type fixture struct {
	provider *fakeProvider
	store    *memory.Store
	cache    *MemoryRoleCache
	clock    *testclock.Clock
}

func newFixture() *fixture {
	return &fixture{
		provider: newFakeProvider(),
		store:    memory.NewStore(),
		cache:    NewMemoryRoleCache(),
		clock:    testclock.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func (f *fixture) session(sid string) *Session {
	return NewSession(sid, Deps{
		Provider:    f.provider,
		Users:       f.store.Repositories().Users,
		Cache:       f.cache,
		Clock:       f.clock,
		InitTimeout: 1500 * time.Millisecond,
		CookieTTL:   time.Hour,
	})
}

func TestRegisterWorkerCreatesDefaults(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	user, err := s.Register(context.Background(), RegisterInput{
		Email: "w@example.com", Password: "secret1", DisplayName: "Wanjiru", Role: models.RoleWorker,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, user.Role)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, models.RoleWorker, s.Role())
	assert.NotEmpty(t, s.Credential())

	w, ok := f.store.Worker(user.ID)
	require.True(t, ok)
	assert.Equal(t, models.DefaultAvailability(), w.Availability)
	assert.Zero(t, w.Rating)
	assert.False(t, w.IsVerified)

	_, isCustomer := f.store.Customer(user.ID)
	assert.False(t, isCustomer)

	cached, _ := f.cache.Load(context.Background(), "sid-1")
	assert.Equal(t, Cached{Role: models.RoleWorker, UserID: user.ID}, cached)
}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	user, err := s.Register(context.Background(), RegisterInput{Email: "c@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)

	c, ok := f.store.Customer(user.ID)
	require.True(t, ok)
	assert.Empty(t, c.BookingHistory)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	_, err := s.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "secret1", Role: "guest"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotValid))
	assert.Equal(t, err.Error(), s.LastError())
	assert.False(t, s.IsAuthenticated())
}

func TestRegisterProviderFailureIsRecorded(t *testing.T) {
	f := newFixture()
	f.provider.failNext = errors.New("EMAIL_EXISTS")
	s := f.session("sid-1")

	_, err := s.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Backend))
	assert.Equal(t, "EMAIL_EXISTS", s.LastError())
}

func TestLoginWithoutUserDocument(t *testing.T) {
	f := newFixture()
	f.provider.byEmail["ghost@example.com"] = &Identity{UID: "ghost"}
	s := f.session("sid-1")

	_, err := s.Login(context.Background(), "ghost@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "User document not found", err.Error())
	assert.Equal(t, "User document not found", s.LastError())
	assert.False(t, s.IsAuthenticated())
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	_, err := s.Login(context.Background(), "nobody@example.com", "pw")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Unauthenticated))
	assert.Equal(t, "INVALID_PASSWORD", s.LastError())
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	f := newFixture()
	f.provider.byEmail["a@example.com"] = &Identity{UID: "a1", Email: "a@example.com"}
	f.store.PutUser(models.User{ID: "a1", Email: "a@example.com", Role: models.RoleAdmin})
	s := f.session("sid-1")

	user, err := s.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	stored, _ := f.store.User("a1")
	assert.True(t, f.clock.Now().Equal(stored.LastLogin))
	assert.Equal(t, models.RoleAdmin, s.CachedRole())
}

func TestLoginWithIDTokenCreatesCustomer(t *testing.T) {
	f := newFixture()
	f.provider.byToken["google-token"] = &Identity{UID: "g1", Email: "g@example.com", DisplayName: "G"}
	s := f.session("sid-1")

	user, err := s.LoginWithIDToken(context.Background(), "google-token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)

	_, ok := f.store.Customer("g1")
	assert.True(t, ok)
	assert.Equal(t, models.RoleCustomer, s.Role())
}

func TestLoginWithIDTokenKeepsExistingRole(t *testing.T) {
	f := newFixture()
	f.provider.byToken["google-token"] = &Identity{UID: "g1"}
	f.store.PutUser(models.User{ID: "g1", Role: models.RoleWorker})
	s := f.session("sid-1")

	user, err := s.LoginWithIDToken(context.Background(), "google-token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, user.Role)

	_, ok := f.store.Customer("g1")
	assert.False(t, ok)
}

func TestLoginWithBadIDToken(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	_, err := s.LoginWithIDToken(context.Background(), "forged")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Unauthenticated))
}

func TestLogoutClearsIdentityAndCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.session("sid-1")
	_, err := s.Register(ctx, RegisterInput{Email: "c@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Role())
	assert.Empty(t, s.Credential())
	cached, _ := f.cache.Load(ctx, "sid-1")
	assert.Equal(t, Cached{}, cached)
	assert.Equal(t, []string{"uid-c@example.com"}, f.provider.revoked)
}

func TestStartAdoptsCachedRoleThenCorrectsIt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provider.byCookie["cookie-u1"] = &Identity{UID: "u1"}
	f.store.PutUser(models.User{ID: "u1", Role: models.RoleWorker})
	// A stale hint from an earlier visit.
	require.NoError(t, f.cache.SetRole(ctx, "sid-1", models.RoleCustomer))

	f.provider.block = make(chan struct{})
	s := f.session("sid-1")
	s.Start(ctx, "cookie-u1")
	assert.Equal(t, models.RoleCustomer, s.CachedRole())

	close(f.provider.block)
	require.Equal(t, Resolved, s.Await(ctx))
	assert.Equal(t, models.RoleWorker, s.Role())

	cached, _ := f.cache.Load(ctx, "sid-1")
	assert.Equal(t, Cached{Role: models.RoleWorker, UserID: "u1"}, cached)
}

func TestStartWithoutCredentialClearsCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.cache.SetRole(ctx, "sid-1", models.RoleAdmin))

	s := f.session("sid-1")
	s.Start(ctx, "")
	require.Equal(t, Resolved, s.Await(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.CachedRole())
	cached, _ := f.cache.Load(ctx, "sid-1")
	assert.Equal(t, Cached{}, cached)
}

func TestAwaitTimesOut(t *testing.T) {
	f := newFixture()
	f.provider.block = make(chan struct{})
	defer close(f.provider.block)
	s := f.session("sid-1")
	s.Start(context.Background(), "cookie-slow")

	done := make(chan Readiness, 1)
	go func() { done <- s.Await(context.Background()) }()

	require.NoError(t, f.clock.WaitAdvance(1500*time.Millisecond, time.Second, 1))
	select {
	case got := <-done:
		assert.Equal(t, TimedOut, got)
	case <-time.After(time.Second):
		t.Fatal("Await did not return after the init timeout")
	}
	assert.False(t, s.IsAuthenticated())
}

func TestObserveFollowsCredentialChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provider.byCookie["cookie-u1"] = &Identity{UID: "u1"}
	f.store.PutUser(models.User{ID: "u1", Role: models.RoleCustomer})

	s := f.session("sid-1")
	s.Start(ctx, "")
	s.Await(ctx)
	require.False(t, s.IsAuthenticated())

	s.Observe(ctx, "cookie-u1")
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, "u1", s.User().UID)
	assert.Equal(t, models.RoleCustomer, s.Role())

	s.Observe(ctx, "")
	assert.False(t, s.IsAuthenticated())
}

func TestFetchRoleMissingUser(t *testing.T) {
	f := newFixture()
	s := f.session("sid-1")

	role, err := s.FetchRole(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestFetchRoleBackendFailure(t *testing.T) {
	f := newFixture()
	f.store.SetErr("Users.GetByID", errors.New("server selection timeout"))
	s := f.session("sid-1")

	_, err := s.FetchRole(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Backend))
	assert.Equal(t, "server selection timeout", s.LastError())
}

// blockingUsers holds every user lookup until release is closed.
type blockingUsers struct {
	repository.UserRepository
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (u *blockingUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u.once.Do(func() { close(u.started) })
	<-u.release
	return u.UserRepository.GetByID(ctx, id)
}

func TestLogoutDuringRoleLookupKeepsCacheCleared(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provider.byCookie["cookie-u1"] = &Identity{UID: "u1"}
	f.store.PutUser(models.User{ID: "u1", Role: models.RoleWorker})
	users := &blockingUsers{
		UserRepository: f.store.Repositories().Users,
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	s := NewSession("sid-1", Deps{
		Provider:    f.provider,
		Users:       users,
		Cache:       f.cache,
		Clock:       f.clock,
		InitTimeout: 1500 * time.Millisecond,
		CookieTTL:   time.Hour,
	})

	s.Start(ctx, "cookie-u1")
	<-users.started
	require.NoError(t, s.Logout(ctx))
	close(users.release)

	assert.Never(t, func() bool {
		cached, _ := f.cache.Load(ctx, "sid-1")
		return cached != (Cached{}) || s.CachedRole() != "" || s.Role() != ""
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.Nil(t, s.User())
}

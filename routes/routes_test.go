package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servicehub/config"
	"servicehub/database/repository/memory"
	"servicehub/handlers"
	"servicehub/middleware"
	"servicehub/models"
	"servicehub/navigation"
	"servicehub/services/identity"
	"servicehub/services/identity/identitytest"
	"servicehub/services/session"
	"servicehub/utils"
)

const indexHTML = `<!doctype html><html><head><title>ServiceHub</title></head><body><div id="app"></div></body></html>`

func init() {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
}

type server struct {
	*httptest.Server
	mem      *memory.Store
	provider *identitytest.Provider
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newServer(t *testing.T) *server {
	t.Helper()
	t.Setenv("VITE_FIREBASE_API_KEY", "key-123")

	dist := t.TempDir()
	writeFile(t, filepath.Join(dist, "index.html"), indexHTML)
	writeFile(t, filepath.Join(dist, "assets", "app.js"), "console.log('app')")
	writeFile(t, filepath.Join(dist, "assets", "logo.jpg"), "jpg")
	writeFile(t, filepath.Join(dist, "favicon.ico"), "ico")

	spa, err := handlers.NewSPAHandler(dist, config.FrontendEnv())
	require.NoError(t, err)

	mem := memory.NewStore()
	provider := identitytest.NewProvider()
	mem.PutUser(models.User{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin})
	provider.AddAccount(identity.Identity{UID: "admin-1", Email: "admin@example.com"}, "secret-admin")

	reg := session.NewRegistry(session.Deps{
		Repos: mem.Repositories(),
		Identity: identity.Deps{
			Provider:    provider,
			Cache:       identity.NewMemoryRoleCache(),
			InitTimeout: time.Second,
			CookieTTL:   time.Hour,
		},
		Logger: zap.NewNop(),
	})
	cookies := middleware.CookieOptions{MaxAge: time.Hour}

	r := gin.New()
	r.Use(utils.ErrorHandler())
	RegisterRoutes(r, handlers.NewHandlerBundle(cookies, spa), navigation.NewGuard(zap.NewNop()), middleware.Session(reg, cookies), "*")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &server{Server: srv, mem: mem, provider: provider}
}

// browser keeps its own cookies and never follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (s *server) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &browser{t: t, base: s.URL, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
	// Settle identity resolution before signing in.
	b.do(http.MethodGet, "/api/auth/me", nil)
	return b
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (b *browser) do(method, path string, body any) response {
	b.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.base+path, rd)
	require.NoError(b.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

func (b *browser) register(email string, role models.Role) string {
	b.t.Helper()
	res := b.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": email, "password": "secret-pass", "displayName": email, "role": role,
	})
	require.Equal(b.t, http.StatusCreated, res.status, string(res.body))
	var user models.User
	res.decode(b.t, &user)
	return user.ID
}

func TestProbesDoNotOpenSessions(t *testing.T) {
	s := newServer(t)

	resp, err := http.Get(s.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	assert.Empty(t, resp.Cookies())
}

func TestDebugEnvReportsPresenceOnly(t *testing.T) {
	s := newServer(t)
	res := s.browser(t).do(http.MethodGet, "/debug-env", nil)

	require.Equal(t, http.StatusOK, res.status)
	assert.NotContains(t, string(res.body), "key-123")
	var out struct {
		HasEnvVars map[string]bool `json:"hasEnvVars"`
	}
	res.decode(t, &out)
	assert.Len(t, out.HasEnvVars, len(config.FrontendEnvKeys))
	assert.True(t, out.HasEnvVars["VITE_FIREBASE_API_KEY"])
}

func TestStaticFiles(t *testing.T) {
	s := newServer(t)
	b := s.browser(t)

	tests := []struct {
		path        string
		status      int
		contentType string
		body        string
	}{
		{"/assets/app.js", http.StatusOK, "application/javascript", "console.log('app')"},
		{"/assets/logo.jpg", http.StatusOK, "image/jpg", "jpg"},
		{"/assets/missing.js", http.StatusNotFound, "", "File not found"},
		{"/favicon.ico", http.StatusOK, "image/x-icon", "ico"},
		{"/missing.png", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := b.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, res.status)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, res.header.Get("Content-Type"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, string(res.body))
			}
		})
	}
}

func TestIndexCarriesSettings(t *testing.T) {
	s := newServer(t)
	b := s.browser(t)

	for _, path := range []string{"/", "/index.html", "/services/plumbing", "/no/such/view"} {
		res := b.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, res.status, path)
		body := string(res.body)
		assert.Contains(t, body, `<script>window.env = {`, path)
		assert.Contains(t, body, `"VITE_FIREBASE_API_KEY":"key-123"`, path)
		assert.Contains(t, body, `;</script></head>`, path)
	}
}

func TestUnknownAPIPathIsJSON(t *testing.T) {
	s := newServer(t)
	res := s.browser(t).do(http.MethodGet, "/api/nope", nil)

	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.header.Get("Content-Type"), "application/json")
}

func TestNavigationGuard(t *testing.T) {
	s := newServer(t)
	b := s.browser(t)

	res := b.do(http.MethodGet, "/customer/bookings", nil)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, navigation.LoginPath, res.header.Get("Location"))

	b.register("worker@example.com", models.RoleWorker)

	res = b.do(http.MethodGet, "/customer", nil)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, navigation.DefaultPath, res.header.Get("Location"))

	res = b.do(http.MethodGet, "/worker/jobs", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, string(res.body), "window.env")
}

func TestMeAfterLogout(t *testing.T) {
	s := newServer(t)
	b := s.browser(t)
	uid := b.register("c@example.com", models.RoleCustomer)

	var me struct {
		Authenticated bool        `json:"authenticated"`
		Role          models.Role `json:"role"`
		User          *struct {
			UID string `json:"uid"`
		} `json:"user"`
	}
	b.do(http.MethodGet, "/api/auth/me", nil).decode(t, &me)
	assert.True(t, me.Authenticated)
	assert.Equal(t, models.RoleCustomer, me.Role)

	res := b.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, []string{uid}, s.provider.Revoked())

	b.do(http.MethodGet, "/api/auth/me", nil).decode(t, &me)
	assert.False(t, me.Authenticated)
	assert.Nil(t, me.User)

	res = b.do(http.MethodGet, "/api/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestLoginWithWrongPassword(t *testing.T) {
	s := newServer(t)
	res := s.browser(t).do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestCatalogChangesAreAdminOnly(t *testing.T) {
	s := newServer(t)
	svc := map[string]any{"name": "Deep clean", "category": "Cleaning", "price": 40, "duration": 120}

	customer := s.browser(t)
	customer.register("c@example.com", models.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, customer.do(http.MethodPost, "/api/services", svc).status)

	admin := s.browser(t)
	require.Equal(t, http.StatusOK, admin.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.com", "password": "secret-admin",
	}).status)
	res := admin.do(http.MethodPost, "/api/services", svc)
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	var categories []string
	customer.do(http.MethodGet, "/api/categories", nil).decode(t, &categories)
	assert.Equal(t, []string{"Cleaning"}, categories)
}

func TestBookingLifecycle(t *testing.T) {
	s := newServer(t)
	s.mem.PutService(models.Service{ID: "svc-1", Name: "Leak repair", Category: "Plumbing", Price: 50})

	worker := s.browser(t)
	workerID := worker.register("w@example.com", models.RoleWorker)
	customer := s.browser(t)
	customer.register("c@example.com", models.RoleCustomer)

	// Workers cannot request bookings.
	res := worker.do(http.MethodPost, "/api/bookings", map[string]any{"serviceId": "svc-1"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = customer.do(http.MethodPost, "/api/bookings", map[string]any{
		"workerId": workerID, "serviceId": "svc-1", "address": "1 Main St", "price": 50,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var b models.Booking
	res.decode(t, &b)
	assert.Equal(t, models.StatusRequested, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)

	var jobs []models.Booking
	worker.do(http.MethodGet, "/api/bookings", nil).decode(t, &jobs)
	require.Len(t, jobs, 1)
	assert.Equal(t, b.ID, jobs[0].ID)

	// Only the assigned worker accepts.
	res = customer.do(http.MethodPatch, "/api/bookings/"+b.ID+"/status", map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = worker.do(http.MethodPatch, "/api/bookings/"+b.ID+"/status", map[string]string{"status": "accepted", "notes": "On my way"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	res = worker.do(http.MethodPatch, "/api/bookings/"+b.ID+"/status", map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	// completed is only reachable through completion.
	res = worker.do(http.MethodPatch, "/api/bookings/"+b.ID+"/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = customer.do(http.MethodPost, "/api/bookings/"+b.ID+"/complete", map[string]any{"rating": 5, "review": "Great"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	res.decode(t, &b)
	assert.Equal(t, models.StatusCompleted, b.Status)
	assert.Equal(t, models.PaymentCompleted, b.PaymentStatus)
	assert.Equal(t, "On my way", b.WorkerNotes)

	var view models.WorkerView
	customer.do(http.MethodGet, "/api/workers/"+workerID, nil).decode(t, &view)
	assert.InDelta(t, 5.0, view.Rating, 1e-9)
	assert.Equal(t, 1, view.ReviewCount)
	assert.Equal(t, 1, view.CompletedJobs)
	assert.Equal(t, "w@example.com", view.Email)

	var reviews []models.Review
	customer.do(http.MethodGet, "/api/workers/"+workerID+"/reviews", nil).decode(t, &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great", reviews[0].Comment)

	// A stranger cannot read the booking.
	stranger := s.browser(t)
	stranger.register("x@example.com", models.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, stranger.do(http.MethodGet, "/api/bookings/"+b.ID, nil).status)
}

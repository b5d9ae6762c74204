package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/storefront-be/internal/auth"
	"github.com/hongminglow/storefront-be/internal/models"
	"github.com/hongminglow/storefront-be/internal/ratelimit"
	"github.com/hongminglow/storefront-be/internal/storage/memory"
)

const (
	adminCookie    = "authToken"
	customerCookie = "userAuth"
)

type testAPI struct {
	router    http.Handler
	authority *auth.Authority
	store     *memory.Store
}

func newTestAPI(t *testing.T, limiter ratelimit.Limiter) testAPI {
	t.Helper()
	store := memory.NewUserStore()
	tokens := auth.NewTokenManager("handler-secret", "storefront-test", time.Hour)
	channels, err := auth.DefaultChannels(adminCookie, customerCookie, auth.CookieOptions{MaxAge: tokens.TTL()})
	require.NoError(t, err)
	authority, err := auth.NewAuthority(auth.AuthorityDeps{
		Store:    store,
		Tokens:   tokens,
		Channels: channels,
		Limiter:  limiter,
		Logger:   zerolog.Nop(),
		HashCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	validator := auth.NewValidator(tokens, channels, nil)

	r := chi.NewRouter()
	NewHealthHandler(time.Now()).Register(r)
	NewAuthHandler(authority, validator).Register(r)
	NewUsersHandler(store, validator).Register(r)
	return testAPI{router: r, authority: authority, store: store}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a testAPI) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (a testAPI) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (a testAPI) seedAdmin(t *testing.T) *http.Cookie {
	t.Helper()
	_, _, err := a.authority.EnsureAdmin(context.Background(), "Root", "root@x.com", "rootpw")
	require.NoError(t, err)
	return a.login(t, "root@x.com", "rootpw")
}

func TestCustomerSessionLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RoleCustomer, created.Role)
	assert.NotContains(t, rec.Body.String(), "pw1")

	rec, env = api.do(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"`+created.ID+`"}`, string(env.Data))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.Equal(t, customerCookie, session.Name)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, session.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), session.MaxAge)

	rec, env = api.do(t, http.MethodGet, "/users/profile", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.User
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "a@x.com", profile.Email)

	rec, _ = api.do(t, http.MethodPost, "/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, customerCookie, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)

	rec, env = api.do(t, http.MethodGet, "/users/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrUnauthenticated.Error(), env.Message)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	api := newTestAPI(t, nil)
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})

	wrong, wrongEnv := api.do(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "nope"})
	ghost, ghostEnv := api.do(t, http.MethodPost, "/login", map[string]string{"email": "ghost@x.com", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, ghost.Code)
	assert.Equal(t, wrongEnv.Message, ghostEnv.Message)
	assert.Empty(t, wrong.Result().Cookies())
}

func TestLoginValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, _ := api.do(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	api.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginThrottled(t *testing.T) {
	api := newTestAPI(t, ratelimit.NewMemory(2, time.Minute))
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})

	for i := 0; i < 2; i++ {
		rec, _ := api.do(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "bad"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, env := api.do(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, auth.ErrRateLimited.Error(), env.Message)
}

func TestRegisterPolicy(t *testing.T) {
	api := newTestAPI(t, nil)
	adminSession := api.seedAdmin(t)

	rec, _ := api.do(t, http.MethodPost, "/register", map[string]string{"email": "b@x.com", "password": "pw", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/register", map[string]string{"email": "b@x.com", "password": "pw", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := api.do(t, http.MethodPost, "/register", map[string]string{"email": "b@x.com", "password": "pw", "role": "admin"}, adminSession)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.User
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RoleAdmin, created.Role)

	rec, env = api.do(t, http.MethodPost, "/register", map[string]string{"email": "b@x.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, auth.ErrDuplicateAccount.Error(), env.Message)
}

func TestBothChannelsCoexist(t *testing.T) {
	api := newTestAPI(t, nil)
	adminSession := api.seedAdmin(t)
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})
	customerSession := api.login(t, "a@x.com", "pw1")
	assert.Equal(t, adminCookie, adminSession.Name)
	assert.Equal(t, customerCookie, customerSession.Name)

	rec, _ := api.do(t, http.MethodPost, "/logout?channel=admin", nil, adminSession, customerSession)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, adminCookie, cleared[0].Name)

	rec, _ = api.do(t, http.MethodGet, "/users/profile", nil, customerSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/logout?channel=staff", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenOnWrongChannelRejected(t *testing.T) {
	api := newTestAPI(t, nil)
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})
	customerSession := api.login(t, "a@x.com", "pw1")

	forged := &http.Cookie{Name: adminCookie, Value: customerSession.Value}
	rec, env := api.do(t, http.MethodGet, "/users", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrInvalidToken.Error(), env.Message)
}

func TestUpdateProfile(t *testing.T) {
	api := newTestAPI(t, nil)
	api.do(t, http.MethodPost, "/register", map[string]string{"name": "A", "email": "a@x.com", "password": "pw1"})
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "taken@x.com", "password": "pw2"})
	session := api.login(t, "a@x.com", "pw1")

	rec, env := api.do(t, http.MethodPut, "/users/profile", map[string]string{"name": "Alice"}, session)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "a@x.com", updated.Email)

	rec, _ = api.do(t, http.MethodPut, "/users/profile", map[string]string{"email": "taken@x.com"}, session)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = api.do(t, http.MethodPut, "/users/profile", map[string]string{"email": "not-an-email"}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	adminSession := api.seedAdmin(t)
	_, env := api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})
	var customer models.User
	require.NoError(t, json.Unmarshal(env.Data, &customer))
	customerSession := api.login(t, "a@x.com", "pw1")

	rec, _ := api.do(t, http.MethodGet, "/users", nil, customerSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = api.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = api.do(t, http.MethodGet, "/users", nil, adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)

	rec, _ = api.do(t, http.MethodDelete, "/users/"+customer.ID, nil, customerSession)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/users/"+customer.ID, nil, adminSession)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, _ = api.do(t, http.MethodDelete, "/users/"+customer.ID, nil, adminSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Stateless sessions outlive their account; the profile lookup reports it gone.
	rec, _ = api.do(t, http.MethodGet, "/users/profile", nil, customerSession)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, env := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestLogoutWithoutChannelPrefersCustomer(t *testing.T) {
	api := newTestAPI(t, nil)
	adminSession := api.seedAdmin(t)
	api.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com", "password": "pw1"})
	customerSession := api.login(t, "a@x.com", "pw1")

	// The admin dashboard must name its channel; a bare logout ends the storefront session.
	rec, _ := api.do(t, http.MethodPost, "/logout", nil, adminSession, customerSession)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, customerCookie, cleared[0].Name)

	rec, _ = api.do(t, http.MethodGet, "/users", nil, adminSession)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodPost, "/logout", nil, adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared = rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, adminCookie, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

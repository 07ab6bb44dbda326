package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	handler http.Handler
	clock   *testClock
	logs    *bytes.Buffer
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := &testClock{now: time.Now()}
	tokens, err := auth.NewTokenManager(auth.SigningConfig{
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	svc, err := services.NewAccountService(accounts.NewMemoryRepository(), tokens, bcrypt.MinCost)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	s := NewServer("127.0.0.1:0", svc, tokens, logging.NewJSONLogger(logs, "debug"))
	return &env{handler: s.Handler(), clock: clock, logs: logs}
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (e *env) registerAndLogin(t *testing.T, user, password string) (access, refresh, id string) {
	t.Helper()

	rec, _ := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": user, "name": "N", "surname": "S", "email": user + "@example.com", "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": user, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)
	return body["accessToken"].(string), body["refreshToken"].(string), body["id"].(string)
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice", "name": "Alice", "surname": "Smith", "email": "alice@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice", "name": "Alice", "surname": "Smith", "email": "other@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/users/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	access, refresh, id := e.registerAndLogin(t, "alice", "pw")
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEmpty(t, id)

	rec, body := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", body["error"])

	rec, body = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "nobody", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordsNeverLogged(t *testing.T) {
	e := newEnv(t)
	e.registerAndLogin(t, "alice", "super-secret-pw")

	assert.NotContains(t, e.logs.String(), "super-secret-pw")
	assert.Contains(t, e.logs.String(), "/api/auth/login")
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	access, refresh, id := e.registerAndLogin(t, "alice", "pw")

	rec, body := e.do(t, http.MethodGet, "/api/users/check-auth", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["user"].(map[string]any)["id"])

	rec, body = e.do(t, http.MethodGet, "/api/users/check-auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token missing or invalid", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/api/users/check-auth", nil)
	req.Header.Set("Authorization", "Basic abc")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rec, body = e.do(t, http.MethodGet, "/api/users/check-auth", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])

	// a refresh token is not an access token
	rec, _ = e.do(t, http.MethodGet, "/api/users/check-auth", refresh, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticate_ExpiredAccessToken(t *testing.T) {
	e := newEnv(t)
	access, _, _ := e.registerAndLogin(t, "alice", "pw")

	e.clock.Advance(time.Hour + time.Second)

	rec, body := e.do(t, http.MethodGet, "/api/users/check-auth", access, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func TestRefresh(t *testing.T) {
	e := newEnv(t)
	_, refresh, _ := e.registerAndLogin(t, "alice", "pw")

	for i := 0; i < 2; i++ {
		rec, body := e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
		require.Equal(t, http.StatusOK, rec.Code)
		newAccess := body["accessToken"].(string)

		rec, _ = e.do(t, http.MethodGet, "/api/users/check-auth", newAccess, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh Token is required", body["message"])

	rec, body = e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": "bogus"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid refresh token", body["message"])
}

func TestSecondLoginInvalidatesFirstRefresh(t *testing.T) {
	e := newEnv(t)
	_, first, _ := e.registerAndLogin(t, "alice", "pw")

	rec, _ := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": first})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogout_ThenRefreshIsForbidden(t *testing.T) {
	e := newEnv(t)
	access, refresh, _ := e.registerAndLogin(t, "alice", "pw")

	rec, body := e.do(t, http.MethodPost, "/api/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", body["message"])

	rec, _ = e.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// access tokens outlive logout
	rec, _ = e.do(t, http.MethodGet, "/api/users/check-auth", access, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	access, _, _ := e.registerAndLogin(t, "alice", "old")

	rec, _ := e.do(t, http.MethodPut, "/api/users/change-password", access, map[string]string{"currentPassword": "old"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := e.do(t, http.MethodPut, "/api/users/change-password", access, map[string]string{"currentPassword": "bad", "newPassword": "new"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect current password", body["message"])

	rec, _ = e.do(t, http.MethodPut, "/api/users/change-password", access, map[string]string{"currentPassword": "old", "newPassword": "new"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "new"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndUnknownEndpoint(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, body := e.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown endpoint", body["error"])

	rec, _ = e.do(t, http.MethodGet, "/api/auth/login", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// brokenService fails every call with a store fault.
type brokenService struct{}

var errStore = errors.New("store down")

func (brokenService) Register(context.Context, services.RegisterInput) (*models.Account, error) {
	return nil, errStore
}
func (brokenService) Login(context.Context, string, string) (*services.TokenPair, error) {
	return nil, errStore
}
func (brokenService) Refresh(context.Context, string) (string, error) { return "", errStore }
func (brokenService) Logout(context.Context, string) error            { return errStore }
func (brokenService) ChangePassword(context.Context, string, string, string) error {
	return errStore
}

type acceptAll struct{}

func (acceptAll) ParseAccess(string) (string, error) { return "u1", nil }

func TestServerFaultsMapTo500(t *testing.T) {
	s := NewServer("127.0.0.1:0", brokenService{}, acceptAll{}, logging.NopLogger{})
	e := &env{handler: s.Handler()}

	cases := []struct {
		method, path, token string
		body                any
	}{
		{http.MethodPost, "/api/auth/login", "", map[string]string{"username": "a", "password": "b"}},
		{http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": "x"}},
		{http.MethodPost, "/api/auth/logout", "t", nil},
		{http.MethodPost, "/api/users/register", "", map[string]string{"username": "a"}},
		{http.MethodPut, "/api/users/change-password", "t", map[string]string{"currentPassword": "a", "newPassword": "b"}},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			rec, _ := e.do(t, c.method, c.path, c.token, c.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		})
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", brokenService{}, acceptAll{}, logging.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	s := NewServer("127.0.0.1:99999", brokenService{}, acceptAll{}, logging.NopLogger{})
	assert.Error(t, s.Run(context.Background()))
}

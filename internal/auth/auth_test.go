package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ads-console/internal/config"
)

func testManager() *Manager {
	return NewManager(config.AuthConfig{
		Enabled:       true,
		CookieName:    "ads_console_session",
		CookieMaxAge:  3600,
		AllowedDomain: "example.com",
	}, "http://localhost:8080")
}

func addSession(m *Manager, email string) *http.Cookie {
	id, _ := randomToken()
	m.mu.Lock()
	m.sessions[id] = &Session{
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	m.mu.Unlock()
	return &http.Cookie{Name: m.cfg.CookieName, Value: id}
}

func TestRequireSession_RejectsWithoutCookie(t *testing.T) {
	m := testManager()
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRequireSession_InjectsSession(t *testing.T) {
	m := testManager()
	var got *Session
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.AddCookie(addSession(m, "ops@example.com"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "ops@example.com", got.Email)
}

func TestRequireSession_ExpiredSessionRejected(t *testing.T) {
	m := testManager()
	id, _ := randomToken()
	m.mu.Lock()
	m.sessions[id] = &Session{Email: "ops@example.com", ExpiresAt: time.Now().Add(-time.Minute)}
	m.mu.Unlock()

	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.AddCookie(&http.Cookie{Name: m.cfg.CookieName, Value: id})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	m.mu.RLock()
	_, still := m.sessions[id]
	m.mu.RUnlock()
	assert.False(t, still, "expired session must be evicted")
}

func TestRequireSession_DisabledAuthUsesDevUser(t *testing.T) {
	m := NewManager(config.AuthConfig{Enabled: false, CookieName: "x"}, "http://localhost")
	var got *Session
	handler := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	require.NotNil(t, got)
	assert.Equal(t, "dev@localhost", got.Email)
}

func TestHandleLogin_SetsStateAndRedirects(t *testing.T) {
	m := testManager()
	rec := httptest.NewRecorder()
	m.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "accounts.google.com")
	assert.Contains(t, loc, "hd=example.com")

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.True(t, stateCookie.HttpOnly)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	m := testManager()
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=evil&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})

	rec := httptest.NewRecorder()
	m.HandleCallback(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "invalid_state")
}

func TestHandleLogout_ClearsSession(t *testing.T) {
	m := testManager()
	cookie := addSession(m, "ops@example.com")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	m.HandleLogout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.mu.RLock()
	assert.Empty(t, m.sessions)
	m.mu.RUnlock()
}

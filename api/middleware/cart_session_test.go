package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modecraft/storefront-backend/pkg/auth/session"
	"github.com/modecraft/storefront-backend/pkg/config"
)

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	manager, err := session.NewManager(config.SessionConfig{
		Secret:     "test-secret",
		Issuer:     "storefront",
		TTLMinutes: 60,
		CookieName: "storefront_session",
	})
	require.NoError(t, err)
	return manager
}

func captureCartKey(keys *[]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*keys = append(*keys, CartKeyFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestCartSessionIssuesCookieOnFirstVisit(t *testing.T) {
	manager := newTestManager(t)
	var keys []string
	handler := CartSession(manager, nil)(captureCartKey(&keys))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	require.Len(t, keys, 1)
	assert.NotEmpty(t, keys[0])

	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "storefront_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	cartKey, err := manager.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, keys[0], cartKey)
}

func TestCartSessionReusesValidCookie(t *testing.T) {
	manager := newTestManager(t)
	var keys []string
	handler := CartSession(manager, nil)(captureCartKey(&keys))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := first.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1], "same cookie must map to the same cart")
	assert.Empty(t, second.Result().Cookies(), "no new cookie for a valid session")
}

func TestCartSessionReplacesTamperedCookie(t *testing.T) {
	manager := newTestManager(t)
	var keys []string
	handler := CartSession(manager, nil)(captureCartKey(&keys))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "storefront_session", Value: "garbage"})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Len(t, keys, 1)
	assert.NotEmpty(t, keys[0])
	require.Len(t, resp.Result().Cookies(), 1, "tampered cookie must be replaced")
}

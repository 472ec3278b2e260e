package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopkit/storefront/internal/auth"
)

var testSecret = []byte("test-secret")

func bearer(t *testing.T, u *auth.User) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, u)
	require.NoError(t, err)
	return "Bearer " + token
}

func identityEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		require.True(t, ok, "identity must be on the context")
		w.Header().Set("X-User-Id", id.Email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser(t *testing.T) {
	mw := &AuthMiddleware{Secret: testSecret}
	h := mw.RequireUser(identityEcho(t))

	// no token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, &auth.User{ID: 1, Email: "u@example.com", Role: auth.RoleUser}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u@example.com", rec.Header().Get("X-User-Id"))
}

func TestRequireAdmin(t *testing.T) {
	mw := &AuthMiddleware{Secret: testSecret}
	h := mw.RequireAdmin(identityEcho(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// authenticated but not admin
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, &auth.User{ID: 1, Email: "u@example.com", Role: auth.RoleUser}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, &auth.User{ID: 2, Email: "a@example.com", Role: auth.RoleAdmin}))
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package httpx

import (
	"net/http"
	"strings"

	"github.com/shopkit/storefront/internal/auth"
)

// AuthMiddleware resolves the bearer token once at the boundary into an
// auth.Identity on the request context.
type AuthMiddleware struct {
	Secret []byte
}

func (a *AuthMiddleware) identity(r *http.Request) (auth.Identity, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return auth.Identity{}, false
	}
	id, err := auth.ParseToken(a.Secret, strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return auth.Identity{}, false
	}
	return id, true
}

func (a *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.identity(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (a *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.identity(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !id.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

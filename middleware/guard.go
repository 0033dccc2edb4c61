package middleware

import (
	"context"
	"net/http"
	"strings"

	authgate "github.com/MrEthical07/authgate"
)

// TokenCookie is the cookie consulted when no Authorization header is
// present.
const TokenCookie = "authgate_token"

const (
	msgAuthRequired = "authentication required"
	msgInvalidToken = "invalid or expired token"
	msgForbidden    = "forbidden"
)

type authResultContextKey struct{}

// AuthFromContext returns the validation result Authenticate stored on
// the request context. Guest requests carry a user with no roles and no
// permissions; the second return is false only for handlers not wrapped
// by Authenticate.
func AuthFromContext(ctx context.Context) (*authgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authgate.AuthResult)
	return res, ok
}

// guestResult is the identity attached to tokenless requests when guest
// access is enabled. Its empty role and permission sets make every
// downstream guard reject it with forbidden rather than unauthorized.
func guestResult() *authgate.AuthResult {
	return &authgate.AuthResult{User: &authgate.User{Username: "guest", Active: true}}
}

// Authenticate validates the request's bearer token and injects the
// result into the context. The token comes from the Authorization
// header, falling back to the TokenCookie cookie. Requests without a
// token pass through as guests when the Manager allows guest access and
// are rejected otherwise.
func Authenticate(manager *authgate.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, msgAuthRequired, http.StatusUnauthorized)
				return
			}

			token, ok := requestToken(r)
			if !ok {
				if manager.Config().AllowGuestAccess {
					ctx := context.WithValue(r.Context(), authResultContextKey{}, guestResult())
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				http.Error(w, msgAuthRequired, http.StatusUnauthorized)
				return
			}

			ctx := authgate.WithClientIP(r.Context(), clientIP(r))
			ctx = authgate.WithUserAgent(ctx, r.UserAgent())

			res, err := manager.ValidateToken(ctx, token)
			if err != nil {
				http.Error(w, msgInvalidToken, http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects the request unless the authenticated user
// holds the permission. Guests always fail.
func RequirePermission(manager *authgate.Manager, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthFromContext(r.Context())
			if !ok {
				http.Error(w, msgAuthRequired, http.StatusUnauthorized)
				return
			}
			if err := manager.RequirePermission(r.Context(), res.User, perm); err != nil {
				http.Error(w, msgForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects the request unless the authenticated user holds
// the role. Admin bypass does not apply to role checks.
func RequireRole(manager *authgate.Manager, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := AuthFromContext(r.Context())
			if !ok {
				http.Error(w, msgAuthRequired, http.StatusUnauthorized)
				return
			}
			if err := manager.RequireRole(r.Context(), res.User, role); err != nil {
				http.Error(w, msgForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return tok, true
	}
	c, err := r.Cookie(TokenCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

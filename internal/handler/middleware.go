package handler

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/fleethire/driverhub-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated caller: identity-provider user id plus
// the claims payload the provider embedded in the session token. The
// payload is a cache — it reflects the membership relation as of the
// caller's last token refresh, not necessarily right now.
type Session struct {
	UserID string
	Claims domain.Claims
}

// sessionClaims mirrors the token the identity provider signs:
// app_metadata carries the authorization map the synchronizer writes.
type sessionClaims struct {
	AppMetadata domain.Claims `json:"app_metadata"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware validates provider-signed bearer tokens and injects
// the Session into context.
func JWTAuthMiddleware(jwtSecret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authLogger := logger.With(
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				handleServiceError(w, &domain.ErrUnauthorized{Message: "missing bearer token"}, authLogger)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handleServiceError(w, &domain.ErrUnauthorized{Message: "invalid authorization header"}, authLogger)
				return
			}

			claims := &sessionClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				handleServiceError(w, &domain.ErrUnauthorized{Message: "invalid or expired token"}, authLogger)
				return
			}

			sess := &Session{
				UserID: claims.Subject,
				Claims: claims.AppMetadata,
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the authenticated session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

// RequireSuperAdmin gates platform-operator routes.
func RequireSuperAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || !sess.Claims.IsSuperAdmin() {
				handleServiceError(w, &domain.ErrForbidden{Action: "super admin operations"},
					logger.With(zap.String("path", r.URL.Path)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// canManageCompany reports whether the session may administer the
// company: platform operators always, tenant admins for their own.
func canManageCompany(sess *Session, companyID string) bool {
	if sess == nil {
		return false
	}
	return sess.Claims.IsSuperAdmin() || sess.Claims.RoleFor(companyID) == domain.RoleCompanyAdmin
}

// isCompanyMember reports whether the session belongs to the company in
// any role.
func isCompanyMember(sess *Session, companyID string) bool {
	if sess == nil {
		return false
	}
	return sess.Claims.IsSuperAdmin() || sess.Claims.RoleFor(companyID) != ""
}

// WebhookAuthMiddleware authenticates the store's webhook dispatcher
// with a shared secret header. An unset secret closes the endpoints.
func WebhookAuthMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Webhook-Secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				handleServiceError(w, &domain.ErrUnauthorized{Message: "invalid webhook secret"},
					logger.With(
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
					))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

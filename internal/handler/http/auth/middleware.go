// Package auth verifies HS256 bearer tokens issued elsewhere. The service
// never mints tokens: it checks the signature, the expiry and the role claim,
// and hands the subject to handlers as the requesting user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"digest-extractor/internal/config"
	"digest-extractor/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUser ctxKey = "user"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// Claims is the token payload the service understands.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator guards protected routes.
type Authenticator struct {
	secret []byte
	role   string
	now    func() time.Time
}

// NewAuthenticator builds an Authenticator from a validated SecurityConfig.
func NewAuthenticator(cfg *config.SecurityConfig) *Authenticator {
	role := cfg.RequiredRole
	if role == "" {
		role = config.DefaultRequiredRole
	}
	return &Authenticator{secret: cfg.JWTSecret, role: role, now: time.Now}
}

// Require rejects requests without a valid token (401) or with a token whose
// role is not the required one (403). The token subject is stored in the
// request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		claims, err := a.validate(r.Header.Get("Authorization"))
		if err != nil {
			recordAuthRequest("unauthorized", time.Since(start).Seconds())
			w.Header().Set("WWW-Authenticate", `Bearer realm="digest-extractor"`)
			respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
			return
		}
		if claims.Role != a.role {
			recordAuthRequest("forbidden", time.Since(start).Seconds())
			recordForbiddenAttempt(claims.Role, r.Method)
			respond.SafeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}
		recordAuthRequest("success", time.Since(start).Seconds())

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.Subject)))
	})
}

func (a *Authenticator) validate(header string) (*Claims, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, errMissingToken
	}
	tokenString := strings.TrimSpace(header[len(prefix):])

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tok.Valid {
		return nil, errInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", errInvalidToken)
	}
	return claims, nil
}

// WithUser stores the authenticated subject in ctx.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, ctxUser, user)
}

// UserFromContext returns the authenticated subject, or "".
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(ctxUser).(string)
	return user
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digest-extractor/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func mint(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "ops@example.com",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
}

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(&config.SecurityConfig{JWTSecret: []byte(testSecret), RequiredRole: "admin"})
}

func serve(a *Authenticator, header string) (*httptest.ResponseRecorder, string) {
	var user string
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/extraction/run", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, user
}

func TestRequire_ValidToken(t *testing.T) {
	tok := mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	rr, user := serve(newTestAuthenticator(), "Bearer "+tok)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "ops@example.com", user)
}

func TestRequire_SchemeIsCaseInsensitive(t *testing.T) {
	tok := mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	rr, _ := serve(newTestAuthenticator(), "bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRequire_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := validClaims()
	delete(noExp, "exp")

	noSub := validClaims()
	delete(noSub, "sub")

	viewer := validClaims()
	viewer["role"] = "viewer"

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + mint(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-00"), validClaims()), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + mint(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()), http.StatusUnauthorized},
		{"expired", "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), expired), http.StatusUnauthorized},
		{"no expiry", "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), noExp), http.StatusUnauthorized},
		{"no subject", "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), noSub), http.StatusUnauthorized},
		{"wrong role", "Bearer " + mint(t, jwt.SigningMethodHS256, []byte(testSecret), viewer), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, user := serve(newTestAuthenticator(), tt.header)
			assert.Equal(t, tt.want, rr.Code)
			assert.Empty(t, user)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestRequire_UnauthorizedSetsChallenge(t *testing.T) {
	rr, _ := serve(newTestAuthenticator(), "")
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRequire_ConfiguredRole(t *testing.T) {
	a := NewAuthenticator(&config.SecurityConfig{JWTSecret: []byte(testSecret), RequiredRole: "operator"})
	claims := validClaims()
	claims["role"] = "operator"

	rr, _ := serve(a, "Bearer "+mint(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, _ = serve(a, "Bearer "+mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequire_RecordsMetrics(t *testing.T) {
	authRequestsTotal.Reset()
	forbiddenAttempts.Reset()

	viewer := validClaims()
	viewer["role"] = "viewer"

	a := newTestAuthenticator()
	serve(a, "Bearer "+mint(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	serve(a, "")
	serve(a, "Bearer "+mint(t, jwt.SigningMethodHS256, []byte(testSecret), viewer))

	assert.Equal(t, 1.0, testutil.ToFloat64(authRequestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(authRequestsTotal.WithLabelValues("unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(authRequestsTotal.WithLabelValues("forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(forbiddenAttempts.WithLabelValues("viewer", http.MethodPost)))
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserFromContext(req.Context()))
	assert.Equal(t, "alice", UserFromContext(WithUser(req.Context(), "alice")))
}

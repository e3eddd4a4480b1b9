package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := NewService(opts, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestCheckAdminSecret_Plain(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "k", AdminSecret: "open-sesame"})
	assert.NoError(t, svc.CheckAdminSecret("open-sesame"))
	assert.ErrorIs(t, svc.CheckAdminSecret("wrong"), ErrInvalidSecret)
	assert.ErrorIs(t, svc.CheckAdminSecret(""), ErrInvalidSecret)
}

func TestCheckAdminSecret_Hash(t *testing.T) {
	hash, err := HashSecret("open-sesame")
	require.NoError(t, err)

	svc := newTestService(t, Options{JWTSecret: "k", AdminSecret: "ignored", AdminSecretHash: hash})
	assert.NoError(t, svc.CheckAdminSecret("open-sesame"))
	assert.ErrorIs(t, svc.CheckAdminSecret("ignored"), ErrInvalidSecret)
}

func TestCheckAdminSecret_UnsetNeverMatchesEmpty(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "k"})
	assert.Error(t, svc.CheckAdminSecret(""))
	assert.Error(t, svc.CheckAdminSecret("anything"))
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "signing-key", AdminSecret: "x"})

	token, err := svc.IssueToken("ops@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	other := newTestService(t, Options{JWTSecret: "different-key", AdminSecret: "x"})
	_, err = other.VerifyAdminToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAdminToken_Expired(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "signing-key", AdminSecret: "x"})
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.IssueToken("ops", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyAdminToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAdminToken_RequiresRole(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "signing-key", AdminSecret: "x"})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "viewer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "someone", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := token.SignedString([]byte("signing-key"))
	require.NoError(t, err)

	_, err = svc.VerifyAdminToken(signed)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestAdminMiddleware(t *testing.T) {
	svc := newTestService(t, Options{JWTSecret: "signing-key", AdminSecret: "open-sesame"})
	token, err := svc.IssueToken("ops", time.Hour)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, SubjectFromContext(c))
	}, svc.AdminMiddleware)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		body    string
	}{
		{"secret header", map[string]string{AdminSecretHeader: "open-sesame"}, http.StatusOK, "admin-secret"},
		{"bad secret", map[string]string{AdminSecretHeader: "nope"}, http.StatusUnauthorized, ""},
		{"bearer token", map[string]string{echo.HeaderAuthorization: "Bearer " + token}, http.StatusOK, "ops"},
		{"bad bearer", map[string]string{echo.HeaderAuthorization: "Bearer garbage"}, http.StatusUnauthorized, ""},
		{"no credentials", nil, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	AdminSecretHeader = "X-Admin-Secret"
	SubjectKey        = "auth_subject"
)

// AdminMiddleware accepts either the X-Admin-Secret header or a Bearer token
// carrying the admin role.
func (s *Service) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if secret := c.Request().Header.Get(AdminSecretHeader); secret != "" {
			if err := s.CheckAdminSecret(secret); err == nil {
				c.Set(SubjectKey, "admin-secret")
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized admin access")
		}

		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}

		claims, err := s.VerifyAdminToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		c.Set(SubjectKey, claims.Subject)
		return next(c)
	}
}

// SubjectFromContext returns who passed AdminMiddleware.
func SubjectFromContext(c echo.Context) string {
	subject, _ := c.Get(SubjectKey).(string)
	return subject
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/apperr"
)

// RequireAdmin aborts with 401 unless Authenticate admitted an admin.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok || !id.Admin {
				return apperr.Unauthorised()
			}
			return next(c)
		}
	}
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fortexx_ledger/internal/services"
)

// KeyParam is the path parameter every protected route carries its key in.
const KeyParam = "key"

// RequireKey returns a middleware that rejects requests whose route key does
// not grant at least level.
func RequireKey(authorizer *services.KeyAuthorizer, level services.AccessLevel) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authorizer.Allows(c.Param(KeyParam), level) {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}

			c.Set("accessLevel", level)
			return next(c)
		}
	}
}

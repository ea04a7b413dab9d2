package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/auth"
	"ledger-service/pkg/logger"
)

// RequireRole gates a route to the given roles. Runs after
// JWTAuthMiddleware.
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	allowed := make(map[auth.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authCtx, ok := CallerFromEcho(c)
			if !ok {
				log.Error("Role guard reached without authentication")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			if !allowed[authCtx.Role] {
				log.Warn("Role not permitted for route",
					zap.Uint("user_id", authCtx.UserID),
					zap.String("role", string(authCtx.Role)))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}

			return next(c)
		}
	}
}

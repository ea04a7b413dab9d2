package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/auth"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"
)

// authContextKey is the echo context key holding the caller identity.
const authContextKey = "auth"

// JWTAuthMiddleware validates the bearer token and attaches the
// caller's identity (user, organization, role) to the request. Every
// downstream operation trusts this context completely.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			role := auth.Role(claims.Role)
			if !role.Valid() || claims.OrgID == "" {
				log.Warn("Token missing organization context",
					zap.Uint("user_id", claims.UserID),
					zap.String("role", claims.Role))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
			}

			c.Set(authContextKey, auth.Context{
				UserID: claims.UserID,
				OrgID:  claims.OrgID,
				Role:   role,
			})

			return next(c)
		}
	}
}

// CallerFromEcho retrieves the caller identity set by the auth
// middleware. The second return is false on unauthenticated routes.
func CallerFromEcho(c echo.Context) (auth.Context, bool) {
	authCtx, ok := c.Get(authContextKey).(auth.Context)
	return authCtx, ok
}

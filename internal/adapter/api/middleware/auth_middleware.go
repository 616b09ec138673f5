package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"linkup/internal/usecase"
)

type AuthMiddleware struct {
	firebaseAuth usecase.FirebaseAuthClient
}

func NewAuthMiddleware(firebaseAuth usecase.FirebaseAuthClient) *AuthMiddleware {
	return &AuthMiddleware{
		firebaseAuth: firebaseAuth,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		uid, email, err := m.firebaseAuth.VerifyToken(c.Request().Context(), parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set("uid", uid)
		c.Set("email", email)

		return next(c)
	}
}

// IdentityFromToken resolves a raw token outside the HTTP middleware chain,
// for the WebSocket handshake.
func (m *AuthMiddleware) IdentityFromToken(ctx context.Context, token string) (uid, email string, err error) {
	return m.firebaseAuth.VerifyToken(ctx, token)
}

package router

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/adapter/api/handler"
	"linkup/internal/adapter/api/middleware"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)

	// Protected routes
	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("/logout", authHandler.Logout)
	protected.PUT("/password", authHandler.ChangePassword)
	protected.DELETE("/me", authHandler.DeleteAccount)
}

package router

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/adapter/api/handler"
	"linkup/internal/adapter/api/middleware"
)

// SetupUserRouter initializes the directory, profile, upload and settings
// routes. All of them require a signed-in caller.
func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()
	uploadHandler := handler.GetUploadHandler()
	settingsHandler := handler.GetSettingsHandler()

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("", userHandler.ListDirectory)
	users.POST("", userHandler.AddContact)
	users.GET("/me", userHandler.GetProfile)
	users.PUT("/me", userHandler.UpdateProfile)

	uploads := e.Group("/v1/uploads")
	uploads.Use(authMiddleware.Authenticate)

	uploads.POST("", uploadHandler.Upload)

	settings := e.Group("/v1/settings")
	settings.Use(authMiddleware.Authenticate)

	settings.GET("/theme", settingsHandler.GetTheme)
	settings.PUT("/theme", settingsHandler.SetTheme)
}

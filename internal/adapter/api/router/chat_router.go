package router

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/adapter/api/handler"
	"linkup/internal/adapter/api/middleware"
)

// SetupChatRouter initializes chat routes
func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.GET("", chatHandler.ListChats)
	chats.POST("", chatHandler.CreateChat)
	chats.POST("/group", chatHandler.CreateGroup)
	chats.DELETE("", chatHandler.DeleteChats)

	chats.GET("/:id", chatHandler.GetChat)
	chats.PUT("/:id/read", chatHandler.MarkRead)
	chats.GET("/:id/messages", chatHandler.GetMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
}

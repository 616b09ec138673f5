package router

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/adapter/api/handler"
)

// SetupWebSocketRouter initializes the device session endpoint. The token is
// verified inside the handler because it arrives as a query parameter.
func SetupWebSocketRouter(e *echo.Echo) {
	wsHandler := handler.GetWebSocketHandler()

	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}

package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"linkup/internal/usecase"
	"linkup/pkg/errors"
	"linkup/pkg/response"
)

// SettingsHandler stores per-device preferences in the local key-value
// store. Only the theme byte exists today.
type SettingsHandler struct {
	store usecase.KeyValueStore
}

func NewSettingsHandler(store usecase.KeyValueStore) *SettingsHandler {
	return &SettingsHandler{
		store: store,
	}
}

func themeKey(c echo.Context) string {
	email, _ := c.Get("email").(string)
	deviceID := c.Request().Header.Get(deviceHeader)
	if deviceID == "" {
		deviceID = "default"
	}
	return fmt.Sprintf("theme:%s:%s", email, deviceID)
}

func (h *SettingsHandler) GetTheme(c echo.Context) error {
	theme, ok, err := h.store.Get(themeKey(c))
	if err != nil {
		return response.Error(c, err)
	}
	if !ok {
		theme = "light"
	}

	return response.Success(c, map[string]string{
		"theme": theme,
	})
}

func (h *SettingsHandler) SetTheme(c echo.Context) error {
	var req struct {
		Theme string `json:"theme" validate:"required,oneof=light dark"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.store.Set(themeKey(c), req.Theme); err != nil {
		return response.Error(c, errors.Internal("Failed to store theme", err))
	}

	return response.Success(c, map[string]string{
		"theme": req.Theme,
	})
}

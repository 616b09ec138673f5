package handler

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/domain/entity"
	"linkup/internal/usecase"
	"linkup/pkg/errors"
)

var (
	authHandler     *AuthHandler
	userHandler     *UserHandler
	chatHandler     *ChatHandler
	uploadHandler   *UploadHandler
	settingsHandler *SettingsHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	chatUseCase *usecase.ChatUseCase,
	uploader usecase.FileUploader,
	store usecase.KeyValueStore,
	previewLength int,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase, authUseCase)
	chatHandler = NewChatHandler(chatUseCase, authUseCase, store, previewLength)
	uploadHandler = NewUploadHandler(uploader)
	settingsHandler = NewSettingsHandler(store)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

func GetSettingsHandler() *SettingsHandler {
	return settingsHandler
}

// currentUser resolves the directory record of the authenticated caller. The
// auth middleware guarantees the email key is set on protected routes.
func currentUser(c echo.Context, auth *usecase.AuthUseCase) (*entity.User, error) {
	email, ok := c.Get("email").(string)
	if !ok || email == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return auth.GetUserByEmail(c.Request().Context(), email)
}

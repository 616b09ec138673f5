package handler

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/usecase"
	"linkup/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
	authUseCase *usecase.AuthUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase, authUseCase *usecase.AuthUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		authUseCase: authUseCase,
	}
}

// ListDirectory returns every registered user for the contact picker.
func (h *UserHandler) ListDirectory(c echo.Context) error {
	users, err := h.userUseCase.ListDirectory(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:    u.ID,
			Email: u.Email,
			Name:  u.Name,
			About: u.About,
		})
	}
	return response.Success(c, out)
}

// AddContact creates a directory entry plus an empty personal chat with it.
func (h *UserHandler) AddContact(c echo.Context) error {
	var req struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := h.userUseCase.AddContact(c.Request().Context(), me, req.Name, req.Email)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, userResponse{
		ID:    me.ID,
		Email: me.Email,
		Name:  me.Name,
		About: me.About,
	})
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		About string `json:"about"`
	}
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	updated, err := h.userUseCase.UpdateProfile(c.Request().Context(), me.Email, req.Name, req.About)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, userResponse{
		ID:    updated.ID,
		Email: updated.Email,
		Name:  updated.Name,
		About: updated.About,
	})
}

package handler

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/domain/entity"
	"linkup/internal/usecase"
	"linkup/pkg/errors"
	"linkup/pkg/response"
)

// deviceHeader carries the caller's device identity. Unread counts are a
// per-device notion, so routes touching them need to know which device asks.
const deviceHeader = "X-Device-ID"

type ChatHandler struct {
	chatUseCase   *usecase.ChatUseCase
	authUseCase   *usecase.AuthUseCase
	store         usecase.KeyValueStore
	previewLength int
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, authUseCase *usecase.AuthUseCase, store usecase.KeyValueStore, previewLength int) *ChatHandler {
	return &ChatHandler{
		chatUseCase:   chatUseCase,
		authUseCase:   authUseCase,
		store:         store,
		previewLength: previewLength,
	}
}

func (h *ChatHandler) deviceTracker(c echo.Context, email string) *usecase.UnreadTracker {
	deviceID := c.Request().Header.Get(deviceHeader)
	if deviceID == "" {
		return nil
	}
	return usecase.NewUnreadTracker(h.store, email, deviceID)
}

// ListChats returns the caller's chat summaries, newest activity first. With
// a device header the per-device unread counts are filled in; the q query
// filters by row title.
func (h *ChatHandler) ListChats(c echo.Context) error {
	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	summaries, err := h.chatUseCase.ListChats(c.Request().Context(), me, h.previewLength)
	if err != nil {
		return response.Error(c, err)
	}

	if tracker := h.deviceTracker(c, me.Email); tracker != nil {
		for i := range summaries {
			summaries[i].Unread = tracker.Count(summaries[i].ChatID)
		}
	}

	return response.Success(c, usecase.FilterSummaries(summaries, c.QueryParam("q")))
}

// CreateChat opens (or finds) the personal chat with the recipient. Sending
// your own email opens the message-yourself chat.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req struct {
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

	chat, created, err := h.chatUseCase.StartDirectChat(c.Request().Context(), me, req.Email)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) CreateGroup(c echo.Context) error {
	var req struct {
		Name    string   `json:"name" validate:"required"`
		Members []string `json:"members" validate:"required,min=1,dive,email"`
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

	chat, err := h.chatUseCase.CreateGroupChat(c.Request().Context(), me, usecase.CreateGroupInput{
		Name:         req.Name,
		MemberEmails: req.Members,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

type chatInfoResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Group       bool                 `json:"group"`
	Members     []entity.Participant `json:"members"`
	GroupAdmins []string             `json:"groupAdmins,omitempty"`
	LastUpdated int64                `json:"lastUpdated"`
}

// GetChat returns the info view: members deduped by email, so a self-chat
// shows one member.
func (h *ChatHandler) GetChat(c echo.Context) error {
	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.GetChat(c.Request().Context(), me, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chatInfoResponse{
		ID:          chat.ID,
		Name:        usecase.DisplayName(chat, me.Email),
		Group:       chat.Kind() == entity.KindGroup,
		Members:     chat.UniqueMembers(),
		GroupAdmins: chat.GroupAdmins,
		LastUpdated: chat.LastUpdated,
	})
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.chatUseCase.GetMessages(c.Request().Context(), me, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, usecase.RenderMessages(messages, me.Email))
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req struct {
		Text  string `json:"text"`
		Image string `json:"image" validate:"omitempty,url"`
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

	content, err := entity.ParseContent(req.Text, req.Image)
	if err != nil {
		return response.Error(c, err)
	}

	msg, _, err := h.chatUseCase.SendMessage(c.Request().Context(), me, c.Param("id"), content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, msg)
}

// MarkRead zeroes this device's unread entry for a chat.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	me, err := currentUser(c, h.authUseCase)
	if err != nil {
		return response.Error(c, err)
	}

	tracker := h.deviceTracker(c, me.Email)
	if tracker == nil {
		return response.Error(c, errors.Validation(deviceHeader+" header is required"))
	}

	tracker.OpenChat(c.Param("id"))
	tracker.CloseChat()

	return response.Success(c, map[string]int{
		"badge": tracker.Badge(),
	})
}

// DeleteChats soft-leaves the selected chats in bulk.
func (h *ChatHandler) DeleteChats(c echo.Context) error {
	var req struct {
		ChatIDs []string `json:"chat_ids" validate:"required,min=1"`
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

	if err := h.chatUseCase.DeleteChats(c.Request().Context(), me, req.ChatIDs); err != nil {
		return response.Error(c, err)
	}

	if tracker := h.deviceTracker(c, me.Email); tracker != nil {
		for _, id := range req.ChatIDs {
			tracker.Forget(id)
		}
	}

	return response.Success(c, map[string]string{
		"message": "Chats deleted",
	})
}

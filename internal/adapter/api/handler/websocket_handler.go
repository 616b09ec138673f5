package handler

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"linkup/internal/adapter/api/middleware"
	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	ws "linkup/internal/infrastructure/websocket"
	"linkup/internal/usecase"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

// WebSocketHandler runs one device session per connection: a session gate, a
// device unread tracker, the live chat list, and at most one open
// conversation. Everything the session owns is torn down when the socket
// closes, whichever way it closes.
type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	authUseCase    *usecase.AuthUseCase
	chatUseCase    *usecase.ChatUseCase
	chatRepo       repository.ChatRepository
	store          usecase.KeyValueStore
	uploader       usecase.FileUploader
	previewLength  int
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	authMiddleware *middleware.AuthMiddleware,
	authUseCase *usecase.AuthUseCase,
	chatUseCase *usecase.ChatUseCase,
	chatRepo repository.ChatRepository,
	store usecase.KeyValueStore,
	uploader usecase.FileUploader,
	previewLength int,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		authUseCase:    authUseCase,
		chatUseCase:    chatUseCase,
		chatRepo:       chatRepo,
		store:          store,
		uploader:       uploader,
		previewLength:  previewLength,
	}
}

var webSocketHandler *WebSocketHandler

func SetupWebSocketHandler(h *WebSocketHandler) {
	webSocketHandler = h
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

type wsEvent struct {
	Type   string      `json:"type"`
	ChatID string      `json:"chatId,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Badge  int         `json:"badge,omitempty"`
	Code   string      `json:"code,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type wsCommand struct {
	Action string `json:"action"`
	ChatID string `json:"chatId,omitempty"`
	Text   string `json:"text,omitempty"`
	Query  string `json:"query,omitempty"`
}

// HandleWebSocket authenticates the handshake (the browser WebSocket API
// cannot set an Authorization header, so the token rides in the query),
// upgrades, and runs the session until the client goes away.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	deviceID := c.QueryParam("device")
	if token == "" || deviceID == "" {
		return errors.Unauthorized("token and device query parameters are required", nil)
	}

	ctx := c.Request().Context()
	_, email, err := h.authMiddleware.IdentityFromToken(ctx, token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := h.authUseCase.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		SessionID: uuid.New().String(),
		UserEmail: user.Email,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
	h.wsManager.Register <- client
	go client.WritePump()

	h.runSession(client, user, deviceID)
	return nil
}

func (h *WebSocketHandler) runSession(client *ws.Client, user *entity.User, deviceID string) {
	gate := usecase.NewSessionGate()
	gate.SignedIn(user)
	tracker := usecase.NewUnreadTracker(h.store, user.Email, deviceID)

	push := func(event wsEvent) {
		raw, err := json.Marshal(event)
		if err != nil {
			logger.Error("Failed to encode event for session %s: %v", client.SessionID, err)
			return
		}
		h.wsManager.SendToSession(client.SessionID, raw)
	}

	syncer := usecase.NewChatListSyncer(h.chatRepo, gate, tracker, h.previewLength,
		func(summaries []usecase.ChatSummary) {
			push(wsEvent{Type: "chat_list", Data: summaries, Badge: tracker.Badge()})
		},
		func(err error) {
			// Non-fatal: the device keeps its last list and may resubscribe.
			push(errorEvent(err))
		})

	ctx := context.Background()
	if err := syncer.Open(ctx); err != nil {
		push(errorEvent(err))
		h.wsManager.Unregister <- client
		gate.Teardown()
		return
	}

	var conversation *usecase.ConversationLog
	closeConversation := func() {
		if conversation != nil {
			conversation.Close()
			conversation = nil
		}
	}

	defer func() {
		closeConversation()
		syncer.Close()
		gate.Teardown()
		h.wsManager.Unregister <- client
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			push(wsEvent{Type: "error", Code: "BAD_REQUEST", Error: "malformed command"})
			continue
		}

		switch cmd.Action {
		case "open_chat":
			closeConversation()
			chatID := cmd.ChatID
			log := usecase.NewConversationLog(h.chatRepo, h.chatUseCase, gate, tracker, h.uploader, chatID, func(rendered []usecase.RenderedMessage) {
				push(wsEvent{Type: "messages", ChatID: chatID, Data: rendered, Badge: tracker.Badge()})
			})
			if err := log.Open(ctx); err != nil {
				push(errorEvent(err))
				continue
			}
			conversation = log

		case "close_chat":
			closeConversation()

		case "send":
			if conversation == nil {
				push(wsEvent{Type: "error", Code: "BAD_REQUEST", Error: "no open conversation"})
				continue
			}
			if _, err := conversation.Send(ctx, cmd.Text); err != nil {
				push(errorEvent(err))
			}

		case "search":
			push(wsEvent{Type: "search_results", Data: syncer.Search(cmd.Query)})

		default:
			push(wsEvent{Type: "error", Code: "BAD_REQUEST", Error: "unknown action " + cmd.Action})
		}
	}
}

func errorEvent(err error) wsEvent {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return wsEvent{Type: "error", Code: appErr.Code, Error: appErr.Message}
	}
	return wsEvent{Type: "error", Code: "INTERNAL_ERROR", Error: "An unexpected error occurred"}
}

package usecase

import (
	"context"
	"io"
	"sync"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/avatar"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

// RenderedMessage is the view model for one message bubble. Mine flips the
// bubble side; the avatar is always populated, falling back to the generated
// initials image when the author never set one.
type RenderedMessage struct {
	ID        string `json:"_id"`
	Text      string `json:"text,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	Author    string `json:"author"`
	Avatar    string `json:"avatar"`
	Mine      bool   `json:"mine"`
}

type UploadState int

const (
	UploadIdle UploadState = iota
	UploadInProgress
	UploadComplete
	UploadFailed
)

// ConversationLog is one open conversation on one device: a live document
// subscription plus the send paths. While a log is open its chat is exempt
// from unread counting on this device.
type ConversationLog struct {
	chatRepo repository.ChatRepository
	chatUC   *ChatUseCase
	gate     *SessionGate
	tracker  *UnreadTracker
	uploader FileUploader
	chatID   string
	onUpdate func([]RenderedMessage)

	mu       sync.Mutex
	rendered []RenderedMessage
	err      error
	upload   UploadState
	sent     int64
	stream   repository.ChatStream
	done     chan struct{}
}

func NewConversationLog(chatRepo repository.ChatRepository, chatUC *ChatUseCase, gate *SessionGate, tracker *UnreadTracker, uploader FileUploader, chatID string, onUpdate func([]RenderedMessage)) *ConversationLog {
	return &ConversationLog{
		chatRepo: chatRepo,
		chatUC:   chatUC,
		gate:     gate,
		tracker:  tracker,
		uploader: uploader,
		chatID:   chatID,
		onUpdate: onUpdate,
	}
}

// Open marks the chat as on-screen and starts the document subscription.
// The unread reset happens before the first snapshot is processed, so a
// message landing during the handshake is not counted.
func (l *ConversationLog) Open(ctx context.Context) error {
	user := l.gate.CurrentUser()
	if user == nil {
		return errors.Unauthorized("Sign in before opening a conversation", nil)
	}

	if _, err := l.chatUC.GetChat(ctx, user, l.chatID); err != nil {
		return err
	}

	l.tracker.OpenChat(l.chatID)

	stream, err := l.chatRepo.WatchChat(ctx, l.chatID)
	if err != nil {
		l.tracker.CloseChat()
		return err
	}

	l.mu.Lock()
	l.stream = stream
	l.done = make(chan struct{})
	l.mu.Unlock()

	go l.run(stream, user)
	return nil
}

func (l *ConversationLog) run(stream repository.ChatStream, user *entity.User) {
	defer close(l.done)

	for {
		chat, err := stream.Next()
		if err != nil {
			l.mu.Lock()
			l.err = errors.SubscriptionInterrupted(err)
			l.mu.Unlock()
			logger.Warn("Conversation subscription %s ended: %v", l.chatID, err)
			return
		}

		rendered := RenderMessages(chat.Messages, user.Email)
		l.mu.Lock()
		l.rendered = rendered
		l.err = nil
		onUpdate := l.onUpdate
		l.mu.Unlock()

		if onUpdate != nil {
			onUpdate(rendered)
		}
	}
}

// RenderMessages maps the stored array, newest first, into bubbles.
func RenderMessages(messages []entity.Message, viewerEmail string) []RenderedMessage {
	rendered := make([]RenderedMessage, 0, len(messages))
	for _, m := range messages {
		av := m.Author.Avatar
		if av == "" {
			av = avatar.URL(m.Author.Name, m.Author.Email, avatar.DefaultSize)
		}
		rendered = append(rendered, RenderedMessage{
			ID:        m.ID,
			Text:      m.Text,
			Image:     m.Image,
			CreatedAt: m.CreatedAt.UnixMilli(),
			Author:    m.Author.Name,
			Avatar:    av,
			Mine:      m.Author.Email == viewerEmail,
		})
	}
	return rendered
}

// Send appends a text or emoji message.
func (l *ConversationLog) Send(ctx context.Context, text string) (*entity.Message, error) {
	user := l.gate.CurrentUser()
	if user == nil {
		return nil, errors.Unauthorized("Sign in before sending", nil)
	}

	content, err := entity.NewTextContent(text)
	if err != nil {
		return nil, err
	}

	msg, _, err := l.chatUC.SendMessage(ctx, user, l.chatID, content)
	return msg, err
}

// SendImage uploads the blob first and appends an image message only after
// the upload completed. A failed upload leaves the conversation untouched and
// returns the state machine to idle, so the caller may simply retry.
func (l *ConversationLog) SendImage(ctx context.Context, r io.Reader, contentType string) (*entity.Message, error) {
	user := l.gate.CurrentUser()
	if user == nil {
		return nil, errors.Unauthorized("Sign in before sending", nil)
	}

	l.mu.Lock()
	if l.upload == UploadInProgress {
		l.mu.Unlock()
		return nil, errors.Conflict("An upload is already in progress")
	}
	l.upload = UploadInProgress
	l.sent = 0
	l.mu.Unlock()

	url, err := l.uploader.Upload(ctx, r, contentType, func(written int64) {
		l.mu.Lock()
		l.sent = written
		l.mu.Unlock()
	})
	if err != nil {
		l.mu.Lock()
		l.upload = UploadIdle
		l.sent = 0
		l.mu.Unlock()
		return nil, errors.UploadFailed(err)
	}

	l.setUpload(UploadComplete)

	content, err := entity.NewImageContent(url)
	if err != nil {
		l.setUpload(UploadIdle)
		return nil, err
	}

	msg, _, err := l.chatUC.SendMessage(ctx, user, l.chatID, content)
	if err != nil {
		// The blob is in the bucket but no message references it; the state
		// machine still returns to idle so the caller may retry.
		l.setUpload(UploadIdle)
		return nil, err
	}

	l.setUpload(UploadIdle)
	return msg, nil
}

func (l *ConversationLog) setUpload(state UploadState) {
	l.mu.Lock()
	l.upload = state
	l.mu.Unlock()
}

// Upload reports the state machine and the bytes written so far.
func (l *ConversationLog) Upload() (UploadState, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.upload, l.sent
}

// Messages returns the current rendered set, newest first.
func (l *ConversationLog) Messages() []RenderedMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RenderedMessage, len(l.rendered))
	copy(out, l.rendered)
	return out
}

// Err reports whether the document subscription has been interrupted.
func (l *ConversationLog) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close stops the subscription, drains the loop and clears the on-screen
// mark. Safe to call when Open never succeeded.
func (l *ConversationLog) Close() {
	l.mu.Lock()
	stream := l.stream
	done := l.done
	l.stream = nil
	l.mu.Unlock()

	if stream != nil {
		stream.Stop()
		<-done
	}
	if l.tracker.Open() == l.chatID {
		l.tracker.CloseChat()
	}
}

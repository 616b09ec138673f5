package repository

import (
	"context"

	"linkup/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// ListByParticipant returns the chats whose users array contains the
	// given non-removed entry, newest lastUpdated first.
	ListByParticipant(ctx context.Context, p entity.Participant) ([]*entity.Chat, error)
	// SetParticipants merge-writes only the users field, leaving messages and
	// the rest of the document untouched.
	SetParticipants(ctx context.Context, chatID string, users []entity.Participant) error
	// AppendMessage atomically prepends a message to the embedded array and
	// bumps lastUpdated. It returns the new array length.
	AppendMessage(ctx context.Context, chatID string, message entity.Message) (int, error)
	Delete(ctx context.Context, id string) error

	// Watch methods return live streams. Callers own the handle and must
	// call Stop on every exit path.
	WatchByParticipant(ctx context.Context, p entity.Participant) (ChatListStream, error)
	WatchChat(ctx context.Context, chatID string) (ChatStream, error)
}

// ChatListStream delivers successive result sets of a chat list query.
type ChatListStream interface {
	Next() ([]*entity.Chat, error)
	Stop()
}

// ChatStream delivers successive states of a single chat document.
type ChatStream interface {
	Next() (*entity.Chat, error)
	Stop()
}

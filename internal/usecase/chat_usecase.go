package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/internal/infrastructure/ratelimit"
	"linkup/pkg/avatar"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

// StartDirectChat returns the existing personal chat with the recipient or
// creates a fresh empty one. Messaging yourself is allowed: the self-chat
// document carries two identical participant entries and is matched only by
// that double entry, never by a chat that merely contains the caller.
func (uc *ChatUseCase) StartDirectChat(ctx context.Context, me *entity.User, recipientEmail string) (*entity.Chat, bool, error) {
	if recipientEmail == "" {
		return nil, false, errors.Validation("recipient email is required")
	}

	recipient, err := uc.userRepo.GetByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, false, errors.NotFound("Recipient", err)
	}

	existing, err := uc.findPersonalChat(ctx, me, recipientEmail)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if allowed, wait := uc.rateLimiter.Allow(me.Email, "create_chat"); !allowed {
		logger.Warn("Chat creation rate limited for %s (wait %v)", me.Email, wait)
		return nil, false, errors.TooManyRequests("Too many new chats, try again later")
	}

	now := time.Now().UnixMilli()
	chat := &entity.Chat{
		Users: []entity.Participant{
			me.AsParticipant(),
			recipient.AsParticipant(),
		},
		Messages:    []entity.Message{},
		GroupName:   "",
		LastUpdated: now,
		LastAccess: []entity.AccessStamp{
			{Email: me.Email, Date: now},
			{Email: recipient.Email},
		},
	}

	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, false, err
	}

	return chat, true, nil
}

func (uc *ChatUseCase) findPersonalChat(ctx context.Context, me *entity.User, recipientEmail string) (*entity.Chat, error) {
	chats, err := uc.chatRepo.ListByParticipant(ctx, me.AsParticipant())
	if err != nil {
		return nil, err
	}

	selfChat := recipientEmail == me.Email
	for _, chat := range chats {
		if chat.Kind() != entity.KindPersonal {
			continue
		}
		if selfChat {
			if chat.Users[0].Email == me.Email && chat.Users[1].Email == me.Email {
				return chat, nil
			}
			continue
		}
		if chat.Users[0].Email == chat.Users[1].Email {
			// A self-chat also contains the caller; never match it for
			// someone else.
			continue
		}
		if chat.HasParticipant(recipientEmail) {
			return chat, nil
		}
	}

	return nil, nil
}

type CreateGroupInput struct {
	Name         string
	MemberEmails []string
}

func (uc *ChatUseCase) CreateGroupChat(ctx context.Context, me *entity.User, input CreateGroupInput) (*entity.Chat, error) {
	if input.Name == "" {
		return nil, errors.Validation("group name is required")
	}
	if len(input.MemberEmails) == 0 {
		return nil, errors.Validation("a group needs at least one other member")
	}

	if allowed, wait := uc.rateLimiter.Allow(me.Email, "create_chat"); !allowed {
		logger.Warn("Group creation rate limited for %s (wait %v)", me.Email, wait)
		return nil, errors.TooManyRequests("Too many new chats, try again later")
	}

	users := []entity.Participant{me.AsParticipant()}
	for _, email := range input.MemberEmails {
		if email == me.Email {
			continue
		}
		member, err := uc.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, errors.NotFound("Member "+email, err)
		}
		users = append(users, member.AsParticipant())
	}
	if len(users) < 2 {
		return nil, errors.Validation("a group needs at least one other member")
	}

	chat := &entity.Chat{
		Users:       users,
		Messages:    []entity.Message{},
		GroupName:   input.Name,
		GroupAdmins: []string{me.Email},
		LastUpdated: time.Now().UnixMilli(),
	}

	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

// SendMessage appends a message through the transactional read-modify-write
// path. The returned length is the array size after the committed append.
func (uc *ChatUseCase) SendMessage(ctx context.Context, me *entity.User, chatID string, content entity.Content) (*entity.Message, int, error) {
	if content.IsEmpty() {
		return nil, 0, errors.Validation("message must carry text or an image")
	}

	if allowed, wait := uc.rateLimiter.Allow(me.Email, "send_message"); !allowed {
		logger.Warn("Send rate limited for %s (wait %v)", me.Email, wait)
		return nil, 0, errors.TooManyRequests("Too many messages, slow down")
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}
	if !chat.HasParticipant(me.Email) {
		return nil, 0, errors.Forbidden("You are not a participant of this chat", nil)
	}

	message := buildMessage(me, content)
	length, err := uc.chatRepo.AppendMessage(ctx, chatID, message)
	if err != nil {
		return nil, 0, err
	}

	return &message, length, nil
}

func buildMessage(me *entity.User, content entity.Content) entity.Message {
	text, image := content.Fields()
	return entity.Message{
		ID:        uuid.New().String(),
		Text:      text,
		Image:     image,
		CreatedAt: time.Now(),
		Author: entity.Author{
			Email:  me.Email,
			Name:   me.Name,
			Avatar: avatar.URL(me.Name, me.Email, avatar.DefaultSize),
		},
		Sent:     true,
		Received: false,
	}
}

// GetChat returns a chat the caller belongs to.
func (uc *ChatUseCase) GetChat(ctx context.Context, me *entity.User, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(me.Email) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return chat, nil
}

// GetMessages returns the embedded message array, newest first.
func (uc *ChatUseCase) GetMessages(ctx context.Context, me *entity.User, chatID string) ([]entity.Message, error) {
	chat, err := uc.GetChat(ctx, me, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Messages, nil
}

// ListChats returns the caller's visible chat summaries: chats without a
// single message are filtered out, newest activity first.
func (uc *ChatUseCase) ListChats(ctx context.Context, me *entity.User, previewLen int) ([]ChatSummary, error) {
	chats, err := uc.chatRepo.ListByParticipant(ctx, me.AsParticipant())
	if err != nil {
		return nil, err
	}
	return BuildSummaries(chats, me, previewLen, nil), nil
}

// DeleteChats soft-leaves every selected chat and hard-deletes the documents
// where no participant is left. One merge/delete pair runs per chat; the call
// returns only after all of them settle.
func (uc *ChatUseCase) DeleteChats(ctx context.Context, me *entity.User, chatIDs []string) error {
	if len(chatIDs) == 0 {
		return errors.Validation("no chats selected")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, chatID := range chatIDs {
		chatID := chatID
		g.Go(func() error {
			return uc.leaveChat(ctx, me, chatID)
		})
	}
	return g.Wait()
}

func (uc *ChatUseCase) leaveChat(ctx context.Context, me *entity.User, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			// Another device already finished the delete.
			return nil
		}
		return err
	}
	if !chat.HasParticipant(me.Email) {
		return errors.Forbidden("You are not a participant of this chat", nil)
	}

	users := make([]entity.Participant, len(chat.Users))
	copy(users, chat.Users)
	for i := range users {
		if users[i].Email == me.Email {
			users[i].Removed = true
		}
	}

	if err := uc.chatRepo.SetParticipants(ctx, chatID, users); err != nil {
		return err
	}

	for _, u := range users {
		if !u.Removed {
			return nil
		}
	}
	return uc.chatRepo.Delete(ctx, chatID)
}

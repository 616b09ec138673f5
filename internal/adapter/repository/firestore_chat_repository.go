package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// participantFilter is the exact array-contains value the mobile clients
// query with; field order and the explicit false are part of the contract.
func participantFilter(p entity.Participant) map[string]interface{} {
	return map[string]interface{}{
		"email":           p.Email,
		"name":            p.Name,
		"deletedFromChat": false,
	}
}

func decodeChat(doc *firestore.DocumentSnapshot) (*entity.Chat, error) {
	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	if err := chat.Validate(); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.LastUpdated == 0 {
		chat.LastUpdated = time.Now().UnixMilli()
	}
	if err := chat.Validate(); err != nil {
		return err
	}

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	return decodeChat(doc)
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, p entity.Participant) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("users", "array-contains", participantFilter(p)).
		OrderBy("lastUpdated", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to fetch chats", err)
		}

		chat, err := decodeChat(doc)
		if err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) SetParticipants(ctx context.Context, chatID string, users []entity.Participant) error {
	_, err := r.client.Collection("chats").Doc(chatID).Set(ctx, map[string]interface{}{
		"users": users,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update chat participants", err)
	}
	return nil
}

// AppendMessage runs the read-modify-write inside a transaction so two
// near-simultaneous senders serialize instead of clobbering each other's
// append. The array stays newest-first.
func (r *firestoreChatRepository) AppendMessage(ctx context.Context, chatID string, message entity.Message) (int, error) {
	ref := r.client.Collection("chats").Doc(chatID)

	var newLen int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat", err)
			}
			return err
		}

		chat, err := decodeChat(doc)
		if err != nil {
			return err
		}

		messages := append([]entity.Message{message}, chat.Messages...)
		newLen = len(messages)

		return tx.Set(ref, map[string]interface{}{
			"messages":    messages,
			"lastUpdated": message.CreatedAt.UnixMilli(),
		}, firestore.MergeAll)
	})
	if err != nil {
		if errors.Is(err, "NOT_FOUND") || errors.Is(err, "VALIDATION_ERROR") {
			return 0, err
		}
		return 0, errors.Internal("Failed to append message", err)
	}

	return newLen, nil
}

func (r *firestoreChatRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("chats").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) WatchByParticipant(ctx context.Context, p entity.Participant) (repository.ChatListStream, error) {
	query := r.client.Collection("chats").
		Where("users", "array-contains", participantFilter(p)).
		OrderBy("lastUpdated", firestore.Desc)

	return &chatListStream{iter: query.Snapshots(ctx)}, nil
}

func (r *firestoreChatRepository) WatchChat(ctx context.Context, chatID string) (repository.ChatStream, error) {
	ref := r.client.Collection("chats").Doc(chatID)
	return &chatStream{iter: ref.Snapshots(ctx)}, nil
}

type chatListStream struct {
	iter *firestore.QuerySnapshotIterator
}

func (s *chatListStream) Next() ([]*entity.Chat, error) {
	snap, err := s.iter.Next()
	if err != nil {
		return nil, errors.SubscriptionInterrupted(err)
	}

	var chats []*entity.Chat
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.SubscriptionInterrupted(err)
		}

		chat, err := decodeChat(doc)
		if err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chats = append(chats, chat)
	}

	return chats, nil
}

func (s *chatListStream) Stop() {
	s.iter.Stop()
}

type chatStream struct {
	iter *firestore.DocumentSnapshotIterator
}

func (s *chatStream) Next() (*entity.Chat, error) {
	snap, err := s.iter.Next()
	if err != nil {
		return nil, errors.SubscriptionInterrupted(err)
	}
	if !snap.Exists() {
		return nil, errors.NotFound("Chat", nil)
	}
	return decodeChat(snap)
}

func (s *chatStream) Stop() {
	s.iter.Stop()
}

package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"linkup/internal/domain/entity"
	"linkup/pkg/errors"
)

func startConversation(t *testing.T, uploader *fakeUploader) (*ConversationLog, *watchableChatRepo, *UnreadTracker, chan []RenderedMessage) {
	t.Helper()

	repo := &watchableChatRepo{
		fakeChatRepo: newFakeChatRepo(&entity.Chat{
			ID:    "c1",
			Users: []entity.Participant{alice.AsParticipant(), bob.AsParticipant()},
		}),
		chatStream: newFakeChatStream(),
	}
	gate := NewSessionGate()
	gate.SignedIn(alice)
	tracker := NewUnreadTracker(newFakeKV(), alice.Email, "phone")
	chatUC := NewChatUseCase(repo, newFakeUserRepo(alice, bob))

	updates := make(chan []RenderedMessage, 16)
	log := NewConversationLog(repo, chatUC, gate, tracker, uploader, "c1", func(r []RenderedMessage) {
		updates <- r
	})
	assert.NoError(t, log.Open(context.Background()))
	t.Cleanup(log.Close)

	return log, repo, tracker, updates
}

func waitMessages(t *testing.T, updates chan []RenderedMessage) []RenderedMessage {
	t.Helper()
	select {
	case r := <-updates:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no conversation snapshot in time")
		return nil
	}
}

func TestOpenMarksChatAsOnScreen(t *testing.T) {
	_, _, tracker, _ := startConversation(t, &fakeUploader{})

	assert.Equal(t, "c1", tracker.Open())
}

func TestOpenRequiresMembership(t *testing.T) {
	repo := &watchableChatRepo{
		fakeChatRepo: newFakeChatRepo(&entity.Chat{
			ID:    "c1",
			Users: []entity.Participant{alice.AsParticipant(), bob.AsParticipant()},
		}),
		chatStream: newFakeChatStream(),
	}
	gate := NewSessionGate()
	gate.SignedIn(carol)
	tracker := NewUnreadTracker(newFakeKV(), carol.Email, "phone")
	chatUC := NewChatUseCase(repo, newFakeUserRepo(alice, bob, carol))

	log := NewConversationLog(repo, chatUC, gate, tracker, &fakeUploader{}, "c1", nil)
	err := log.Open(context.Background())

	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Empty(t, tracker.Open())
}

func TestRenderMessagesFillsAvatarFallback(t *testing.T) {
	now := time.Now()
	messages := []entity.Message{
		{
			ID:        "m2",
			Text:      "no avatar stored",
			CreatedAt: now,
			Author:    entity.Author{Email: bob.Email, Name: bob.Name},
		},
		{
			ID:        "m1",
			Text:      "mine",
			CreatedAt: now.Add(-time.Minute),
			Author:    entity.Author{Email: alice.Email, Name: alice.Name, Avatar: "https://example.com/me.png"},
		},
	}

	rendered := RenderMessages(messages, alice.Email)

	assert.Len(t, rendered, 2)
	assert.False(t, rendered[0].Mine)
	assert.True(t, strings.HasPrefix(rendered[0].Avatar, "https://api.dicebear.com/"))
	assert.True(t, rendered[1].Mine)
	assert.Equal(t, "https://example.com/me.png", rendered[1].Avatar)
}

func TestConversationReceivesSnapshots(t *testing.T) {
	_, repo, _, updates := startConversation(t, &fakeUploader{})

	now := time.Now()
	repo.chatStream.push(&entity.Chat{
		ID:       "c1",
		Users:    []entity.Participant{alice.AsParticipant(), bob.AsParticipant()},
		Messages: []entity.Message{seededMessage(bob, "hi", now)},
	})

	rendered := waitMessages(t, updates)
	assert.Len(t, rendered, 1)
	assert.Equal(t, "hi", rendered[0].Text)
}

func TestSendAppendsThroughChatUseCase(t *testing.T) {
	log, repo, _, _ := startConversation(t, &fakeUploader{})

	msg, err := log.Send(context.Background(), "hello bob")
	assert.NoError(t, err)
	assert.Equal(t, "hello bob", msg.Text)

	chat, _ := repo.GetByID(context.Background(), "c1")
	assert.Len(t, chat.Messages, 1)
}

func TestSendEmptyRejected(t *testing.T) {
	log, repo, _, _ := startConversation(t, &fakeUploader{})

	_, err := log.Send(context.Background(), "")

	assert.Error(t, err)
	chat, _ := repo.GetByID(context.Background(), "c1")
	assert.Empty(t, chat.Messages)
}

func TestSendImageHappyPath(t *testing.T) {
	log, repo, _, _ := startConversation(t, &fakeUploader{url: "https://storage.googleapis.com/b/chats/x.png"})

	msg, err := log.SendImage(context.Background(), strings.NewReader("data"), "image/png")

	assert.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/b/chats/x.png", msg.Image)
	assert.Empty(t, msg.Text)

	state, _ := log.Upload()
	assert.Equal(t, UploadIdle, state)

	chat, _ := repo.GetByID(context.Background(), "c1")
	assert.Len(t, chat.Messages, 1)
}

func TestSendImageFailureAppendsNothing(t *testing.T) {
	log, repo, _, _ := startConversation(t, &fakeUploader{err: errors.Internal("bucket down", nil)})

	_, err := log.SendImage(context.Background(), strings.NewReader("data"), "image/png")

	assert.True(t, errors.Is(err, "UPLOAD_FAILED"))

	state, sent := log.Upload()
	assert.Equal(t, UploadIdle, state)
	assert.Zero(t, sent)

	chat, _ := repo.GetByID(context.Background(), "c1")
	assert.Empty(t, chat.Messages)
}

func TestSendImageAppendFailureReturnsToIdle(t *testing.T) {
	log, repo, _, _ := startConversation(t, &fakeUploader{url: "https://storage.googleapis.com/b/chats/x.png"})

	// The chat vanishes between upload and append.
	assert.NoError(t, repo.Delete(context.Background(), "c1"))

	_, err := log.SendImage(context.Background(), strings.NewReader("data"), "image/png")

	assert.True(t, errors.Is(err, "NOT_FOUND"))

	state, _ := log.Upload()
	assert.Equal(t, UploadIdle, state)
}

func TestCloseClearsOnScreenMark(t *testing.T) {
	log, _, tracker, _ := startConversation(t, &fakeUploader{})

	log.Close()

	assert.Empty(t, tracker.Open())
}

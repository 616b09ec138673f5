package usecase

import (
	"context"
	"strings"
	"sync"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/errors"
	"linkup/pkg/logger"
)

// ChatSummary is one row of the chat list view.
type ChatSummary struct {
	ChatID      string `json:"chatId"`
	Name        string `json:"name"`
	Preview     string `json:"preview"`
	LastUpdated int64  `json:"lastUpdated"`
	Unread      int    `json:"unread"`
}

const missingNameFallback = "~ No Name or Email ~"

// DisplayName derives the row title: the group name, or the counterpart's
// name in a personal chat. A self-chat resolves to the viewer's own name.
func DisplayName(chat *entity.Chat, viewerEmail string) string {
	if chat.Kind() == entity.KindGroup {
		return chat.GroupName
	}
	other := chat.OtherParticipant(viewerEmail)
	if other == nil {
		return missingNameFallback
	}
	if other.Name != "" {
		return other.Name
	}
	if other.Email != "" {
		return other.Email
	}
	return missingNameFallback
}

// Preview renders the latest message for the list row: a "You: " or
// "<FirstName>: " prefix, "sent an image" for image messages, and text
// clipped to maxLen runes with a trailing ellipsis.
func Preview(chat *entity.Chat, viewerEmail string, maxLen int) string {
	latest := chat.LatestMessage()
	if latest == nil {
		return ""
	}

	var prefix string
	if latest.Author.Email == viewerEmail {
		prefix = "You: "
	} else if latest.Author.Name != "" {
		first, _, _ := strings.Cut(latest.Author.Name, " ")
		prefix = first + ": "
	}

	if latest.Image != "" {
		return prefix + "sent an image"
	}

	body := latest.Text
	if runes := []rune(body); maxLen > 0 && len(runes) > maxLen {
		body = string(runes[:maxLen]) + "..."
	}
	return prefix + body
}

// BuildSummaries maps chat documents to list rows. Chats without a single
// message stay invisible; counts supplies the per-chat unread number and may
// be nil for callers without a device-local tracker.
func BuildSummaries(chats []*entity.Chat, viewer *entity.User, previewLen int, counts func(chatID string) int) []ChatSummary {
	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		if len(chat.Messages) == 0 {
			continue
		}
		s := ChatSummary{
			ChatID:      chat.ID,
			Name:        DisplayName(chat, viewer.Email),
			Preview:     Preview(chat, viewer.Email, previewLen),
			LastUpdated: chat.LastUpdated,
		}
		if counts != nil {
			s.Unread = counts(chat.ID)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// FilterSummaries is the search box: case-insensitive substring match on the
// row title.
func FilterSummaries(summaries []ChatSummary, query string) []ChatSummary {
	if query == "" {
		return summaries
	}
	q := strings.ToLower(query)
	filtered := make([]ChatSummary, 0, len(summaries))
	for _, s := range summaries {
		if strings.Contains(strings.ToLower(s.Name), q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// ChatListSyncer keeps one device's chat list in step with the document
// store. It owns the list subscription, derives the summaries, and feeds the
// device's unread tracker. One syncer serves one signed-in device session.
type ChatListSyncer struct {
	chatRepo   repository.ChatRepository
	gate       *SessionGate
	tracker    *UnreadTracker
	previewLen int
	onUpdate   func([]ChatSummary)
	onError    func(error)

	mu        sync.Mutex
	summaries []ChatSummary
	lastSeen  map[string]int64
	err       error
	stream    repository.ChatListStream
	done      chan struct{}
	closing   bool
}

// NewChatListSyncer wires a syncer to a session. onUpdate is invoked with a
// fresh summary slice after every processed snapshot; onError once when the
// subscription is interrupted. Both may be nil.
func NewChatListSyncer(chatRepo repository.ChatRepository, gate *SessionGate, tracker *UnreadTracker, previewLen int, onUpdate func([]ChatSummary), onError func(error)) *ChatListSyncer {
	return &ChatListSyncer{
		chatRepo:   chatRepo,
		gate:       gate,
		tracker:    tracker,
		previewLen: previewLen,
		onUpdate:   onUpdate,
		onError:    onError,
		lastSeen:   make(map[string]int64),
	}
}

// Open starts the live subscription for the signed-in user and returns once
// the stream is established. Snapshot processing continues in the background
// until Close is called or the stream fails.
func (s *ChatListSyncer) Open(ctx context.Context) error {
	user := s.gate.CurrentUser()
	if user == nil {
		return errors.Unauthorized("Sign in before opening the chat list", nil)
	}

	stream, err := s.chatRepo.WatchByParticipant(ctx, user.AsParticipant())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(stream, user)
	return nil
}

func (s *ChatListSyncer) run(stream repository.ChatListStream, user *entity.User) {
	defer close(s.done)

	for {
		chats, err := stream.Next()
		if err != nil {
			// The last good list stays visible; the error is surfaced
			// separately so the view can show a banner instead of a blank.
			interrupted := errors.SubscriptionInterrupted(err)
			s.mu.Lock()
			if s.closing {
				// A deliberate Close is not an interruption.
				s.mu.Unlock()
				return
			}
			s.err = interrupted
			onError := s.onError
			s.mu.Unlock()
			logger.Warn("Chat list subscription for %s ended: %v", user.Email, err)
			if onError != nil {
				onError(interrupted)
			}
			return
		}
		s.apply(chats, user)
	}
}

func (s *ChatListSyncer) apply(chats []*entity.Chat, user *entity.User) {
	s.mu.Lock()

	seen := make(map[string]bool, len(chats))
	firstSnapshot := len(s.lastSeen) == 0 && s.summaries == nil

	for _, chat := range chats {
		seen[chat.ID] = true
		prev, known := s.lastSeen[chat.ID]
		s.lastSeen[chat.ID] = chat.LastUpdated

		// The initial snapshot replays existing history; that is not news.
		if firstSnapshot {
			continue
		}
		if known && chat.LastUpdated <= prev {
			continue
		}
		latest := chat.LatestMessage()
		if latest == nil || latest.Author.Email == user.Email {
			continue
		}
		s.tracker.Increment(chat.ID)
	}

	// Chats that vanished were deleted elsewhere; drop their unread entries.
	for chatID := range s.lastSeen {
		if !seen[chatID] {
			delete(s.lastSeen, chatID)
			s.tracker.Forget(chatID)
		}
	}

	s.summaries = BuildSummaries(chats, user, s.previewLen, s.tracker.Count)
	s.err = nil
	summaries := s.snapshotLocked()
	onUpdate := s.onUpdate
	s.mu.Unlock()

	if onUpdate != nil {
		onUpdate(summaries)
	}
}

func (s *ChatListSyncer) snapshotLocked() []ChatSummary {
	out := make([]ChatSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Summaries returns the current list, most recent activity first.
func (s *ChatListSyncer) Summaries() []ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Search filters the current list by title.
func (s *ChatListSyncer) Search(query string) []ChatSummary {
	return FilterSummaries(s.Summaries(), query)
}

// Err reports whether the subscription has been interrupted. The summaries
// remain the last successfully delivered set in that case.
func (s *ChatListSyncer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Badge is the total unread count across all chats of this device.
func (s *ChatListSyncer) Badge() int {
	return s.tracker.Badge()
}

// Close stops the subscription and waits for the processing loop to drain.
// Safe to call when Open never succeeded.
func (s *ChatListSyncer) Close() {
	s.mu.Lock()
	stream := s.stream
	done := s.done
	s.stream = nil
	s.closing = true
	s.mu.Unlock()

	if stream == nil {
		return
	}
	stream.Stop()
	<-done
}

package usecase

import (
	"encoding/json"
	"fmt"
	"sync"

	"linkup/pkg/logger"
)

// UnreadTracker owns one device's chatID → unseen-count map. The map lives in
// the local key-value store, never in the document store: unread state is a
// per-device notion and two devices of the same user legitimately disagree.
type UnreadTracker struct {
	store KeyValueStore
	key   string

	mu     sync.Mutex
	counts map[string]int
	open   string
}

// NewUnreadTracker loads the persisted map for a user/device pair. A missing
// or corrupt entry starts the device from an empty map.
func NewUnreadTracker(store KeyValueStore, userEmail, deviceID string) *UnreadTracker {
	t := &UnreadTracker{
		store:  store,
		key:    fmt.Sprintf("unread:%s:%s", userEmail, deviceID),
		counts: make(map[string]int),
	}

	raw, ok, err := store.Get(t.key)
	if err != nil {
		logger.Warn("Failed to load unread state %s: %v", t.key, err)
		return t
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &t.counts); err != nil {
			logger.Warn("Discarding corrupt unread state %s: %v", t.key, err)
			t.counts = make(map[string]int)
		}
	}

	return t
}

// Increment bumps a chat's count by one, unless that chat is the open one.
func (t *UnreadTracker) Increment(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if chatID == t.open {
		return
	}
	t.counts[chatID]++
	t.persistLocked()
}

// OpenChat marks a conversation as on-screen and zeroes its count before any
// further snapshot is processed.
func (t *UnreadTracker) OpenChat(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = chatID
	if t.counts[chatID] != 0 {
		delete(t.counts, chatID)
	}
	t.persistLocked()
}

// CloseChat marks that no conversation is on-screen.
func (t *UnreadTracker) CloseChat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = ""
}

// Open returns the chatID currently on-screen, or "".
func (t *UnreadTracker) Open() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Forget drops a deleted chat's entry.
func (t *UnreadTracker) Forget(chatID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.counts[chatID]; ok {
		delete(t.counts, chatID)
		t.persistLocked()
	}
}

func (t *UnreadTracker) Count(chatID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[chatID]
}

// Badge is the navigation badge: always the sum of all entries.
func (t *UnreadTracker) Badge() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

func (t *UnreadTracker) persistLocked() {
	raw, err := json.Marshal(t.counts)
	if err != nil {
		logger.Error("Failed to encode unread state %s: %v", t.key, err)
		return
	}
	if err := t.store.Set(t.key, string(raw)); err != nil {
		logger.Error("Failed to persist unread state %s: %v", t.key, err)
	}
}

package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"linkup/internal/domain/entity"
	"linkup/internal/domain/repository"
	"linkup/pkg/errors"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; !ok {
		return errors.NotFound("User", nil)
	}
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, email)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeChatRepo struct {
	mu     sync.Mutex
	chats  map[string]*entity.Chat
	nextID int
}

func newFakeChatRepo(chats ...*entity.Chat) *fakeChatRepo {
	r := &fakeChatRepo{chats: make(map[string]*entity.Chat)}
	for _, c := range chats {
		r.chats[c.ID] = c
	}
	return r
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID == "" {
		r.nextID++
		chat.ID = fmt.Sprintf("chat-%d", r.nextID)
	}
	copied := *chat
	r.chats[chat.ID] = &copied
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, p entity.Participant) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chat
	for _, c := range r.chats {
		if c.HasParticipant(p.Email) {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastUpdated > out[j].LastUpdated })
	return out, nil
}

func (r *fakeChatRepo) SetParticipants(ctx context.Context, chatID string, users []entity.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	c.Users = users
	return nil
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, chatID string, message entity.Message) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return 0, errors.NotFound("Chat", nil)
	}
	c.Messages = append([]entity.Message{message}, c.Messages...)
	c.LastUpdated = message.CreatedAt.UnixMilli()
	return len(c.Messages), nil
}

func (r *fakeChatRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[id]; !ok {
		return errors.NotFound("Chat", nil)
	}
	delete(r.chats, id)
	return nil
}

type listEvent struct {
	chats []*entity.Chat
	err   error
}

type fakeListStream struct {
	events chan listEvent
	done   chan struct{}
	once   sync.Once
}

func newFakeListStream() *fakeListStream {
	return &fakeListStream{
		events: make(chan listEvent, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeListStream) push(chats ...*entity.Chat) {
	s.events <- listEvent{chats: chats}
}

func (s *fakeListStream) fail(err error) {
	s.events <- listEvent{err: err}
}

func (s *fakeListStream) Next() ([]*entity.Chat, error) {
	select {
	case ev := <-s.events:
		return ev.chats, ev.err
	case <-s.done:
		return nil, errors.SubscriptionInterrupted(nil)
	}
}

func (s *fakeListStream) Stop() {
	s.once.Do(func() { close(s.done) })
}

type chatEvent struct {
	chat *entity.Chat
	err  error
}

type fakeChatStream struct {
	events chan chatEvent
	done   chan struct{}
	once   sync.Once
}

func newFakeChatStream() *fakeChatStream {
	return &fakeChatStream{
		events: make(chan chatEvent, 16),
		done:   make(chan struct{}),
	}
}

func (s *fakeChatStream) push(chat *entity.Chat) {
	s.events <- chatEvent{chat: chat}
}

func (s *fakeChatStream) Next() (*entity.Chat, error) {
	select {
	case ev := <-s.events:
		return ev.chat, ev.err
	case <-s.done:
		return nil, errors.SubscriptionInterrupted(nil)
	}
}

func (s *fakeChatStream) Stop() {
	s.once.Do(func() { close(s.done) })
}

// watchableChatRepo overlays live streams on the in-memory repo.
type watchableChatRepo struct {
	*fakeChatRepo
	listStream *fakeListStream
	chatStream *fakeChatStream
}

func (r *watchableChatRepo) WatchByParticipant(ctx context.Context, p entity.Participant) (repository.ChatListStream, error) {
	return r.listStream, nil
}

func (r *watchableChatRepo) WatchChat(ctx context.Context, chatID string) (repository.ChatStream, error) {
	return r.chatStream, nil
}

func (r *fakeChatRepo) WatchByParticipant(ctx context.Context, p entity.Participant) (repository.ChatListStream, error) {
	return nil, errors.Internal("watch not supported", nil)
}

func (r *fakeChatRepo) WatchChat(ctx context.Context, chatID string) (repository.ChatStream, error) {
	return nil, errors.Internal("watch not supported", nil)
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (kv *fakeKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *fakeKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

func (kv *fakeKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

type fakeAuthClient struct {
	mu          sync.Mutex
	uids        map[string]string
	passwords   map[string]string
	signInCalls int
	createCalls int
	deleted     []string
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{
		uids:      make(map[string]string),
		passwords: make(map[string]string),
	}
}

func (f *fakeAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, ok := f.uids[email]; ok {
		return "", errors.Conflict("Email already in use")
	}
	uid := "uid-" + email
	f.uids[email] = uid
	f.passwords[email] = password
	return uid, nil
}

func (f *fakeAuthClient) SignInWithEmailPassword(email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.passwords[email] != password || password == "" {
		return "", errors.InvalidCredentials(nil)
	}
	return "token-" + email, nil
}

func (f *fakeAuthClient) VerifyToken(ctx context.Context, token string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, uid := range f.uids {
		if token == "token-"+email {
			return uid, email, nil
		}
	}
	return "", "", errors.Unauthorized("Invalid token", nil)
}

func (f *fakeAuthClient) UpdateUserPassword(ctx context.Context, uid, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, id := range f.uids {
		if id == uid {
			f.passwords[email] = newPassword
			return nil
		}
	}
	return errors.NotFound("User", nil)
}

func (f *fakeAuthClient) DeleteUser(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	for email, id := range f.uids {
		if id == uid {
			delete(f.uids, email)
			delete(f.passwords, email)
		}
	}
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader, contentType string, progress func(written int64)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if progress != nil {
		progress(4)
	}
	return f.url, nil
}

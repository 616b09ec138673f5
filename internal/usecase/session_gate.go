package usecase

import (
	"sync"

	"linkup/internal/domain/entity"
)

// SessionGate caches the identity of one device session and tells its
// subscribers which side of the signed-in boundary the session is on. It is
// constructed per session and injected where needed; there is no ambient
// global identity.
type SessionGate struct {
	mu      sync.RWMutex
	current *entity.User
	nextID  int
	subs    map[int]func(*entity.User)
}

func NewSessionGate() *SessionGate {
	return &SessionGate{
		subs: make(map[int]func(*entity.User)),
	}
}

// CurrentUser returns the cached identity, or nil when signed out.
func (g *SessionGate) CurrentUser() *entity.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// OnChange registers a callback that fires once immediately with the current
// state and again on every sign-in or sign-out. The returned function cancels
// the subscription.
func (g *SessionGate) OnChange(cb func(*entity.User)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = cb
	current := g.current
	g.mu.Unlock()

	cb(current)

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// SignedIn transitions the gate to the authenticated side.
func (g *SessionGate) SignedIn(user *entity.User) {
	g.transition(user)
}

// SignedOut transitions the gate to the unauthenticated side.
func (g *SessionGate) SignedOut() {
	g.transition(nil)
}

func (g *SessionGate) transition(user *entity.User) {
	g.mu.Lock()
	g.current = user
	subs := make([]func(*entity.User), 0, len(g.subs))
	for _, cb := range g.subs {
		subs = append(subs, cb)
	}
	g.mu.Unlock()

	for _, cb := range subs {
		cb(user)
	}
}

// Teardown drops the cached identity and every subscriber. The gate must not
// be reused afterwards.
func (g *SessionGate) Teardown() {
	g.mu.Lock()
	g.current = nil
	g.subs = make(map[int]func(*entity.User))
	g.mu.Unlock()
}

package entity

import "linkup/pkg/errors"

// Participant is one membership entry of a chat document. Removed maps to the
// "deletedFromChat" document field: a soft-leave that hides the chat from the
// leaver without destroying it for anyone else.
type Participant struct {
	Email   string `json:"email" firestore:"email"`
	Name    string `json:"name" firestore:"name"`
	Removed bool   `json:"deletedFromChat" firestore:"deletedFromChat"`
}

// AccessStamp records when a participant last opened the chat, in Unix
// milliseconds. Zero means never.
type AccessStamp struct {
	Email string `json:"email" firestore:"email"`
	Date  int64  `json:"date" firestore:"date"`
}

// Chat is a conversation document under chats/{id}. Messages are embedded
// newest-first; LastUpdated is Unix milliseconds to stay wire-compatible with
// the deployed mobile clients.
type Chat struct {
	ID          string        `json:"id" firestore:"-"`
	Users       []Participant `json:"users" firestore:"users"`
	Messages    []Message     `json:"messages" firestore:"messages"`
	GroupName   string        `json:"groupName" firestore:"groupName"`
	GroupAdmins []string      `json:"groupAdmins,omitempty" firestore:"groupAdmins,omitempty"`
	LastUpdated int64         `json:"lastUpdated" firestore:"lastUpdated"`
	LastAccess  []AccessStamp `json:"lastAccess,omitempty" firestore:"lastAccess,omitempty"`
}

type ChatKind int

const (
	KindPersonal ChatKind = iota
	KindGroup
)

func (c *Chat) Kind() ChatKind {
	if c.GroupName != "" {
		return KindGroup
	}
	return KindPersonal
}

// Validate enforces the shape invariants once, at the document store
// boundary, so the rest of the code works on a well-formed variant.
func (c *Chat) Validate() error {
	switch c.Kind() {
	case KindPersonal:
		if len(c.Users) != 2 {
			return errors.Validation("personal chat must have exactly 2 participants")
		}
	case KindGroup:
		if len(c.Users) < 2 {
			return errors.Validation("group chat must have at least 2 participants")
		}
		if len(c.GroupAdmins) == 0 {
			return errors.Validation("group chat must have at least one admin")
		}
	}
	for _, m := range c.Messages {
		if m.Text == "" && m.Image == "" {
			return errors.Validation("message must carry text or an image")
		}
	}
	return nil
}

func (c *Chat) HasParticipant(email string) bool {
	for _, u := range c.Users {
		if u.Email == email && !u.Removed {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart entry in a personal chat. In a
// self-chat both entries carry the viewer's email and the second one wins,
// which matches how the mobile client resolves its own name.
func (c *Chat) OtherParticipant(email string) *Participant {
	if len(c.Users) != 2 {
		return nil
	}
	if c.Users[0].Email == email {
		return &c.Users[1]
	}
	return &c.Users[0]
}

// AllRemoved reports whether every participant has soft-left; only then may
// the document itself be deleted.
func (c *Chat) AllRemoved() bool {
	for _, u := range c.Users {
		if !u.Removed {
			return false
		}
	}
	return len(c.Users) > 0
}

// LatestMessage returns the newest message or nil. Messages are stored
// newest-first.
func (c *Chat) LatestMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[0]
}

// UniqueMembers dedupes participants by email, preserving order. A self-chat
// document carries two identical entries but presents a single member.
func (c *Chat) UniqueMembers() []Participant {
	seen := make(map[string]bool, len(c.Users))
	var members []Participant
	for _, u := range c.Users {
		if seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		members = append(members, u)
	}
	return members
}

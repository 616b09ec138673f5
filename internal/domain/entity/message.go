package entity

import (
	"time"

	"linkup/pkg/errors"
)

// Author identifies the sender of a message. The email is the stable identity
// key (field name "_id" in the document contract shared with mobile clients).
type Author struct {
	Email  string `json:"_id" firestore:"_id"`
	Name   string `json:"name" firestore:"name"`
	Avatar string `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

// Message is one entry of a chat's embedded message array. Messages are
// immutable once appended; they disappear only when the owning chat document
// is hard-deleted.
type Message struct {
	ID        string    `json:"_id" firestore:"_id"`
	Text      string    `json:"text" firestore:"text"`
	Image     string    `json:"image" firestore:"image"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	Author    Author    `json:"user" firestore:"user"`
	Sent      bool      `json:"sent" firestore:"sent"`
	Received  bool      `json:"received" firestore:"received"`
}

type ContentKind int

const (
	ContentText ContentKind = iota
	ContentImage
	ContentEmoji
)

// Content is the closed variant a message body is parsed into at the document
// store boundary. Exactly one branch is populated per kind.
type Content struct {
	Kind     ContentKind
	Text     string
	ImageURL string
	Emoji    string
}

// ParseContent validates the raw text/image pair of a stored or incoming
// message and classifies it. A body with neither text nor image is rejected
// before any network call is made.
func ParseContent(text, image string) (Content, error) {
	if image != "" {
		return Content{Kind: ContentImage, ImageURL: image}, nil
	}
	if text == "" {
		return Content{}, errors.Validation("message must carry text or an image")
	}
	if isEmojiOnly(text) {
		return Content{Kind: ContentEmoji, Emoji: text}, nil
	}
	return Content{Kind: ContentText, Text: text}, nil
}

func NewTextContent(text string) (Content, error) {
	return ParseContent(text, "")
}

func NewImageContent(url string) (Content, error) {
	if url == "" {
		return Content{}, errors.Validation("image url is required")
	}
	return Content{Kind: ContentImage, ImageURL: url}, nil
}

// Fields flattens the variant back into the persisted text/image pair.
func (c Content) Fields() (text, image string) {
	switch c.Kind {
	case ContentText:
		return c.Text, ""
	case ContentImage:
		return "", c.ImageURL
	case ContentEmoji:
		return c.Emoji, ""
	}
	return "", ""
}

func (c Content) IsEmpty() bool {
	text, image := c.Fields()
	return text == "" && image == ""
}

func isEmojiOnly(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, flags, symbols
		case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		case r == 0xFE0F || r == 0x200D: // variation selector, ZWJ
		default:
			return false
		}
	}
	return s != ""
}

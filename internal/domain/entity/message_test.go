package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseContentText(t *testing.T) {
	content, err := ParseContent("hello there", "")

	assert.NoError(t, err)
	assert.Equal(t, ContentText, content.Kind)
	assert.Equal(t, "hello there", content.Text)
}

func TestParseContentImageWinsOverText(t *testing.T) {
	content, err := ParseContent("caption", "https://example.com/a.png")

	assert.NoError(t, err)
	assert.Equal(t, ContentImage, content.Kind)
	assert.Equal(t, "https://example.com/a.png", content.ImageURL)
}

func TestParseContentEmojiOnly(t *testing.T) {
	content, err := ParseContent("\U0001F600\U0001F44D", "")

	assert.NoError(t, err)
	assert.Equal(t, ContentEmoji, content.Kind)
}

func TestParseContentEmojiMixedWithTextIsText(t *testing.T) {
	content, err := ParseContent("nice \U0001F600", "")

	assert.NoError(t, err)
	assert.Equal(t, ContentText, content.Kind)
}

func TestParseContentEmptyRejected(t *testing.T) {
	_, err := ParseContent("", "")

	assert.Error(t, err)
}

func TestContentFieldsRoundTrip(t *testing.T) {
	text, image := Content{Kind: ContentText, Text: "hi"}.Fields()
	assert.Equal(t, "hi", text)
	assert.Empty(t, image)

	text, image = Content{Kind: ContentImage, ImageURL: "u"}.Fields()
	assert.Empty(t, text)
	assert.Equal(t, "u", image)

	text, image = Content{Kind: ContentEmoji, Emoji: "\U0001F600"}.Fields()
	assert.Equal(t, "\U0001F600", text)
	assert.Empty(t, image)
}

func TestNewImageContentRequiresURL(t *testing.T) {
	_, err := NewImageContent("")

	assert.Error(t, err)
}

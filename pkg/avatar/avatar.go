// Package avatar derives a stable identicon URL for a chat participant.
//
// Devices showed flickering avatars when the derivation lived in each screen,
// so the seed and color choice are centralized here: the same name/email pair
// always maps to the same image URL, with no stored binary behind it.
package avatar

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultSize = 96

var palette = []string{
	"FF6B6B", "4ECDC4", "45B7D1", "96CEB4",
	"FECA57", "FF9FF3", "54A0FF", "5F27CD",
}

// Seed returns the identicon seed for a participant: the trimmed lowercase
// display name, falling back to the email, falling back to "user".
func Seed(name, email string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.TrimSpace(email)
	}
	if base == "" {
		base = "user"
	}
	return strings.ToLower(base)
}

// BackgroundColor picks a palette entry from a stable string hash of the
// participant identity.
func BackgroundColor(name, email string) string {
	str := strings.ToLower(name)
	if str == "" {
		str = strings.ToLower(email)
	}

	var hash int32
	for _, r := range str {
		hash = int32(r) + ((hash << 5) - hash)
	}
	idx := int64(hash)
	if idx < 0 {
		idx = -idx
	}
	return palette[idx%int64(len(palette))]
}

// URL returns the content-derived avatar URL used when a message author has
// no explicit avatar stored.
func URL(name, email string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	return fmt.Sprintf(
		"https://api.dicebear.com/8.x/initials/png?seed=%s&radius=50&size=%d&backgroundColor=%s&textColor=ffffff",
		url.QueryEscape(Seed(name, email)), size, BackgroundColor(name, email),
	)
}

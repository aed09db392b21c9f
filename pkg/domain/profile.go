package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UserProfile is the authenticated user as returned by /usuarios/me.
type UserProfile struct {
	DisplayName string `json:"nome"`
	Email       string `json:"email"`
	AvatarURL   string `json:"foto,omitempty"`
}

// FirstName returns the first word of the display name.
func (p UserProfile) FirstName() string {
	fields := strings.Fields(p.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initial returns the upper-cased first rune of the display name, falling
// back to the email. Used as the avatar placeholder.
func (p UserProfile) Initial() string {
	src := strings.TrimSpace(p.DisplayName)
	if src == "" {
		src = strings.TrimSpace(p.Email)
	}
	r, _ := utf8.DecodeRuneInString(src)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

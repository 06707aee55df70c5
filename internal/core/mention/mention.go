// Package mention parses platform mention markup and reaction tokens.
// Everything here is pure string handling.
package mention

import (
	"regexp"
	"strings"
)

var (
	channelRe = regexp.MustCompile(`<#(\d+)>`)
	roleRe    = regexp.MustCompile(`<@&(\d+)>`)
	emojiRe   = regexp.MustCompile(`^<(a?):([A-Za-z0-9_~]+):(\d+)>$`)
	plainIDRe = regexp.MustCompile(`^(a:)?([A-Za-z0-9_~]+):(\d+)$`)
)

// FirstChannel returns the ID of the first channel mention in text.
func FirstChannel(text string) (string, bool) {
	return first(channelRe, text)
}

// FirstRole returns the ID of the first role mention in text.
func FirstRole(text string) (string, bool) {
	return first(roleRe, text)
}

func first(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Channel renders a channel mention.
func Channel(id string) string { return "<#" + id + ">" }

// Role renders a role mention.
func Role(id string) string { return "<@&" + id + ">" }

// NormalizeReaction reduces a reaction as typed by a user to its stored token.
// Custom emoji become name:id, animated ones a:name:id; anything else is
// returned trimmed.
func NormalizeReaction(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := emojiRe.FindStringSubmatch(raw); m != nil {
		token := m[2] + ":" + m[3]
		if m[1] != "" {
			token = "a:" + token
		}
		return token
	}
	return raw
}

// IsCustomEmoji reports whether a normalized token names a custom emoji.
func IsCustomEmoji(token string) bool {
	return plainIDRe.MatchString(token)
}

// IsAnimated reports whether a token names an animated custom emoji.
func IsAnimated(token string) bool {
	m := plainIDRe.FindStringSubmatch(token)
	return m != nil && m[1] != ""
}

// ReactionForms returns the token followed by its other animation variant.
// A custom emoji is identified by its ID, so both forms name the same
// reaction; unicode emoji have a single form.
func ReactionForms(token string) []string {
	m := plainIDRe.FindStringSubmatch(token)
	if m == nil {
		return []string{token}
	}
	static := m[2] + ":" + m[3]
	if m[1] != "" {
		return []string{token, static}
	}
	return []string{token, "a:" + static}
}

// DisplayReaction renders a stored token the way the platform displays it.
func DisplayReaction(token string) string {
	switch {
	case IsAnimated(token):
		return "<" + token + ">"
	case IsCustomEmoji(token):
		return "<:" + token + ">"
	default:
		return token
	}
}

package mention

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFirstChannel(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID string
		wantOK bool
	}{
		{"single mention", "<#123>", "123", true},
		{"mention in sentence", "send it to <#42> please", "42", true},
		{"first of two", "<#1> <#2>", "1", true},
		{"role mention is not a channel", "<@&55>", "", false},
		{"plain text", "#general", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := FirstChannel(tt.text)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("FirstChannel(%q) = (%q, %v), want (%q, %v)", tt.text, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestFirstRole(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		wantID string
		wantOK bool
	}{
		{"role mention", "👍 <@&777>", "777", true},
		{"user mention is not a role", "<@777>", "", false},
		{"channel mention is not a role", "<#777>", "", false},
		{"missing", "👍", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := FirstRole(tt.text)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("FirstRole(%q) = (%q, %v), want (%q, %v)", tt.text, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestNormalizeReaction(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"👍", "👍"},
		{"  🎉 ", "🎉"},
		{"<:party:123456>", "party:123456"},
		{"<a:dance:987>", "a:dance:987"},
		{"a:dance:987", "a:dance:987"},
		{"party:123456", "party:123456"},
		{"<:broken>", "<:broken>"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeReaction(tt.raw); got != tt.want {
				t.Errorf("NormalizeReaction(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDisplayReaction(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"party:1", "<:party:1>"},
		{"a:dance:987", "<a:dance:987>"},
		{"a:123", "<:a:123>"},
		{"👍", "👍"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := DisplayReaction(tt.token); got != tt.want {
				t.Errorf("DisplayReaction(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestDisplayReaction_KeepsAnimationOfTypedEmoji(t *testing.T) {
	for _, raw := range []string{"<a:dance:987>", "<:party:123456>"} {
		if got := DisplayReaction(NormalizeReaction(raw)); got != raw {
			t.Errorf("DisplayReaction(NormalizeReaction(%q)) = %q", raw, got)
		}
	}
}

func TestReactionForms(t *testing.T) {
	tests := []struct {
		token string
		want  []string
	}{
		{"party:1", []string{"party:1", "a:party:1"}},
		{"a:dance:987", []string{"a:dance:987", "dance:987"}},
		{"👍", []string{"👍"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ReactionForms(tt.token)); diff != "" {
				t.Errorf("ReactionForms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

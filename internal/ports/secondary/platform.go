package secondary

import (
	"context"
	"fmt"
)

// Outcome classifies the result of a platform call.
type Outcome int

const (
	// OutcomeOK means the call succeeded.
	OutcomeOK Outcome = iota
	// OutcomeNotFound means the target object is confirmed absent.
	OutcomeNotFound
	// OutcomeForbidden means the bot lacks access; the object may still exist.
	OutcomeForbidden
	// OutcomeInvalid means the platform rejected the input (e.g. an unknown emoji).
	OutcomeInvalid
	// OutcomeTransient covers rate limits, outages and anything unclassified.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeTransient:
		return "transient"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged result every platform call returns.
// Err carries the underlying cause for logging when Outcome is not OK.
type Result struct {
	Outcome Outcome
	Err     error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

// Ok is the successful Result.
var Ok = Result{Outcome: OutcomeOK}

// Failed builds a non-OK Result.
func Failed(outcome Outcome, err error) Result {
	return Result{Outcome: outcome, Err: err}
}

// Embed is a rich message block.
type Embed struct {
	Title       string
	Description string
	Colour      int
	FooterText  string
	FooterIcon  string
}

// OutboundMessage is the content of a sent or edited message.
// A nil Embed means the message carries no embed (edits remove an existing one).
type OutboundMessage struct {
	Content string
	Embed   *Embed
}

// ChannelInfo describes a fetched channel and the bot's access to it.
type ChannelInfo struct {
	ID      string
	GuildID string
	Name    string
	CanView bool
	CanSend bool
}

// MessageInfo describes a fetched message.
type MessageInfo struct {
	ID         string
	ChannelID  string
	Content    string
	EmbedTitle string
}

// GuildInfo describes a fetched guild.
type GuildInfo struct {
	ID   string
	Name string
}

// UserInfo describes a fetched user.
type UserInfo struct {
	ID       string
	Username string
	Bot      bool
}

// Platform is the command interface of the chat platform.
type Platform interface {
	// SelfID returns the bot's own user ID.
	SelfID() string

	SendMessage(ctx context.Context, channelID string, msg OutboundMessage) (string, Result)
	EditMessage(ctx context.Context, channelID, messageID string, msg OutboundMessage) Result
	FetchMessage(ctx context.Context, channelID, messageID string) (*MessageInfo, Result)

	// AddReaction adds the bot's reaction to a message; OutcomeInvalid when
	// the platform rejects the reaction symbol.
	AddReaction(ctx context.Context, channelID, messageID, reaction string) Result
	// RemoveReactionType clears every reaction of one type from a message.
	RemoveReactionType(ctx context.Context, channelID, messageID, reaction string) Result
	// RemoveUserReaction removes one user's reaction from a message.
	RemoveUserReaction(ctx context.Context, channelID, messageID, reaction, userID string) Result

	AssignRole(ctx context.Context, guildID, userID, roleID string) Result
	RevokeRole(ctx context.Context, guildID, userID, roleID string) Result

	FetchChannel(ctx context.Context, channelID string) (*ChannelInfo, Result)
	FetchGuild(ctx context.Context, guildID string) (*GuildInfo, Result)
	FetchUser(ctx context.Context, userID string) (*UserInfo, Result)

	// MemberIsAdministrator reports whether a member holds the server
	// administrator permission in a channel.
	MemberIsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, Result)
}

// MessageEvent is an inbound message-received event.
type MessageEvent struct {
	GuildID       string
	ChannelID     string
	MessageID     string
	AuthorID      string
	AuthorRoleIDs []string
	AuthorIsBot   bool
	Content       string
}

// ReactionEvent is an inbound reaction-added or reaction-removed event.
// Reaction is normalised: unicode emoji verbatim, custom emoji as name:id.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Reaction  string
}

// GuildRemovedEvent is emitted when the bot leaves or is removed from a guild.
type GuildRemovedEvent struct {
	GuildID string
}

// Event is one inbound platform event. Exactly one field is set.
type Event struct {
	Message         *MessageEvent
	ReactionAdded   *ReactionEvent
	ReactionRemoved *ReactionEvent
	GuildRemoved    *GuildRemovedEvent
}

// EventSource is the inbound side of the platform connection.
type EventSource interface {
	// Open connects to the platform and starts delivering events.
	Open(ctx context.Context) error

	// Events delivers inbound events in arrival order.
	Events() <-chan Event

	// Close disconnects and stops event delivery.
	Close() error
}

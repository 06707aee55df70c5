// Package discord contains the Discord implementation of the platform ports.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/ports/secondary"
)

const eventBuffer = 256

// Platform implements secondary.Platform and secondary.EventSource on a
// discordgo session.
type Platform struct {
	session *discordgo.Session
	logger  zerolog.Logger

	events    chan secondary.Event
	done      chan struct{}
	closeOnce sync.Once

	// self caches the bot's user ID when it was resolved over REST.
	selfMu sync.Mutex
	self   string
}

// NewPlatform creates a platform adapter for a bot token. The connection is
// opened by Open.
func NewPlatform(token string, logger zerolog.Logger) (*Platform, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent
	session.StateEnabled = true

	p := &Platform{
		session: session,
		logger:  logger,
		events:  make(chan secondary.Event, eventBuffer),
		done:    make(chan struct{}),
	}
	discordgo.Logger = p.logLibrary

	session.AddHandler(p.onMessageCreate)
	session.AddHandler(p.onReactionAdd)
	session.AddHandler(p.onReactionRemove)
	session.AddHandler(p.onGuildDelete)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		p.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("connected to discord")
	})
	return p, nil
}

// Open connects the gateway.
func (p *Platform) Open(ctx context.Context) error {
	if err := p.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Events delivers inbound events in arrival order.
func (p *Platform) Events() <-chan secondary.Event {
	return p.events
}

// Close disconnects the gateway. Handlers still running drop their events.
func (p *Platform) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.session.Close()
	})
	return err
}

func (p *Platform) push(ev secondary.Event) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

func (p *Platform) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if ev := messageEvent(m); ev != nil {
		p.push(secondary.Event{Message: ev})
	}
}

func (p *Platform) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if ev := reactionEvent(r.MessageReaction); ev != nil {
		p.push(secondary.Event{ReactionAdded: ev})
	}
}

func (p *Platform) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if ev := reactionEvent(r.MessageReaction); ev != nil {
		p.push(secondary.Event{ReactionRemoved: ev})
	}
}

func (p *Platform) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if ev := guildRemovedEvent(g); ev != nil {
		p.push(secondary.Event{GuildRemoved: ev})
	}
}

// logLibrary routes discordgo's own log output through zerolog.
func (p *Platform) logLibrary(msgL, caller int, format string, a ...interface{}) {
	var event *zerolog.Event
	switch msgL {
	case discordgo.LogError:
		event = p.logger.Error()
	case discordgo.LogWarning:
		event = p.logger.Warn()
	case discordgo.LogInformational:
		event = p.logger.Info()
	default:
		event = p.logger.Debug()
	}
	event.Str("component", "discordgo").Msgf(format, a...)
}

// SelfID returns the bot's own user ID. It is "" until either the gateway
// is ready or a REST lookup resolved it.
func (p *Platform) SelfID() string {
	if p.session.State != nil && p.session.State.User != nil {
		return p.session.State.User.ID
	}
	p.selfMu.Lock()
	defer p.selfMu.Unlock()
	return p.self
}

// resolveSelf returns the bot's own user ID, asking the API when the gateway
// has not delivered it.
func (p *Platform) resolveSelf(ctx context.Context) (string, error) {
	if id := p.SelfID(); id != "" {
		return id, nil
	}

	u, err := p.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	if u == nil || u.ID == "" {
		return "", errors.New("failed to fetch bot user: empty id")
	}

	p.selfMu.Lock()
	p.self = u.ID
	p.selfMu.Unlock()
	return u.ID, nil
}

// SendMessage posts a message and returns its ID.
func (p *Platform) SendMessage(ctx context.Context, channelID string, msg secondary.OutboundMessage) (string, secondary.Result) {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}

	sent, err := p.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return sent.ID, secondary.Ok
}

// EditMessage replaces a message's content and embed. A nil embed removes
// any existing one.
func (p *Platform) EditMessage(ctx context.Context, channelID, messageID string, msg secondary.OutboundMessage) secondary.Result {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(msg.Content)
	if msg.Embed != nil {
		edit.SetEmbeds([]*discordgo.MessageEmbed{toEmbed(msg.Embed)})
	} else {
		edit.SetEmbeds([]*discordgo.MessageEmbed{})
	}

	_, err := p.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return classify(err)
}

// FetchMessage retrieves a message.
func (p *Platform) FetchMessage(ctx context.Context, channelID, messageID string) (*secondary.MessageInfo, secondary.Result) {
	m, err := p.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}

	info := &secondary.MessageInfo{ID: m.ID, ChannelID: m.ChannelID, Content: m.Content}
	if len(m.Embeds) > 0 && m.Embeds[0] != nil {
		info.EmbedTitle = m.Embeds[0].Title
	}
	return info, secondary.Ok
}

// AddReaction adds the bot's reaction; reaction is a stored token.
func (p *Platform) AddReaction(ctx context.Context, channelID, messageID, reaction string) secondary.Result {
	return classify(p.session.MessageReactionAdd(channelID, messageID, apiReaction(reaction), discordgo.WithContext(ctx)))
}

// RemoveReactionType clears every reaction of one type from a message.
func (p *Platform) RemoveReactionType(ctx context.Context, channelID, messageID, reaction string) secondary.Result {
	return classify(p.session.MessageReactionsRemoveEmoji(channelID, messageID, apiReaction(reaction), discordgo.WithContext(ctx)))
}

// RemoveUserReaction removes one user's reaction from a message.
func (p *Platform) RemoveUserReaction(ctx context.Context, channelID, messageID, reaction, userID string) secondary.Result {
	return classify(p.session.MessageReactionRemove(channelID, messageID, apiReaction(reaction), userID, discordgo.WithContext(ctx)))
}

// AssignRole adds a role to a guild member.
func (p *Platform) AssignRole(ctx context.Context, guildID, userID, roleID string) secondary.Result {
	return classify(p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// RevokeRole removes a role from a guild member.
func (p *Platform) RevokeRole(ctx context.Context, guildID, userID, roleID string) secondary.Result {
	return classify(p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// FetchChannel retrieves a channel and the bot's view/send permissions in it.
// Only the channel lookup decides NotFound; a failed permission lookup is
// reported as an unreadable channel when access was denied, else transient.
func (p *Platform) FetchChannel(ctx context.Context, channelID string) (*secondary.ChannelInfo, secondary.Result) {
	ch, err := p.session.State.Channel(channelID)
	if err != nil {
		if ch, err = p.session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
			return nil, classify(err)
		}
	}

	info := &secondary.ChannelInfo{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}
	selfID, err := p.resolveSelf(ctx)
	if err != nil {
		return nil, secondary.Failed(secondary.OutcomeTransient, err)
	}

	perms, err := p.session.UserChannelPermissions(selfID, ch.ID, discordgo.WithContext(ctx))
	if err != nil {
		if classify(err).Outcome == secondary.OutcomeForbidden {
			return info, secondary.Ok
		}
		return nil, secondary.Failed(secondary.OutcomeTransient,
			fmt.Errorf("failed to compute permissions in channel %s: %w", ch.ID, err))
	}
	info.CanView = perms&discordgo.PermissionViewChannel != 0
	info.CanSend = perms&discordgo.PermissionSendMessages != 0
	return info, secondary.Ok
}

// FetchGuild retrieves a guild.
func (p *Platform) FetchGuild(ctx context.Context, guildID string) (*secondary.GuildInfo, secondary.Result) {
	g, err := p.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return &secondary.GuildInfo{ID: g.ID, Name: g.Name}, secondary.Ok
}

// FetchUser retrieves a user.
func (p *Platform) FetchUser(ctx context.Context, userID string) (*secondary.UserInfo, secondary.Result) {
	u, err := p.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return &secondary.UserInfo{ID: u.ID, Username: u.Username, Bot: u.Bot}, secondary.Ok
}

// MemberIsAdministrator reports whether a member holds the administrator
// permission in a channel.
func (p *Platform) MemberIsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, secondary.Result) {
	perms, err := p.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return false, classify(err)
	}
	return perms&discordgo.PermissionAdministrator != 0, secondary.Ok
}

func toEmbed(e *secondary.Embed) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Colour,
	}
	if e.FooterText != "" || e.FooterIcon != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.FooterText, IconURL: e.FooterIcon}
	}
	return embed
}

// Ensure Platform implements the interfaces.
var (
	_ secondary.Platform    = (*Platform)(nil)
	_ secondary.EventSource = (*Platform)(nil)
)

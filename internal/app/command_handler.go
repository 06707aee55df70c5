package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/core/mention"
	"github.com/example/rolesmith/internal/core/selector"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
	"github.com/example/rolesmith/internal/version"
)

const (
	notAdminReply  = "You do not have an admin role."
	notOwnerReply  = "Only the bot owner may execute this command."
	notServerAdmin = "You need the server `Administrator` permission to use this command."
	badRoleReply   = "Please mention a valid @Role or role ID."
	noSelectors    = "There are no reaction-role messages in that channel."
)

// CommandHandler executes prefixed operator commands.
type CommandHandler struct {
	creation  primary.CreationService
	registry  primary.RegistryService
	selectors primary.SelectorService
	platform  secondary.Platform
	settings  BotSettings
	logger    zerolog.Logger
}

// NewCommandHandler creates a new CommandHandler with injected dependencies.
func NewCommandHandler(
	creation primary.CreationService,
	registry primary.RegistryService,
	selectors primary.SelectorService,
	platform secondary.Platform,
	settings BotSettings,
	logger zerolog.Logger,
) *CommandHandler {
	return &CommandHandler{
		creation:  creation,
		registry:  registry,
		selectors: selectors,
		platform:  platform,
		settings:  settings,
		logger:    logger,
	}
}

// command is one parsed invocation: the lowercased name and everything after it.
type command struct {
	name string
	args string
	msg  secondary.MessageEvent
}

// ParseCommand splits a prefixed message into a command. ok is false when the
// message does not start with prefix or names no command.
func ParseCommand(prefix, content string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return "", "", false
	}
	name, args, _ = strings.Cut(rest, " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Handle runs the command in msg. handled is false for messages that are not
// commands, which lets the caller hand them to the creation wizard.
func (h *CommandHandler) Handle(ctx context.Context, msg secondary.MessageEvent) (bool, error) {
	name, args, ok := ParseCommand(h.settings.Prefix(), msg.Content)
	if !ok {
		return false, nil
	}

	cmd := command{name: name, args: args, msg: msg}
	h.logger.Debug().
		Str("command", name).
		Str("operator", msg.AuthorID).
		Str("channel", msg.ChannelID).
		Msg("command received")

	switch name {
	case "new":
		_, err := h.creation.BeginCreation(ctx, primary.BeginRequest{
			OperatorID:    msg.AuthorID,
			ChannelID:     msg.ChannelID,
			GuildID:       msg.GuildID,
			MemberRoleIDs: msg.AuthorRoleIDs,
		})
		return true, err
	case "abort":
		return true, h.adminOnly(ctx, cmd, h.abort)
	case "edit":
		return true, h.adminOnly(ctx, cmd, h.edit)
	case "reaction":
		return true, h.adminOnly(ctx, cmd, h.reaction)
	case "systemchannel":
		return true, h.adminOnly(ctx, cmd, h.systemChannel)
	case "help":
		return true, h.adminOnly(ctx, cmd, h.help)
	case "version":
		return true, h.adminOnly(ctx, cmd, h.version)
	case "colour", "color":
		return true, h.ownerOnly(ctx, cmd, h.colour)
	case "admin":
		return true, h.serverAdminOnly(ctx, cmd, h.addAdmin)
	case "rm-admin":
		return true, h.serverAdminOnly(ctx, cmd, h.removeAdmin)
	case "adminlist":
		return true, h.serverAdminOnly(ctx, cmd, h.listAdmins)
	default:
		// Unknown commands are not wizard input either.
		return true, nil
	}
}

type commandFunc func(ctx context.Context, cmd command) error

func (h *CommandHandler) adminOnly(ctx context.Context, cmd command, fn commandFunc) error {
	isAdmin, err := h.registry.IsAdmin(ctx, cmd.msg.GuildID, cmd.msg.AuthorRoleIDs)
	if err != nil {
		return err
	}
	if !isAdmin {
		h.reply(ctx, cmd.msg.ChannelID, notAdminReply)
		return nil
	}
	return fn(ctx, cmd)
}

func (h *CommandHandler) ownerOnly(ctx context.Context, cmd command, fn commandFunc) error {
	if owner := h.settings.OwnerID(); owner == "" || owner != cmd.msg.AuthorID {
		h.reply(ctx, cmd.msg.ChannelID, notOwnerReply)
		return nil
	}
	return fn(ctx, cmd)
}

func (h *CommandHandler) serverAdminOnly(ctx context.Context, cmd command, fn commandFunc) error {
	isAdmin, res := h.platform.MemberIsAdministrator(ctx, cmd.msg.GuildID, cmd.msg.ChannelID, cmd.msg.AuthorID)
	if !res.OK() {
		h.logger.Warn().Str("operator", cmd.msg.AuthorID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to check administrator permission")
	}
	if !isAdmin {
		h.reply(ctx, cmd.msg.ChannelID, notServerAdmin)
		return nil
	}
	return fn(ctx, cmd)
}

func (h *CommandHandler) abort(ctx context.Context, cmd command) error {
	_, err := h.creation.AbortCreation(ctx, cmd.msg.AuthorID, cmd.msg.ChannelID)
	return err
}

// edit handles `edit #channel` (listing) and
// `edit #channel /// N /// body /// title /// description`.
func (h *CommandHandler) edit(ctx context.Context, cmd command) error {
	prefix := h.settings.Prefix()
	reply := func(text string) { h.reply(ctx, cmd.msg.ChannelID, text) }

	if cmd.args == "" {
		reply(fmt.Sprintf("**Type** `%sedit #channelname` to get started. Replace"+
			" `#channelname` with the channel where the reaction-role message you"+
			" wish to edit is located.", prefix))
		return nil
	}

	fields := selector.SplitFields(cmd.args)
	channelID, ok := mention.FirstChannel(fields[0])
	if !ok {
		reply("You need to mention a channel.")
		return nil
	}

	if len(fields) < 3 {
		lines, err := h.selectors.ListMessages(ctx, channelID)
		if err != nil {
			return err
		}
		usage := fmt.Sprintf("```\n%sedit %s %s MESSAGE_NUMBER %s New Message %s New Embed Title (Optional)"+
			" %s New Embed Description (Optional)\n```", prefix, mention.Channel(channelID),
			selector.FieldSeparator, selector.FieldSeparator, selector.FieldSeparator, selector.FieldSeparator)
		h.replyListing(ctx, cmd.msg.ChannelID, lines, usage+"\nYou can type `none` in any of the argument"+
			" fields above (e.g. `New Message`) to make the bot ignore it.")
		return nil
	}

	result, err := h.selectors.Edit(ctx, primary.EditRequest{
		ChannelID: channelID,
		Number:    fields[1],
		Fields:    fields[2:],
	})
	if err != nil {
		return err
	}

	switch result {
	case primary.EditDone:
		reply("Message edited.")
	case primary.EditNoSuchSelector:
		return h.noSuchSelector(ctx, cmd.msg.ChannelID, channelID, fields[1])
	case primary.EditEmpty:
		reply(selector.CanPublish(selector.Body{}).Reason)
	case primary.EditForbidden:
		reply("I do not have permissions to edit the message.")
	case primary.EditFailed:
		reply("I could not edit the message right now. Try again in a moment.")
	}
	return nil
}

// reaction handles `reaction add #channel N <reaction> @role` and
// `reaction remove #channel N <reaction>`.
func (h *CommandHandler) reaction(ctx context.Context, cmd command) error {
	prefix := h.settings.Prefix()
	reply := func(text string) { h.reply(ctx, cmd.msg.ChannelID, text) }
	parts := strings.Fields(cmd.args)

	if len(parts) < 4 {
		channelID, ok := mention.FirstChannel(cmd.args)
		if !ok {
			reply(fmt.Sprintf("To get started, type:\n```\n%sreaction add #channelname\n```or\n"+
				"```\n%sreaction remove #channelname\n```", prefix, prefix))
			return nil
		}

		lines, err := h.selectors.ListMessages(ctx, channelID)
		if err != nil {
			return err
		}
		usage := fmt.Sprintf("```\n%sreaction add %s MESSAGE_NUMBER :reaction: @rolename\n```or\n"+
			"```\n%sreaction remove %s MESSAGE_NUMBER :reaction:\n```",
			prefix, mention.Channel(channelID), prefix, mention.Channel(channelID))
		h.replyListing(ctx, cmd.msg.ChannelID, lines, usage)
		return nil
	}

	action := strings.ToLower(parts[0])
	channelID, ok := mention.FirstChannel(parts[1])
	if !ok {
		reply("You need to mention a channel.")
		return nil
	}
	number := parts[2]
	reaction := mention.NormalizeReaction(parts[3])

	var (
		result primary.ChangeResult
		err    error
	)
	switch action {
	case "add":
		roleID, ok := mention.FirstRole(strings.Join(parts[4:], " "))
		if !ok {
			reply("You need to mention a role to attach to the reaction.")
			return nil
		}
		result, err = h.selectors.AddBinding(ctx, primary.AddBindingRequest{
			ChannelID: channelID,
			Number:    number,
			Reaction:  reaction,
			RoleID:    roleID,
		})
	case "remove":
		result, err = h.selectors.RemoveBinding(ctx, primary.RemoveBindingRequest{
			ChannelID: channelID,
			Number:    number,
			Reaction:  reaction,
		})
	default:
		reply(fmt.Sprintf("Use `%sreaction add` or `%sreaction remove`.", prefix, prefix))
		return nil
	}
	if err != nil {
		return err
	}

	switch result {
	case primary.ChangeDone:
		if action == "add" {
			reply("Reaction added.")
		} else {
			reply("Reaction removed.")
		}
	case primary.ChangeNoSuchSelector:
		return h.noSuchSelector(ctx, cmd.msg.ChannelID, channelID, number)
	case primary.ChangeInvalidReaction:
		if action == "add" {
			reply("You can only use reactions uploaded to servers the bot has access" +
				" to or standard emojis.")
		} else {
			reply("Invalid reaction.")
		}
	case primary.ChangeDuplicate:
		reply("That message already has a reaction-role combination with that reaction.")
	case primary.ChangeAbsent:
		reply("That message has no reaction-role combination with that reaction.")
	case primary.ChangeForbidden:
		reply("I do not have permissions to edit the message.")
	case primary.ChangeFailed:
		reply("I could not update the message right now. Try again in a moment.")
	}
	return nil
}

// systemChannel handles `systemchannel main|server #channel`.
func (h *CommandHandler) systemChannel(ctx context.Context, cmd command) error {
	parts := strings.Fields(cmd.args)
	channelID, hasChannel := mention.FirstChannel(cmd.args)
	if len(parts) < 2 || !hasChannel || (strings.ToLower(parts[0]) != "main" && strings.ToLower(parts[0]) != "server") {
		h.reply(ctx, cmd.msg.ChannelID, fmt.Sprintf("Define if you are setting up a server or main system"+
			" channel and mention the target channel.\n```\n%ssystemchannel <main/server> #channelname\n```",
			h.settings.Prefix()))
		return nil
	}

	info, res := h.platform.FetchChannel(ctx, channelID)
	if !res.OK() || !info.CanView || !info.CanSend {
		h.reply(ctx, cmd.msg.ChannelID, "I cannot read or send messages in that channel.")
		return nil
	}

	if strings.ToLower(parts[0]) == "main" {
		if err := h.settings.SetSystemChannel(ctx, channelID); err != nil {
			return primary.NewStoreError("set main system channel", err)
		}
	} else if err := h.registry.SetSystemChannel(ctx, cmd.msg.GuildID, channelID); err != nil {
		return err
	}

	h.reply(ctx, cmd.msg.ChannelID, "System channel updated.")
	return nil
}

// colour handles `colour 0xRRGGBB`.
func (h *CommandHandler) colour(ctx context.Context, cmd command) error {
	prefix := h.settings.Prefix()
	if cmd.args == "" {
		h.reply(ctx, cmd.msg.ChannelID, fmt.Sprintf("Please provide a hexadecimal value. Example: `%scolour 0xffff00`", prefix))
		return nil
	}

	colour, err := h.settings.SetColour(ctx, strings.Fields(cmd.args)[0])
	if err != nil {
		h.logger.Debug().Err(err).Msg("colour rejected")
		h.reply(ctx, cmd.msg.ChannelID, fmt.Sprintf("Please provide a valid hexadecimal value. Example: `%scolour 0xffff00`", prefix))
		return nil
	}

	h.send(ctx, cmd.msg.ChannelID, secondary.OutboundMessage{
		Content: "Colour changed.",
		Embed: &secondary.Embed{
			Title:       "Example embed",
			Description: "This embed has a new colour!",
			Colour:      colour,
		},
	})
	return nil
}

func (h *CommandHandler) addAdmin(ctx context.Context, cmd command) error {
	roleID, ok := parseRole(cmd.args)
	if !ok {
		h.reply(ctx, cmd.msg.ChannelID, badRoleReply)
		return nil
	}
	if _, err := h.registry.AddAdmin(ctx, cmd.msg.GuildID, roleID); err != nil {
		return err
	}
	h.reply(ctx, cmd.msg.ChannelID, "Added the role to my admin list.")
	return nil
}

func (h *CommandHandler) removeAdmin(ctx context.Context, cmd command) error {
	roleID, ok := parseRole(cmd.args)
	if !ok {
		h.reply(ctx, cmd.msg.ChannelID, badRoleReply)
		return nil
	}
	if _, err := h.registry.RemoveAdmin(ctx, cmd.msg.GuildID, roleID); err != nil {
		return err
	}
	h.reply(ctx, cmd.msg.ChannelID, "Removed the role from my admin list.")
	return nil
}

func (h *CommandHandler) listAdmins(ctx context.Context, cmd command) error {
	roles, err := h.registry.ListAdmins(ctx, cmd.msg.GuildID)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		h.reply(ctx, cmd.msg.ChannelID, "There are no bot admins registered in this server.")
		return nil
	}

	mentions := make([]string, len(roles))
	for i, r := range roles {
		mentions[i] = mention.Role(r)
	}
	h.reply(ctx, cmd.msg.ChannelID, "The bot admins on this server are:\n- "+strings.Join(mentions, "\n- "))
	return nil
}

func (h *CommandHandler) help(ctx context.Context, cmd command) error {
	p := h.settings.Prefix()
	name := h.settings.Name()
	h.reply(ctx, cmd.msg.ChannelID, "**Reaction Role Messages**\n"+
		fmt.Sprintf("- `%snew` starts the creation process for a new reaction role message.\n", p)+
		fmt.Sprintf("- `%sabort` aborts the creation process for a new reaction role message"+
			" started by the command user in that channel.\n", p)+
		fmt.Sprintf("- `%sedit` edits the text and embed of an existing reaction role message.\n", p)+
		fmt.Sprintf("- `%sreaction` adds or removes a reaction from an existing reaction role message.\n", p)+
		fmt.Sprintf("- `%scolour` changes the colour of the embeds of new and newly edited"+
			" reaction role messages.\n", p)+
		"**Admins**\n"+
		fmt.Sprintf("- `%sadmin` adds the mentioned role to the list of %s admins, allowing them to"+
			" create and edit reaction-role messages. You need to be a server administrator to use"+
			" this command.\n", p, name)+
		fmt.Sprintf("- `%srm-admin` removes the mentioned role from the list of %s admins. You need"+
			" to be a server administrator to use this command.\n", p, name)+
		fmt.Sprintf("- `%sadminlist` lists the admin roles of this server. You need to be a server"+
			" administrator to use this command.\n", p)+
		"**System**\n"+
		fmt.Sprintf("- `%ssystemchannel` updates the main or server system channel where the bot"+
			" sends errors and notifications.\n", p)+
		fmt.Sprintf("- `%sversion` reports the bot's current version.", p))
	return nil
}

func (h *CommandHandler) version(ctx context.Context, cmd command) error {
	h.reply(ctx, cmd.msg.ChannelID, fmt.Sprintf("I am currently running %s.", version.String()))
	return nil
}

// noSuchSelector explains why a selector number did not resolve.
func (h *CommandHandler) noSuchSelector(ctx context.Context, replyChannel, channelID, number string) error {
	ids, err := h.registry.MessagesIn(ctx, channelID)
	if err != nil {
		return err
	}
	_, guard := selector.SelectByNumber(ids, number)
	h.reply(ctx, replyChannel, guard.Reason)
	return nil
}

func (h *CommandHandler) replyListing(ctx context.Context, channelID string, lines []primary.SelectorLine, usage string) {
	switch len(lines) {
	case 0:
		h.reply(ctx, channelID, noSelectors)
	case 1:
		h.reply(ctx, channelID, "There is only one reaction-role message in this channel. **Type**:\n"+
			usage+"\n\n"+lines[0].Summary)
	default:
		summaries := make([]string, len(lines))
		for i, l := range lines {
			summaries[i] = l.Summary
		}
		h.reply(ctx, channelID, fmt.Sprintf("There are **%d** reaction-role messages in this channel."+
			" **Type**:\n%s\nThe list of the current reaction-role messages is:\n\n%s",
			len(lines), usage, strings.Join(summaries, "\n")))
	}
}

func (h *CommandHandler) reply(ctx context.Context, channelID, text string) {
	h.send(ctx, channelID, secondary.OutboundMessage{Content: text})
}

func (h *CommandHandler) send(ctx context.Context, channelID string, msg secondary.OutboundMessage) {
	if _, res := h.platform.SendMessage(ctx, channelID, msg); !res.OK() {
		h.logger.Warn().Str("channel", channelID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to send reply")
	}
}

// parseRole accepts a role mention or a bare role ID.
func parseRole(args string) (string, bool) {
	if id, ok := mention.FirstRole(args); ok {
		return id, true
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", false
	}
	for _, r := range fields[0] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return fields[0], true
}

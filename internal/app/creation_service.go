package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/core/mention"
	"github.com/example/rolesmith/internal/core/selector"
	"github.com/example/rolesmith/internal/core/wizard"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

const (
	promptTarget   = "Mention the #channel where to send the auto-role message."
	promptBindings = "Attach roles and emojis separated by one space (one combination" +
		" per message). When you are done type `done`. Example:\n:smile: `@Role`"
	promptBody = "What would you like the message to say?\nFormatting is:" +
		" `Message /// Embed_title /// Embed_content`.\n\n`Embed_title`" +
		" and `Embed_content` are optional. You can type `none` in any" +
		" of the argument fields above (e.g. `Embed_title`) to make the" +
		" bot ignore it.\n\n\nMessage"
)

// CreationServiceImpl implements the CreationService interface.
// It is the shell around the wizard rules: it loads the session for a
// message, asks the platform what it needs and persists the outcome.
type CreationServiceImpl struct {
	sessionRepo secondary.SessionRepository
	registry    primary.RegistryService
	platform    secondary.Platform
	notifier    primary.NotificationService
	settings    BotSettings
	logger      zerolog.Logger
}

// NewCreationService creates a new CreationService with injected dependencies.
func NewCreationService(
	sessionRepo secondary.SessionRepository,
	registry primary.RegistryService,
	platform secondary.Platform,
	notifier primary.NotificationService,
	settings BotSettings,
	logger zerolog.Logger,
) *CreationServiceImpl {
	return &CreationServiceImpl{
		sessionRepo: sessionRepo,
		registry:    registry,
		platform:    platform,
		notifier:    notifier,
		settings:    settings,
		logger:      logger,
	}
}

// BeginCreation opens a session. Admin rights are checked here only.
func (s *CreationServiceImpl) BeginCreation(ctx context.Context, req primary.BeginRequest) (primary.BeginResult, error) {
	isAdmin, err := s.registry.IsAdmin(ctx, req.GuildID, req.MemberRoleIDs)
	if err != nil {
		return primary.BeginNotAdmin, err
	}

	key := secondary.SessionKey{OperatorID: req.OperatorID, ChannelID: req.ChannelID}
	existing, err := s.sessionRepo.Get(ctx, key)
	if err != nil {
		return primary.BeginNotAdmin, primary.NewStoreError("get session", err)
	}

	guard := wizard.CanBegin(wizard.BeginContext{
		IsAdmin:       isAdmin,
		SessionExists: existing != nil,
		Prefix:        s.settings.Prefix(),
	})
	if !guard.Allowed {
		s.reply(ctx, req.ChannelID, guard.Reason)
		if !isAdmin {
			return primary.BeginNotAdmin, nil
		}
		return primary.BeginAlreadyActive, nil
	}

	created, err := s.sessionRepo.Create(ctx, &secondary.SessionRecord{
		Key:     key,
		GuildID: req.GuildID,
		Step:    int(wizard.InitialStep()),
	})
	if err != nil {
		return primary.BeginNotAdmin, primary.NewStoreError("create session", err)
	}
	if !created {
		s.reply(ctx, req.ChannelID, wizard.CanBegin(wizard.BeginContext{
			IsAdmin:       true,
			SessionExists: true,
			Prefix:        s.settings.Prefix(),
		}).Reason)
		return primary.BeginAlreadyActive, nil
	}

	s.logger.Info().
		Str("operator", req.OperatorID).
		Str("channel", req.ChannelID).
		Str("guild", req.GuildID).
		Msg("creation session started")
	s.reply(ctx, req.ChannelID, promptTarget)
	return primary.BeginStarted, nil
}

// HasSession reports whether a session exists for (operator, channel).
func (s *CreationServiceImpl) HasSession(ctx context.Context, operatorID, channelID string) (bool, error) {
	session, err := s.sessionRepo.Get(ctx, secondary.SessionKey{OperatorID: operatorID, ChannelID: channelID})
	if err != nil {
		return false, primary.NewStoreError("get session", err)
	}
	return session != nil, nil
}

// Submit feeds one operator message to its session.
func (s *CreationServiceImpl) Submit(ctx context.Context, msg secondary.MessageEvent) (bool, error) {
	key := secondary.SessionKey{OperatorID: msg.AuthorID, ChannelID: msg.ChannelID}
	session, err := s.sessionRepo.Get(ctx, key)
	if err != nil {
		return false, primary.NewStoreError("get session", err)
	}
	if session == nil {
		return false, nil
	}

	switch wizard.Step(session.Step) {
	case wizard.StepAwaitTargetChannel:
		return true, s.submitTarget(ctx, session, msg)
	case wizard.StepCollectingBindings:
		return true, s.submitBinding(ctx, session, msg)
	case wizard.StepAwaitBody:
		return true, s.submitBody(ctx, session, msg)
	default:
		return true, fmt.Errorf("session %s/%s has unknown step %d", key.OperatorID, key.ChannelID, session.Step)
	}
}

func (s *CreationServiceImpl) submitTarget(ctx context.Context, session *secondary.SessionRecord, msg secondary.MessageEvent) error {
	targetID, guard := wizard.ParseTarget(msg.Content)
	if !guard.Allowed {
		s.reply(ctx, msg.ChannelID, guard.Reason)
		return nil
	}

	info, res := s.platform.FetchChannel(ctx, targetID)
	target := wizard.TargetContext{ChannelID: targetID}
	switch res.Outcome {
	case secondary.OutcomeOK:
		target.ChannelFound = true
		target.CanView = info.CanView
		target.CanSend = info.CanSend
	case secondary.OutcomeForbidden:
		target.ChannelFound = true
	case secondary.OutcomeTransient:
		s.reply(ctx, msg.ChannelID, "I could not reach that channel right now. Mention it again in a moment.")
		return nil
	}

	if guard := wizard.CanSetTarget(target); !guard.Allowed {
		s.reply(ctx, msg.ChannelID, guard.Reason)
		return nil
	}

	if err := s.advance(ctx, session, wizard.StepCollectingBindings, func(r *secondary.SessionRecord) {
		r.TargetChannelID = targetID
	}); err != nil {
		return err
	}

	s.reply(ctx, msg.ChannelID, promptBindings)
	return nil
}

func (s *CreationServiceImpl) submitBinding(ctx context.Context, session *secondary.SessionRecord, msg secondary.MessageEvent) error {
	input, guard := wizard.ParseBindingInput(msg.Content)
	if !guard.Allowed {
		s.reply(ctx, msg.ChannelID, guard.Reason)
		return nil
	}

	if input.Done {
		if err := s.advance(ctx, session, wizard.StepAwaitBody, nil); err != nil {
			return err
		}
		s.send(ctx, msg.ChannelID, secondary.OutboundMessage{
			Content: promptBody,
			Embed:   brandedEmbed(s.settings, "Embed_title", "Embed_content"),
		})
		return nil
	}

	pending := make([]string, len(session.Bindings))
	for i, b := range session.Bindings {
		pending[i] = b.Reaction
	}
	duplicate := wizard.CanAddBinding(wizard.AddBindingContext{Reaction: input.Reaction, Pending: pending})
	if !duplicate.Allowed {
		s.reply(ctx, msg.ChannelID, duplicate.Reason)
		return nil
	}

	// The operator's own message is the scratch context: the platform
	// accepting the reaction there proves the symbol is usable.
	res := s.platform.AddReaction(ctx, msg.ChannelID, msg.MessageID, input.Reaction)
	switch res.Outcome {
	case secondary.OutcomeOK:
	case secondary.OutcomeInvalid, secondary.OutcomeNotFound:
		s.reply(ctx, msg.ChannelID, "You can only use reactions uploaded to servers the bot has"+
			" access to or standard emojis.")
		return nil
	case secondary.OutcomeForbidden:
		s.reply(ctx, msg.ChannelID, "I don't have permission to add reactions in this channel.")
		return nil
	default:
		s.reply(ctx, msg.ChannelID, "I could not check that reaction right now. Send it again in a moment.")
		return nil
	}

	appended, err := s.sessionRepo.AppendBinding(ctx, session.Key, input.Reaction, input.RoleID)
	if err != nil {
		return primary.NewStoreError("append binding", err)
	}
	if !appended {
		s.reply(ctx, msg.ChannelID, duplicate.Reason)
	}
	return nil
}

func (s *CreationServiceImpl) submitBody(ctx context.Context, session *secondary.SessionRecord, msg secondary.MessageEvent) error {
	body, guard := selector.ParseBody(msg.Content)
	if !guard.Allowed {
		s.reply(ctx, msg.ChannelID, guard.Reason)
		return nil
	}
	return s.commit(ctx, session, body, msg.ChannelID)
}

// commit publishes the selector. Once the message is out the session is
// always deleted, so a store failure can never cause a second publication.
func (s *CreationServiceImpl) commit(ctx context.Context, session *secondary.SessionRecord, body selector.Body, replyChannel string) error {
	target := session.TargetChannelID
	logger := s.logger.With().
		Str("operator", session.Key.OperatorID).
		Str("channel", session.Key.ChannelID).
		Str("target", target).
		Logger()

	messageID, res := s.platform.SendMessage(ctx, target, renderBody(s.settings, body))
	switch res.Outcome {
	case secondary.OutcomeOK:
	case secondary.OutcomeForbidden, secondary.OutcomeNotFound:
		logger.Warn().Stringer("outcome", res.Outcome).Err(res.Err).Msg("selector could not be published")
		s.reply(ctx, replyChannel, fmt.Sprintf(
			"I don't have permission to send messages to the channel %s. Start again with `%snew`.",
			mention.Channel(target), s.settings.Prefix()))
		return s.deleteSession(ctx, session.Key)
	default:
		logger.Warn().Stringer("outcome", res.Outcome).Err(res.Err).Msg("selector publication failed")
		s.reply(ctx, replyChannel, fmt.Sprintf(
			"I could not send the message to %s. Send the message text again to retry.", mention.Channel(target)))
		return nil
	}

	session.SelectorMessageID = messageID
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		logger.Warn().Err(err).Msg("failed to record selector message on session")
	}

	bindings := make([]primary.Binding, len(session.Bindings))
	for i, b := range session.Bindings {
		bindings[i] = primary.Binding{Reaction: b.Reaction, RoleID: b.RoleID}
	}

	err := s.registry.RegisterSelector(ctx, primary.Selector{
		MessageID: messageID,
		ChannelID: target,
		GuildID:   session.GuildID,
	}, bindings)
	if err != nil {
		logger.Error().Err(err).Str("message", messageID).Msg("failed to register selector")
		s.reply(ctx, replyChannel, "I could not commit the changes to the database.")
		s.notifier.Notify(ctx, session.GuildID, fmt.Sprintf("Database error:\n```\n%v\n```", err))
	}

	for _, b := range bindings {
		if res := s.platform.AddReaction(ctx, target, messageID, b.Reaction); !res.OK() {
			logger.Warn().Str("reaction", b.Reaction).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to attach reaction")
			s.reply(ctx, replyChannel, fmt.Sprintf(
				"I couldn't add the reaction %s to the message in %s.",
				mention.DisplayReaction(b.Reaction), mention.Channel(target)))
		}
	}

	logger.Info().Str("message", messageID).Int("bindings", len(bindings)).Msg("selector published")
	return s.deleteSession(ctx, session.Key)
}

// AbortCreation deletes the session for (operator, channel).
func (s *CreationServiceImpl) AbortCreation(ctx context.Context, operatorID, channelID string) (primary.AbortResult, error) {
	deleted, err := s.sessionRepo.Delete(ctx, secondary.SessionKey{OperatorID: operatorID, ChannelID: channelID})
	if err != nil {
		return primary.AbortNothingToAbort, primary.NewStoreError("delete session", err)
	}
	if !deleted {
		s.reply(ctx, channelID, "There are no reaction-role message creation processes started by you"+
			" in this channel.")
		return primary.AbortNothingToAbort, nil
	}

	s.reply(ctx, channelID, "Reaction-role message creation aborted.")
	return primary.AbortAborted, nil
}

// advance moves the session one step forward, applying mutate first.
func (s *CreationServiceImpl) advance(ctx context.Context, session *secondary.SessionRecord, to wizard.Step, mutate func(*secondary.SessionRecord)) error {
	if guard := wizard.CanAdvance(wizard.Step(session.Step), to); !guard.Allowed {
		return guard.Error()
	}

	if mutate != nil {
		mutate(session)
	}
	session.Step = int(to)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return primary.NewStoreError("update session", err)
	}
	return nil
}

func (s *CreationServiceImpl) deleteSession(ctx context.Context, key secondary.SessionKey) error {
	if _, err := s.sessionRepo.Delete(ctx, key); err != nil {
		return primary.NewStoreError("delete session", err)
	}
	return nil
}

func (s *CreationServiceImpl) reply(ctx context.Context, channelID, text string) {
	s.send(ctx, channelID, secondary.OutboundMessage{Content: text})
}

func (s *CreationServiceImpl) send(ctx context.Context, channelID string, msg secondary.OutboundMessage) {
	if _, res := s.platform.SendMessage(ctx, channelID, msg); !res.OK() {
		s.logger.Warn().Str("channel", channelID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to send reply")
	}
}

// Ensure CreationServiceImpl implements the interface.
var _ primary.CreationService = (*CreationServiceImpl)(nil)

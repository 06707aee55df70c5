package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/core/mention"
	"github.com/example/rolesmith/internal/core/selector"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// SelectorServiceImpl implements the SelectorService interface.
// Selectors are addressed by their 1-based position in the channel's
// registry order, the same numbering ListMessages prints.
type SelectorServiceImpl struct {
	registry primary.RegistryService
	platform secondary.Platform
	notifier primary.NotificationService
	settings BotSettings
	logger   zerolog.Logger
}

// NewSelectorService creates a new SelectorService with injected dependencies.
func NewSelectorService(
	registry primary.RegistryService,
	platform secondary.Platform,
	notifier primary.NotificationService,
	settings BotSettings,
	logger zerolog.Logger,
) *SelectorServiceImpl {
	return &SelectorServiceImpl{
		registry: registry,
		platform: platform,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// ListMessages returns one line per selector of a channel that can still be
// fetched. Deleted messages are skipped; inaccessible ones are reported.
func (s *SelectorServiceImpl) ListMessages(ctx context.Context, channelID string) ([]primary.SelectorLine, error) {
	ids, err := s.registry.MessagesIn(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var lines []primary.SelectorLine
	for i, id := range ids {
		msg, res := s.platform.FetchMessage(ctx, channelID, id)
		switch res.Outcome {
		case secondary.OutcomeOK:
			lines = append(lines, primary.SelectorLine{
				Number:    i + 1,
				MessageID: id,
				Summary:   selector.ListLine(i+1, msg.Content, msg.EmbedTitle),
			})
		case secondary.OutcomeNotFound:
			continue
		case secondary.OutcomeForbidden:
			s.notifyForbidden(ctx, id, channelID)
		default:
			s.logger.Warn().
				Str("message", id).
				Str("channel", channelID).
				Stringer("outcome", res.Outcome).
				Err(res.Err).
				Msg("failed to fetch selector for listing")
		}
	}
	return lines, nil
}

// Edit re-renders the selected selector with a new body.
func (s *SelectorServiceImpl) Edit(ctx context.Context, req primary.EditRequest) (primary.EditResult, error) {
	messageID, result, err := s.resolve(ctx, req.ChannelID, req.Number)
	if err != nil || result != nil {
		return primary.EditNoSuchSelector, err
	}

	body := selector.BodyFromFields(req.Fields)
	if guard := selector.CanPublish(body); !guard.Allowed {
		return primary.EditEmpty, nil
	}

	res := s.platform.EditMessage(ctx, req.ChannelID, messageID, renderBody(s.settings, body))
	switch res.Outcome {
	case secondary.OutcomeOK:
		return primary.EditDone, nil
	case secondary.OutcomeForbidden, secondary.OutcomeNotFound:
		return primary.EditForbidden, nil
	default:
		s.logger.Warn().Str("message", messageID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to edit selector")
		return primary.EditFailed, nil
	}
}

// AddBinding attaches the reaction to the selector, then binds it. The
// platform accepting the reaction is what validates it.
func (s *SelectorServiceImpl) AddBinding(ctx context.Context, req primary.AddBindingRequest) (primary.ChangeResult, error) {
	messageID, result, err := s.resolve(ctx, req.ChannelID, req.Number)
	if err != nil || result != nil {
		return primary.ChangeNoSuchSelector, err
	}

	if result := changeResult(s.platform.AddReaction(ctx, req.ChannelID, messageID, req.Reaction)); result != primary.ChangeDone {
		return result, nil
	}

	bound, err := s.registry.Bind(ctx, messageID, req.RoleID, req.Reaction)
	if err != nil {
		return primary.ChangeFailed, err
	}
	if bound == primary.BindDuplicate {
		return primary.ChangeDuplicate, nil
	}

	s.logger.Info().Str("message", messageID).Str("reaction", req.Reaction).Str("role", req.RoleID).Msg("binding added")
	return primary.ChangeDone, nil
}

// RemoveBinding clears the reaction from the selector, then unbinds it.
func (s *SelectorServiceImpl) RemoveBinding(ctx context.Context, req primary.RemoveBindingRequest) (primary.ChangeResult, error) {
	messageID, result, err := s.resolve(ctx, req.ChannelID, req.Number)
	if err != nil || result != nil {
		return primary.ChangeNoSuchSelector, err
	}

	if result := changeResult(s.platform.RemoveReactionType(ctx, req.ChannelID, messageID, req.Reaction)); result != primary.ChangeDone {
		return result, nil
	}

	unbound, err := s.registry.Unbind(ctx, messageID, req.Reaction)
	if err != nil {
		return primary.ChangeFailed, err
	}
	if unbound == primary.UnbindAbsent {
		return primary.ChangeAbsent, nil
	}

	s.logger.Info().Str("message", messageID).Str("reaction", req.Reaction).Msg("binding removed")
	return primary.ChangeDone, nil
}

// resolve maps a selector number to a message ID. A non-nil guard means the
// number did not select anything.
func (s *SelectorServiceImpl) resolve(ctx context.Context, channelID, number string) (string, *selector.GuardResult, error) {
	ids, err := s.registry.MessagesIn(ctx, channelID)
	if err != nil {
		return "", nil, err
	}

	messageID, guard := selector.SelectByNumber(ids, number)
	if !guard.Allowed {
		return "", &guard, nil
	}
	return messageID, nil, nil
}

func (s *SelectorServiceImpl) notifyForbidden(ctx context.Context, messageID, channelID string) {
	guildID := ""
	if sel, err := s.registry.GetSelector(ctx, messageID); err == nil && sel != nil {
		guildID = sel.GuildID
	}
	s.notifier.Notify(ctx, guildID, fmt.Sprintf(
		"I do not have permissions to edit a reaction-role message that I previously"+
			" created.\n\nID: %s in %s", messageID, mention.Channel(channelID)))
}

func changeResult(res secondary.Result) primary.ChangeResult {
	switch res.Outcome {
	case secondary.OutcomeOK:
		return primary.ChangeDone
	case secondary.OutcomeInvalid:
		return primary.ChangeInvalidReaction
	case secondary.OutcomeForbidden, secondary.OutcomeNotFound:
		return primary.ChangeForbidden
	default:
		return primary.ChangeFailed
	}
}

// Ensure SelectorServiceImpl implements the interface.
var _ primary.SelectorService = (*SelectorServiceImpl)(nil)

package app

import (
	"context"
	"time"

	"github.com/example/rolesmith/internal/core/mention"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// RegistryServiceImpl implements the RegistryService interface.
type RegistryServiceImpl struct {
	guildRepo    secondary.GuildRepository
	adminRepo    secondary.AdminRoleRepository
	selectorRepo secondary.SelectorRepository
	cleanupRepo  secondary.CleanupQueueRepository
}

// NewRegistryService creates a new RegistryService with injected dependencies.
func NewRegistryService(
	guildRepo secondary.GuildRepository,
	adminRepo secondary.AdminRoleRepository,
	selectorRepo secondary.SelectorRepository,
	cleanupRepo secondary.CleanupQueueRepository,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		guildRepo:    guildRepo,
		adminRepo:    adminRepo,
		selectorRepo: selectorRepo,
		cleanupRepo:  cleanupRepo,
	}
}

// Bind maps a reaction on a selector to a role. An existing binding for the
// reaction is left untouched.
func (s *RegistryServiceImpl) Bind(ctx context.Context, messageID, roleID, reaction string) (primary.BindResult, error) {
	added, err := s.selectorRepo.AddBinding(ctx, secondary.BindingRecord{
		MessageID: messageID,
		Reaction:  reaction,
		RoleID:    roleID,
	})
	if err != nil {
		return primary.BindDuplicate, primary.NewStoreError("bind", err)
	}
	if !added {
		return primary.BindDuplicate, nil
	}
	return primary.BindCreated, nil
}

// Unbind removes the mapping of a reaction on a selector. A custom emoji
// matches its binding whether or not the animated marker is present.
func (s *RegistryServiceImpl) Unbind(ctx context.Context, messageID, reaction string) (primary.UnbindResult, error) {
	for _, form := range mention.ReactionForms(reaction) {
		removed, err := s.selectorRepo.RemoveBinding(ctx, messageID, form)
		if err != nil {
			return primary.UnbindAbsent, primary.NewStoreError("unbind", err)
		}
		if removed {
			return primary.UnbindRemoved, nil
		}
	}
	return primary.UnbindAbsent, nil
}

// RoleFor returns the role bound to a reaction. Gateway events do not always
// carry the animated flag, so both forms of a custom emoji are tried.
func (s *RegistryServiceImpl) RoleFor(ctx context.Context, messageID, reaction string) (string, bool, error) {
	for _, form := range mention.ReactionForms(reaction) {
		roleID, err := s.selectorRepo.GetBinding(ctx, messageID, form)
		if err != nil {
			return "", false, primary.NewStoreError("role lookup", err)
		}
		if roleID != "" {
			return roleID, true, nil
		}
	}
	return "", false, nil
}

// BindingsFor returns reaction -> role for a selector.
func (s *RegistryServiceImpl) BindingsFor(ctx context.Context, messageID string) (map[string]string, error) {
	records, err := s.selectorRepo.ListBindings(ctx, messageID)
	if err != nil {
		return nil, primary.NewStoreError("list bindings", err)
	}

	bindings := make(map[string]string, len(records))
	for _, r := range records {
		bindings[r.Reaction] = r.RoleID
	}
	return bindings, nil
}

// MessagesIn returns the selector message IDs of a channel in creation order.
func (s *RegistryServiceImpl) MessagesIn(ctx context.Context, channelID string) ([]string, error) {
	records, err := s.selectorRepo.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, primary.NewStoreError("list channel messages", err)
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.MessageID
	}
	return ids, nil
}

// RegisterSelector records a published selector, its bindings and its guild.
func (s *RegistryServiceImpl) RegisterSelector(ctx context.Context, selector primary.Selector, bindings []primary.Binding) error {
	records := make([]secondary.BindingRecord, len(bindings))
	for i, b := range bindings {
		records[i] = secondary.BindingRecord{
			MessageID: selector.MessageID,
			Reaction:  b.Reaction,
			RoleID:    b.RoleID,
		}
	}

	err := s.selectorRepo.Create(ctx, &secondary.SelectorRecord{
		MessageID: selector.MessageID,
		ChannelID: selector.ChannelID,
		GuildID:   selector.GuildID,
	}, records)
	return primary.NewStoreError("register selector", err)
}

// DeleteSelector removes a selector and its bindings.
func (s *RegistryServiceImpl) DeleteSelector(ctx context.Context, messageID string) error {
	return primary.NewStoreError("delete selector", s.selectorRepo.Delete(ctx, messageID))
}

// IsSelector reports whether a message is a registered selector.
func (s *RegistryServiceImpl) IsSelector(ctx context.Context, messageID string) (bool, error) {
	selector, err := s.GetSelector(ctx, messageID)
	if err != nil {
		return false, err
	}
	return selector != nil, nil
}

// GetSelector returns a selector by message ID.
func (s *RegistryServiceImpl) GetSelector(ctx context.Context, messageID string) (*primary.Selector, error) {
	record, err := s.selectorRepo.GetByMessage(ctx, messageID)
	if err != nil {
		return nil, primary.NewStoreError("get selector", err)
	}
	if record == nil {
		return nil, nil
	}
	return s.recordToSelector(record), nil
}

// ListSelectors returns every selector.
func (s *RegistryServiceImpl) ListSelectors(ctx context.Context) ([]*primary.Selector, error) {
	records, err := s.selectorRepo.List(ctx)
	if err != nil {
		return nil, primary.NewStoreError("list selectors", err)
	}

	selectors := make([]*primary.Selector, len(records))
	for i, r := range records {
		selectors[i] = s.recordToSelector(r)
	}
	return selectors, nil
}

// AddGuild registers a guild.
func (s *RegistryServiceImpl) AddGuild(ctx context.Context, guildID string) error {
	return primary.NewStoreError("add guild", s.guildRepo.Create(ctx, guildID))
}

// RemoveGuild purges a guild and every row that belongs to it.
func (s *RegistryServiceImpl) RemoveGuild(ctx context.Context, guildID string) error {
	return primary.NewStoreError("remove guild", s.guildRepo.Purge(ctx, guildID))
}

// ListGuilds returns every registered guild.
func (s *RegistryServiceImpl) ListGuilds(ctx context.Context) ([]*primary.Guild, error) {
	records, err := s.guildRepo.List(ctx)
	if err != nil {
		return nil, primary.NewStoreError("list guilds", err)
	}

	guilds := make([]*primary.Guild, len(records))
	for i, r := range records {
		guilds[i] = &primary.Guild{
			GuildID:         r.GuildID,
			SystemChannelID: r.SystemChannelID,
			CreatedAt:       r.CreatedAt,
		}
	}
	return guilds, nil
}

// SetSystemChannel sets the guild notification channel.
func (s *RegistryServiceImpl) SetSystemChannel(ctx context.Context, guildID, channelID string) error {
	return primary.NewStoreError("set system channel", s.guildRepo.SetSystemChannel(ctx, guildID, channelID))
}

// SystemChannel returns the guild notification channel.
func (s *RegistryServiceImpl) SystemChannel(ctx context.Context, guildID string) (string, error) {
	channel, err := s.guildRepo.GetSystemChannel(ctx, guildID)
	if err != nil {
		return "", primary.NewStoreError("get system channel", err)
	}
	return channel, nil
}

// AddAdmin grants admin rights to a role.
func (s *RegistryServiceImpl) AddAdmin(ctx context.Context, guildID, roleID string) (bool, error) {
	added, err := s.adminRepo.Add(ctx, guildID, roleID)
	if err != nil {
		return false, primary.NewStoreError("add admin", err)
	}
	return added, nil
}

// RemoveAdmin revokes admin rights from a role.
func (s *RegistryServiceImpl) RemoveAdmin(ctx context.Context, guildID, roleID string) (bool, error) {
	removed, err := s.adminRepo.Remove(ctx, guildID, roleID)
	if err != nil {
		return false, primary.NewStoreError("remove admin", err)
	}
	return removed, nil
}

// ListAdmins returns the admin role IDs of a guild.
func (s *RegistryServiceImpl) ListAdmins(ctx context.Context, guildID string) ([]string, error) {
	roles, err := s.adminRepo.List(ctx, guildID)
	if err != nil {
		return nil, primary.NewStoreError("list admins", err)
	}
	return roles, nil
}

// IsAdmin reports whether any of the member's roles is an admin role.
func (s *RegistryServiceImpl) IsAdmin(ctx context.Context, guildID string, memberRoleIDs []string) (bool, error) {
	admins, err := s.ListAdmins(ctx, guildID)
	if err != nil {
		return false, err
	}

	for _, admin := range admins {
		for _, role := range memberRoleIDs {
			if admin == role {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListCleanupQueue returns the guilds currently believed unreachable.
func (s *RegistryServiceImpl) ListCleanupQueue(ctx context.Context) ([]*primary.CleanupEntry, error) {
	records, err := s.cleanupRepo.List(ctx)
	if err != nil {
		return nil, primary.NewStoreError("list cleanup queue", err)
	}

	entries := make([]*primary.CleanupEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.CleanupEntry{
			GuildID:          r.GuildID,
			UnreachableSince: r.UnreachableSince.UTC().Format(time.RFC3339),
		}
	}
	return entries, nil
}

func (s *RegistryServiceImpl) recordToSelector(r *secondary.SelectorRecord) *primary.Selector {
	return &primary.Selector{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure RegistryServiceImpl implements the interface.
var _ primary.RegistryService = (*RegistryServiceImpl)(nil)

package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// ============================================================================
// Platform
// ============================================================================

// Ensure mockPlatform implements the interface
var _ secondary.Platform = (*mockPlatform)(nil)

type sentMessage struct {
	ChannelID string
	Msg       secondary.OutboundMessage
}

type reactionCall struct {
	ChannelID string
	MessageID string
	Reaction  string
	UserID    string
}

type roleCall struct {
	GuildID string
	UserID  string
	RoleID  string
}

// mockPlatform implements secondary.Platform for testing. Unset results
// default to OK.
type mockPlatform struct {
	selfID string
	nextID int

	sent        []sentMessage
	sendResults map[string]secondary.Result // by channel

	edited      []sentMessage
	editResult  secondary.Result
	messages    map[string]*secondary.MessageInfo // by message ID
	fetchResult map[string]secondary.Result       // by message ID

	addedReactions  []reactionCall
	addResults      map[string]secondary.Result // by reaction
	clearedTypes    []reactionCall
	clearResult     secondary.Result
	removedUser     []reactionCall
	assigned        []roleCall
	revoked         []roleCall
	roleResult      secondary.Result
	channels        map[string]*secondary.ChannelInfo
	channelResults  map[string]secondary.Result
	guildResults    map[string]secondary.Result
	administrator   bool
	fetchGuildCalls []string
}

func newMockPlatform() *mockPlatform {
	return &mockPlatform{
		selfID:         "BOT",
		nextID:         1000,
		sendResults:    make(map[string]secondary.Result),
		messages:       make(map[string]*secondary.MessageInfo),
		fetchResult:    make(map[string]secondary.Result),
		addResults:     make(map[string]secondary.Result),
		channels:       make(map[string]*secondary.ChannelInfo),
		channelResults: make(map[string]secondary.Result),
		guildResults:   make(map[string]secondary.Result),
	}
}

func (m *mockPlatform) SelfID() string { return m.selfID }

func (m *mockPlatform) SendMessage(ctx context.Context, channelID string, msg secondary.OutboundMessage) (string, secondary.Result) {
	if res, ok := m.sendResults[channelID]; ok && !res.OK() {
		return "", res
	}
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Msg: msg})
	m.nextID++
	return fmt.Sprintf("%d", m.nextID), secondary.Ok
}

func (m *mockPlatform) EditMessage(ctx context.Context, channelID, messageID string, msg secondary.OutboundMessage) secondary.Result {
	if !m.editResult.OK() {
		return m.editResult
	}
	m.edited = append(m.edited, sentMessage{ChannelID: channelID, Msg: msg})
	return secondary.Ok
}

func (m *mockPlatform) FetchMessage(ctx context.Context, channelID, messageID string) (*secondary.MessageInfo, secondary.Result) {
	if res, ok := m.fetchResult[messageID]; ok && !res.OK() {
		return nil, res
	}
	if info, ok := m.messages[messageID]; ok {
		return info, secondary.Ok
	}
	return &secondary.MessageInfo{ID: messageID, ChannelID: channelID}, secondary.Ok
}

func (m *mockPlatform) AddReaction(ctx context.Context, channelID, messageID, reaction string) secondary.Result {
	if res, ok := m.addResults[reaction]; ok && !res.OK() {
		return res
	}
	m.addedReactions = append(m.addedReactions, reactionCall{ChannelID: channelID, MessageID: messageID, Reaction: reaction})
	return secondary.Ok
}

func (m *mockPlatform) RemoveReactionType(ctx context.Context, channelID, messageID, reaction string) secondary.Result {
	if !m.clearResult.OK() {
		return m.clearResult
	}
	m.clearedTypes = append(m.clearedTypes, reactionCall{ChannelID: channelID, MessageID: messageID, Reaction: reaction})
	return secondary.Ok
}

func (m *mockPlatform) RemoveUserReaction(ctx context.Context, channelID, messageID, reaction, userID string) secondary.Result {
	m.removedUser = append(m.removedUser, reactionCall{ChannelID: channelID, MessageID: messageID, Reaction: reaction, UserID: userID})
	return secondary.Ok
}

func (m *mockPlatform) AssignRole(ctx context.Context, guildID, userID, roleID string) secondary.Result {
	if !m.roleResult.OK() {
		return m.roleResult
	}
	m.assigned = append(m.assigned, roleCall{GuildID: guildID, UserID: userID, RoleID: roleID})
	return secondary.Ok
}

func (m *mockPlatform) RevokeRole(ctx context.Context, guildID, userID, roleID string) secondary.Result {
	if !m.roleResult.OK() {
		return m.roleResult
	}
	m.revoked = append(m.revoked, roleCall{GuildID: guildID, UserID: userID, RoleID: roleID})
	return secondary.Ok
}

func (m *mockPlatform) FetchChannel(ctx context.Context, channelID string) (*secondary.ChannelInfo, secondary.Result) {
	if res, ok := m.channelResults[channelID]; ok && !res.OK() {
		return nil, res
	}
	if info, ok := m.channels[channelID]; ok {
		return info, secondary.Ok
	}
	return &secondary.ChannelInfo{ID: channelID, CanView: true, CanSend: true}, secondary.Ok
}

func (m *mockPlatform) FetchGuild(ctx context.Context, guildID string) (*secondary.GuildInfo, secondary.Result) {
	m.fetchGuildCalls = append(m.fetchGuildCalls, guildID)
	if res, ok := m.guildResults[guildID]; ok && !res.OK() {
		return nil, res
	}
	return &secondary.GuildInfo{ID: guildID}, secondary.Ok
}

func (m *mockPlatform) FetchUser(ctx context.Context, userID string) (*secondary.UserInfo, secondary.Result) {
	return &secondary.UserInfo{ID: userID}, secondary.Ok
}

func (m *mockPlatform) MemberIsAdministrator(ctx context.Context, guildID, channelID, userID string) (bool, secondary.Result) {
	return m.administrator, secondary.Ok
}

// repliesTo returns the text of every message sent to a channel.
func (m *mockPlatform) repliesTo(channelID string) []string {
	var texts []string
	for _, s := range m.sent {
		if s.ChannelID == channelID {
			texts = append(texts, s.Msg.Content)
		}
	}
	return texts
}

// lastReply returns the text of the last message sent to a channel.
func (m *mockPlatform) lastReply(channelID string) string {
	texts := m.repliesTo(channelID)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func failed(outcome secondary.Outcome) secondary.Result {
	return secondary.Failed(outcome, fmt.Errorf("mock %s", outcome))
}

// ============================================================================
// Repositories
// ============================================================================

// mockStore backs every repository mock with one set of maps so that
// cross-table behaviour (purge, guild registration) is observable.
type mockStore struct {
	guilds    map[string]*secondary.GuildRecord
	admins    map[string][]string
	selectors []*secondary.SelectorRecord
	bindings  map[string][]secondary.BindingRecord
	sessions  map[secondary.SessionKey]*secondary.SessionRecord
	queue     map[string]time.Time
	seq       int64

	err error // returned by every call when set
}

func newMockStore() *mockStore {
	return &mockStore{
		guilds:   make(map[string]*secondary.GuildRecord),
		admins:   make(map[string][]string),
		bindings: make(map[string][]secondary.BindingRecord),
		sessions: make(map[secondary.SessionKey]*secondary.SessionRecord),
		queue:    make(map[string]time.Time),
	}
}

// mockGuildRepository implements secondary.GuildRepository for testing.
type mockGuildRepository struct{ *mockStore }

var _ secondary.GuildRepository = mockGuildRepository{}

func (m mockGuildRepository) Create(ctx context.Context, guildID string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.guilds[guildID]; !ok {
		m.guilds[guildID] = &secondary.GuildRecord{GuildID: guildID}
	}
	return nil
}

func (m mockGuildRepository) Exists(ctx context.Context, guildID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.guilds[guildID]
	return ok, nil
}

func (m mockGuildRepository) List(ctx context.Context) ([]*secondary.GuildRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.guilds))
	for id := range m.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*secondary.GuildRecord, len(ids))
	for i, id := range ids {
		result[i] = m.guilds[id]
	}
	return result, nil
}

func (m mockGuildRepository) SetSystemChannel(ctx context.Context, guildID, channelID string) error {
	if m.err != nil {
		return m.err
	}
	if err := m.Create(ctx, guildID); err != nil {
		return err
	}
	m.guilds[guildID].SystemChannelID = channelID
	return nil
}

func (m mockGuildRepository) GetSystemChannel(ctx context.Context, guildID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if g, ok := m.guilds[guildID]; ok {
		return g.SystemChannelID, nil
	}
	return "", nil
}

func (m mockGuildRepository) Purge(ctx context.Context, guildID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.guilds, guildID)
	delete(m.admins, guildID)
	delete(m.queue, guildID)
	kept := m.selectors[:0]
	for _, s := range m.selectors {
		if s.GuildID == guildID {
			delete(m.bindings, s.MessageID)
			continue
		}
		kept = append(kept, s)
	}
	m.selectors = kept
	return nil
}

// mockAdminRoleRepository implements secondary.AdminRoleRepository for testing.
type mockAdminRoleRepository struct{ *mockStore }

var _ secondary.AdminRoleRepository = mockAdminRoleRepository{}

func (m mockAdminRoleRepository) Add(ctx context.Context, guildID, roleID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.admins[guildID] {
		if r == roleID {
			return false, nil
		}
	}
	m.admins[guildID] = append(m.admins[guildID], roleID)
	return true, nil
}

func (m mockAdminRoleRepository) Remove(ctx context.Context, guildID, roleID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	roles := m.admins[guildID]
	for i, r := range roles {
		if r == roleID {
			m.admins[guildID] = append(roles[:i], roles[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m mockAdminRoleRepository) List(ctx context.Context, guildID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.admins[guildID]...), nil
}

// mockSelectorRepository implements secondary.SelectorRepository for testing.
type mockSelectorRepository struct{ *mockStore }

var _ secondary.SelectorRepository = mockSelectorRepository{}

func (m mockSelectorRepository) Create(ctx context.Context, selector *secondary.SelectorRecord, bindings []secondary.BindingRecord) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.guilds[selector.GuildID]; !ok {
		m.guilds[selector.GuildID] = &secondary.GuildRecord{GuildID: selector.GuildID}
	}
	if existing, _ := m.GetByMessage(ctx, selector.MessageID); existing == nil {
		m.seq++
		record := *selector
		record.Seq = m.seq
		m.selectors = append(m.selectors, &record)
	}
	for _, b := range bindings {
		if _, err := m.AddBinding(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (m mockSelectorRepository) GetByMessage(ctx context.Context, messageID string) (*secondary.SelectorRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.selectors {
		if s.MessageID == messageID {
			return s, nil
		}
	}
	return nil, nil
}

func (m mockSelectorRepository) List(ctx context.Context) ([]*secondary.SelectorRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]*secondary.SelectorRecord(nil), m.selectors...), nil
}

func (m mockSelectorRepository) ListByChannel(ctx context.Context, channelID string) ([]*secondary.SelectorRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []*secondary.SelectorRecord
	for _, s := range m.selectors {
		if s.ChannelID == channelID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m mockSelectorRepository) Delete(ctx context.Context, messageID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.bindings, messageID)
	kept := m.selectors[:0]
	for _, s := range m.selectors {
		if s.MessageID != messageID {
			kept = append(kept, s)
		}
	}
	m.selectors = kept
	return nil
}

func (m mockSelectorRepository) AddBinding(ctx context.Context, binding secondary.BindingRecord) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, b := range m.bindings[binding.MessageID] {
		if b.Reaction == binding.Reaction {
			return false, nil
		}
	}
	m.bindings[binding.MessageID] = append(m.bindings[binding.MessageID], binding)
	return true, nil
}

func (m mockSelectorRepository) RemoveBinding(ctx context.Context, messageID, reaction string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	list := m.bindings[messageID]
	for i, b := range list {
		if b.Reaction == reaction {
			m.bindings[messageID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m mockSelectorRepository) GetBinding(ctx context.Context, messageID, reaction string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	for _, b := range m.bindings[messageID] {
		if b.Reaction == reaction {
			return b.RoleID, nil
		}
	}
	return "", nil
}

func (m mockSelectorRepository) ListBindings(ctx context.Context, messageID string) ([]secondary.BindingRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]secondary.BindingRecord(nil), m.bindings[messageID]...), nil
}

// mockSessionRepository implements secondary.SessionRepository for testing.
type mockSessionRepository struct{ *mockStore }

var _ secondary.SessionRepository = mockSessionRepository{}

func (m mockSessionRepository) Create(ctx context.Context, session *secondary.SessionRecord) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.sessions[session.Key]; ok {
		return false, nil
	}
	record := *session
	m.sessions[session.Key] = &record
	return true, nil
}

func (m mockSessionRepository) Get(ctx context.Context, key secondary.SessionKey) (*secondary.SessionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	session, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	record := *session
	record.Bindings = append([]secondary.PendingBinding(nil), session.Bindings...)
	return &record, nil
}

func (m mockSessionRepository) Update(ctx context.Context, session *secondary.SessionRecord) error {
	if m.err != nil {
		return m.err
	}
	existing, ok := m.sessions[session.Key]
	if !ok {
		return fmt.Errorf("session %s/%s not found", session.Key.OperatorID, session.Key.ChannelID)
	}
	existing.Step = session.Step
	existing.TargetChannelID = session.TargetChannelID
	existing.SelectorMessageID = session.SelectorMessageID
	return nil
}

func (m mockSessionRepository) AppendBinding(ctx context.Context, key secondary.SessionKey, reaction, roleID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	session, ok := m.sessions[key]
	if !ok {
		return false, fmt.Errorf("session %s/%s not found", key.OperatorID, key.ChannelID)
	}
	for _, b := range session.Bindings {
		if b.Reaction == reaction {
			return false, nil
		}
	}
	session.Bindings = append(session.Bindings, secondary.PendingBinding{Reaction: reaction, RoleID: roleID})
	return true, nil
}

func (m mockSessionRepository) Delete(ctx context.Context, key secondary.SessionKey) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.sessions[key]
	delete(m.sessions, key)
	return ok, nil
}

// mockCleanupQueueRepository implements secondary.CleanupQueueRepository for testing.
type mockCleanupQueueRepository struct{ *mockStore }

var _ secondary.CleanupQueueRepository = mockCleanupQueueRepository{}

func (m mockCleanupQueueRepository) Enqueue(ctx context.Context, guildID string, since time.Time) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.queue[guildID]; !ok {
		m.queue[guildID] = since
	}
	return nil
}

func (m mockCleanupQueueRepository) Dequeue(ctx context.Context, guildID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.queue, guildID)
	return nil
}

func (m mockCleanupQueueRepository) List(ctx context.Context) ([]*secondary.CleanupEntryRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.queue))
	for id := range m.queue {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*secondary.CleanupEntryRecord, len(ids))
	for i, id := range ids {
		result[i] = &secondary.CleanupEntryRecord{GuildID: id, UnreachableSince: m.queue[id]}
	}
	return result, nil
}

// ============================================================================
// Notifier & Settings
// ============================================================================

type notification struct {
	GuildID string
	Text    string
}

// mockNotifier implements primary.NotificationService for testing.
type mockNotifier struct {
	sent []notification
}

var _ primary.NotificationService = (*mockNotifier)(nil)

func (m *mockNotifier) Notify(ctx context.Context, guildID, text string) {
	m.sent = append(m.sent, notification{GuildID: guildID, Text: text})
}

func (m *mockNotifier) containing(substr string) []notification {
	var result []notification
	for _, n := range m.sent {
		if strings.Contains(n.Text, substr) {
			result = append(result, n)
		}
	}
	return result
}

// fakeSettings implements BotSettings for testing.
type fakeSettings struct {
	prefix        string
	ownerID       string
	colour        int
	systemChannel string
	saveErr       error
}

var _ BotSettings = (*fakeSettings)(nil)

func newFakeSettings() *fakeSettings {
	return &fakeSettings{prefix: "rs!", ownerID: "OWNER", colour: 0x7289da}
}

func (f *fakeSettings) Name() string          { return "Rolesmith" }
func (f *fakeSettings) Prefix() string        { return f.prefix }
func (f *fakeSettings) Logo() string          { return "https://example.com/logo.png" }
func (f *fakeSettings) OwnerID() string       { return f.ownerID }
func (f *fakeSettings) Colour() int           { return f.colour }
func (f *fakeSettings) SystemChannel() string { return f.systemChannel }

func (f *fakeSettings) SetColour(ctx context.Context, raw string) (int, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	var c int
	if _, err := fmt.Sscanf(strings.TrimPrefix(raw, "0x"), "%x", &c); err != nil {
		return 0, err
	}
	f.colour = c
	return c, nil
}

func (f *fakeSettings) SetSystemChannel(ctx context.Context, channelID string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.systemChannel = channelID
	return nil
}

// ============================================================================
// Fixture
// ============================================================================

// fixture wires every service over shared mocks, the way wire does over sqlite.
type fixture struct {
	store     *mockStore
	platform  *mockPlatform
	notifier  *mockNotifier
	settings  *fakeSettings
	registry  *RegistryServiceImpl
	creation  *CreationServiceImpl
	selectors *SelectorServiceImpl
	roles     *RoleServiceImpl
	commands  *CommandHandler
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMockStore(),
		platform: newMockPlatform(),
		notifier: &mockNotifier{},
		settings: newFakeSettings(),
	}
	f.registry = NewRegistryService(
		mockGuildRepository{f.store},
		mockAdminRoleRepository{f.store},
		mockSelectorRepository{f.store},
		mockCleanupQueueRepository{f.store},
	)
	logger := testLogger()
	f.creation = NewCreationService(mockSessionRepository{f.store}, f.registry, f.platform, f.notifier, f.settings, logger)
	f.selectors = NewSelectorService(f.registry, f.platform, f.notifier, f.settings, logger)
	f.roles = NewRoleService(f.registry, f.platform, f.notifier, logger)
	f.commands = NewCommandHandler(f.creation, f.registry, f.selectors, f.platform, f.settings, logger)
	return f
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

// grantAdmin makes roleID an admin role of guildID.
func (f *fixture) grantAdmin(guildID, roleID string) {
	f.store.admins[guildID] = append(f.store.admins[guildID], roleID)
}

// addSelector registers a selector directly in the store.
func (f *fixture) addSelector(messageID, channelID, guildID string, bindings ...secondary.BindingRecord) {
	for i := range bindings {
		bindings[i].MessageID = messageID
	}
	_ = mockSelectorRepository{f.store}.Create(context.Background(), &secondary.SelectorRecord{
		MessageID: messageID,
		ChannelID: channelID,
		GuildID:   guildID,
	}, bindings)
}

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rolesmith/internal/core/wizard"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

const (
	testGuild   = "G1"
	testChannel = "100"
	testTarget  = "200"
	testAdmin   = "U-ADMIN"
	testRole    = "900"
)

func beginRequest() primary.BeginRequest {
	return primary.BeginRequest{
		OperatorID:    testAdmin,
		ChannelID:     testChannel,
		GuildID:       testGuild,
		MemberRoleIDs: []string{testRole},
	}
}

func operatorMessage(content string) secondary.MessageEvent {
	return secondary.MessageEvent{
		GuildID:       testGuild,
		ChannelID:     testChannel,
		MessageID:     "M-" + content,
		AuthorID:      testAdmin,
		AuthorRoleIDs: []string{testRole},
		Content:       content,
	}
}

func (f *fixture) session(t *testing.T) *secondary.SessionRecord {
	t.Helper()
	session, err := mockSessionRepository{f.store}.Get(context.Background(),
		secondary.SessionKey{OperatorID: testAdmin, ChannelID: testChannel})
	require.NoError(t, err)
	return session
}

func (f *fixture) submit(t *testing.T, content string) {
	t.Helper()
	handled, err := f.creation.Submit(context.Background(), operatorMessage(content))
	require.NoError(t, err)
	require.True(t, handled)
}

// startedAt drives a fresh session up to the given step.
func startedAt(t *testing.T, step wizard.Step) *fixture {
	t.Helper()
	f := newFixture()
	f.grantAdmin(testGuild, testRole)

	result, err := f.creation.BeginCreation(context.Background(), beginRequest())
	require.NoError(t, err)
	require.Equal(t, primary.BeginStarted, result)

	if step >= wizard.StepCollectingBindings {
		f.submit(t, "<#"+testTarget+">")
	}
	if step >= wizard.StepAwaitBody {
		f.submit(t, "done")
	}
	require.Equal(t, int(step), f.session(t).Step)
	return f
}

func TestBeginCreation_NotAdmin(t *testing.T) {
	f := newFixture()

	result, err := f.creation.BeginCreation(context.Background(), beginRequest())

	require.NoError(t, err)
	assert.Equal(t, primary.BeginNotAdmin, result)
	assert.Nil(t, f.session(t))
	assert.Contains(t, f.platform.lastReply(testChannel), "You do not have an admin role.")
}

func TestBeginCreation_AlreadyActive(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	result, err := f.creation.BeginCreation(context.Background(), beginRequest())

	require.NoError(t, err)
	assert.Equal(t, primary.BeginAlreadyActive, result)
	assert.Equal(t, int(wizard.StepCollectingBindings), f.session(t).Step, "existing session must be untouched")
	assert.Contains(t, f.platform.lastReply(testChannel), "already creating")
}

func TestBeginCreation_StoreError(t *testing.T) {
	f := newFixture()
	f.grantAdmin(testGuild, testRole)
	f.store.err = errors.New("disk full")

	_, err := f.creation.BeginCreation(context.Background(), beginRequest())

	var storeErr *primary.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestSubmit_NoSession(t *testing.T) {
	f := newFixture()

	handled, err := f.creation.Submit(context.Background(), operatorMessage("hello"))

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, f.platform.sent)
}

func TestSubmit_TargetChannel(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		setup     func(p *mockPlatform)
		wantStep  wizard.Step
		wantReply string
	}{
		{
			name:      "no mention",
			content:   "the roles channel",
			wantStep:  wizard.StepAwaitTargetChannel,
			wantReply: "The channel you mentioned is invalid.",
		},
		{
			name:    "unknown channel",
			content: "<#404>",
			setup: func(p *mockPlatform) {
				p.channelResults["404"] = failed(secondary.OutcomeNotFound)
			},
			wantStep:  wizard.StepAwaitTargetChannel,
			wantReply: "The channel you mentioned is invalid.",
		},
		{
			name:    "cannot send",
			content: "<#300>",
			setup: func(p *mockPlatform) {
				p.channels["300"] = &secondary.ChannelInfo{ID: "300", CanView: true}
			},
			wantStep:  wizard.StepAwaitTargetChannel,
			wantReply: "I cannot read or send messages in that channel.",
		},
		{
			name:    "forbidden",
			content: "<#400>",
			setup: func(p *mockPlatform) {
				p.channelResults["400"] = failed(secondary.OutcomeForbidden)
			},
			wantStep:  wizard.StepAwaitTargetChannel,
			wantReply: "I cannot read or send messages in that channel.",
		},
		{
			name:      "accepted",
			content:   "send it to <#" + testTarget + "> please",
			wantStep:  wizard.StepCollectingBindings,
			wantReply: "Attach roles and emojis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := startedAt(t, wizard.StepAwaitTargetChannel)
			if tt.setup != nil {
				tt.setup(f.platform)
			}

			f.submit(t, tt.content)

			assert.Equal(t, int(tt.wantStep), f.session(t).Step)
			assert.Contains(t, f.platform.lastReply(testChannel), tt.wantReply)
		})
	}
}

func TestSubmit_CollectBindings(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	f.submit(t, "😀 <@&11>")
	f.submit(t, "<:party:42> <@&12>")

	session := f.session(t)
	assert.Equal(t, []secondary.PendingBinding{
		{Reaction: "😀", RoleID: "11"},
		{Reaction: "party:42", RoleID: "12"},
	}, session.Bindings)

	// The operator's own message proves the reaction is usable.
	require.Len(t, f.platform.addedReactions, 2)
	assert.Equal(t, "M-😀 <@&11>", f.platform.addedReactions[0].MessageID)
}

func TestSubmit_DuplicateReaction(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)
	f.submit(t, "😀 <@&11>")

	f.submit(t, "😀 <@&12>")

	assert.Len(t, f.session(t).Bindings, 1)
	assert.Equal(t, "You have already used that reaction for another role.", f.platform.lastReply(testChannel))
}

func TestSubmit_MalformedBinding(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	f.submit(t, "<@&11> 😀")

	assert.Empty(t, f.session(t).Bindings)
	assert.Contains(t, f.platform.lastReply(testChannel), "Mention a role after the reaction.")
}

func TestSubmit_InvalidReaction(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)
	f.platform.addResults["notanemoji"] = failed(secondary.OutcomeInvalid)

	f.submit(t, "notanemoji <@&11>")

	assert.Empty(t, f.session(t).Bindings)
	assert.Contains(t, f.platform.lastReply(testChannel), "You can only use reactions uploaded to servers")
}

func TestSubmit_DoneWithoutBindings(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	f.submit(t, "DONE")

	assert.Equal(t, int(wizard.StepAwaitBody), f.session(t).Step)
	last := f.platform.sent[len(f.platform.sent)-1]
	assert.Contains(t, last.Msg.Content, "What would you like the message to say?")
	require.NotNil(t, last.Msg.Embed)
	assert.Equal(t, "Embed_title", last.Msg.Embed.Title)
	assert.Equal(t, 0x7289da, last.Msg.Embed.Colour)
}

func TestSubmit_CommitPlainText(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)
	f.submit(t, "😀 <@&11>")
	f.submit(t, "<:party:42> <@&12>")
	f.submit(t, "done")
	sentBefore := len(f.platform.sent)

	f.submit(t, "Pick your roles /// none /// NONE")

	assert.Nil(t, f.session(t), "session must be gone after commit")

	published := f.platform.sent[sentBefore]
	assert.Equal(t, testTarget, published.ChannelID)
	assert.Equal(t, "Pick your roles", published.Msg.Content)
	assert.Nil(t, published.Msg.Embed)

	ids, err := f.registry.MessagesIn(context.Background(), testTarget)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	bindings, err := f.registry.BindingsFor(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"😀": "11", "party:42": "12"}, bindings)

	var onSelector []string
	for _, r := range f.platform.addedReactions {
		if r.MessageID == ids[0] {
			onSelector = append(onSelector, r.Reaction)
		}
	}
	assert.Equal(t, []string{"😀", "party:42"}, onSelector, "reactions attached in submission order")
}

func TestSubmit_CommitWithEmbed(t *testing.T) {
	f := startedAt(t, wizard.StepAwaitBody)

	f.submit(t, "none /// Roles /// React below")

	published := f.platform.sent[len(f.platform.sent)-1]
	assert.Equal(t, testTarget, published.ChannelID)
	assert.Empty(t, published.Msg.Content)
	require.NotNil(t, published.Msg.Embed)
	assert.Equal(t, "Roles", published.Msg.Embed.Title)
	assert.Equal(t, "React below", published.Msg.Embed.Description)
	assert.Equal(t, "Rolesmith", published.Msg.Embed.FooterText)
}

func TestSubmit_CommitEmptyRejected(t *testing.T) {
	f := startedAt(t, wizard.StepAwaitBody)

	f.submit(t, "none /// none /// none")

	session := f.session(t)
	require.NotNil(t, session)
	assert.Equal(t, int(wizard.StepAwaitBody), session.Step)
	assert.Equal(t, "You can't use an empty message as a role-reaction message.", f.platform.lastReply(testChannel))
	assert.Empty(t, f.platform.repliesTo(testTarget))
}

func TestSubmit_CommitPublishFailure(t *testing.T) {
	tests := []struct {
		name        string
		outcome     secondary.Outcome
		keepSession bool
	}{
		{name: "forbidden ends the session", outcome: secondary.OutcomeForbidden, keepSession: false},
		{name: "transient keeps the session", outcome: secondary.OutcomeTransient, keepSession: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := startedAt(t, wizard.StepAwaitBody)
			f.platform.sendResults[testTarget] = failed(tt.outcome)

			f.submit(t, "Pick your roles")

			assert.Equal(t, tt.keepSession, f.session(t) != nil)
			selectors, err := f.registry.ListSelectors(context.Background())
			require.NoError(t, err)
			assert.Empty(t, selectors)
		})
	}
}

func TestSubmit_CommitStoreFailureStillEndsSession(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)
	f.submit(t, "😀 <@&11>")
	f.submit(t, "done")

	selectorRepo := failingSelectorStore{mockSelectorRepository{f.store}}
	f.registry = NewRegistryService(mockGuildRepository{f.store}, mockAdminRoleRepository{f.store}, selectorRepo, mockCleanupQueueRepository{f.store})
	f.creation = NewCreationService(mockSessionRepository{f.store}, f.registry, f.platform, f.notifier, f.settings, testLogger())

	f.submit(t, "Pick your roles")

	assert.Nil(t, f.session(t))
	assert.Contains(t, f.platform.repliesTo(testChannel), "I could not commit the changes to the database.")
	assert.Len(t, f.notifier.containing("Database error"), 1)
}

// failingSelectorStore fails selector creation only.
type failingSelectorStore struct {
	mockSelectorRepository
}

func (f failingSelectorStore) Create(ctx context.Context, selector *secondary.SelectorRecord, bindings []secondary.BindingRecord) error {
	return errors.New("database is locked")
}

func TestAbortCreation(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	result, err := f.creation.AbortCreation(context.Background(), testAdmin, testChannel)
	require.NoError(t, err)
	assert.Equal(t, primary.AbortAborted, result)
	assert.Nil(t, f.session(t))
	assert.Equal(t, "Reaction-role message creation aborted.", f.platform.lastReply(testChannel))

	result, err = f.creation.AbortCreation(context.Background(), testAdmin, testChannel)
	require.NoError(t, err)
	assert.Equal(t, primary.AbortNothingToAbort, result)
}

func TestSessionsAreKeyedByOperatorAndChannel(t *testing.T) {
	f := startedAt(t, wizard.StepCollectingBindings)

	other := operatorMessage("<#" + testTarget + ">")
	other.ChannelID = "101"
	handled, err := f.creation.Submit(context.Background(), other)
	require.NoError(t, err)
	assert.False(t, handled)

	has, err := f.creation.HasSession(context.Background(), testAdmin, testChannel)
	require.NoError(t, err)
	assert.True(t, has)
}

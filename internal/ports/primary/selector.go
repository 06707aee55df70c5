package primary

import "context"

// SelectorService defines the primary port for maintaining published selectors
// outside the creation wizard.
type SelectorService interface {
	// ListMessages returns numbered, human-readable selector lines for a channel.
	ListMessages(ctx context.Context, channelID string) ([]SelectorLine, error)

	// Edit re-renders the Nth selector of a channel.
	Edit(ctx context.Context, req EditRequest) (EditResult, error)

	// AddBinding attaches a reaction to the Nth selector and binds it to a role.
	AddBinding(ctx context.Context, req AddBindingRequest) (ChangeResult, error)

	// RemoveBinding clears a reaction from the Nth selector and unbinds it.
	RemoveBinding(ctx context.Context, req RemoveBindingRequest) (ChangeResult, error)
}

// SelectorLine is one entry of a numbered selector listing.
type SelectorLine struct {
	Number    int
	MessageID string
	Summary   string
}

// EditRequest contains parameters for editing a selector.
type EditRequest struct {
	ChannelID string
	Number    string
	Fields    []string // body, title, description
}

// EditResult is the outcome of Edit.
type EditResult int

const (
	EditDone EditResult = iota
	EditNoSuchSelector
	EditEmpty
	EditForbidden
	EditFailed
)

// AddBindingRequest contains parameters for binding a reaction to a selector.
type AddBindingRequest struct {
	ChannelID string
	Number    string
	Reaction  string
	RoleID    string
}

// RemoveBindingRequest contains parameters for unbinding a reaction.
type RemoveBindingRequest struct {
	ChannelID string
	Number    string
	Reaction  string
}

// ChangeResult is the outcome of AddBinding/RemoveBinding.
type ChangeResult int

const (
	ChangeDone ChangeResult = iota
	ChangeNoSuchSelector
	ChangeInvalidReaction
	ChangeDuplicate
	ChangeAbsent
	ChangeForbidden
	// ChangeFailed means the platform call failed transiently; nothing changed.
	ChangeFailed
)

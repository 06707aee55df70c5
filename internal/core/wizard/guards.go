// Package wizard contains the pure business logic of guided selector creation.
// Guards are pure functions that evaluate preconditions without side effects.
package wizard

import (
	"fmt"
	"strings"

	"github.com/example/rolesmith/internal/core/mention"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// DoneToken closes the binding collection loop.
const DoneToken = "done"

// BeginContext provides context for session creation guards.
type BeginContext struct {
	IsAdmin       bool
	SessionExists bool
	Prefix        string
}

// CanBegin evaluates whether a creation session can start.
// Rules:
// - Operator must hold an admin role for the guild
// - No session may exist for the same (operator, channel)
func CanBegin(ctx BeginContext) GuardResult {
	if !ctx.IsAdmin {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("You do not have an admin role. You might want to use `%sadmin` first.", ctx.Prefix),
		}
	}

	if ctx.SessionExists {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf("You are already creating a reaction-role message in this channel. "+
				"Use another channel or run `%sabort` first.", ctx.Prefix),
		}
	}

	return GuardResult{Allowed: true}
}

// TargetContext provides context for target channel guards.
type TargetContext struct {
	ChannelID    string
	ChannelFound bool
	CanView      bool
	CanSend      bool
}

// ParseTarget extracts the target channel from operator input.
func ParseTarget(text string) (string, GuardResult) {
	id, ok := mention.FirstChannel(text)
	if !ok {
		return "", GuardResult{Allowed: false, Reason: "The channel you mentioned is invalid."}
	}
	return id, GuardResult{Allowed: true}
}

// CanSetTarget evaluates whether a fetched channel can receive the selector.
// Rules:
// - Channel must exist
// - The bot must be able to view and send in it
func CanSetTarget(ctx TargetContext) GuardResult {
	if !ctx.ChannelFound {
		return GuardResult{Allowed: false, Reason: "The channel you mentioned is invalid."}
	}

	if !ctx.CanView || !ctx.CanSend {
		return GuardResult{Allowed: false, Reason: "I cannot read or send messages in that channel."}
	}

	return GuardResult{Allowed: true}
}

// BindingInput is one parsed CollectingBindings submission.
type BindingInput struct {
	Done     bool
	Reaction string
	RoleID   string
}

// ParseBindingInput parses "<reaction> <@&role>" or the done sentinel.
// The reaction is the first token; the role mention must follow it.
func ParseBindingInput(text string) (BindingInput, GuardResult) {
	fields := strings.Fields(text)
	if len(fields) > 0 && strings.EqualFold(fields[0], DoneToken) {
		return BindingInput{Done: true}, GuardResult{Allowed: true}
	}

	malformed := GuardResult{
		Allowed: false,
		Reason:  "Mention a role after the reaction. Example:\n:smile: `@Role`",
	}
	if len(fields) < 2 {
		return BindingInput{}, malformed
	}

	roleID, ok := mention.FirstRole(strings.Join(fields[1:], " "))
	if !ok {
		return BindingInput{}, malformed
	}

	return BindingInput{
		Reaction: mention.NormalizeReaction(fields[0]),
		RoleID:   roleID,
	}, GuardResult{Allowed: true}
}

// AddBindingContext provides context for pending binding guards.
type AddBindingContext struct {
	Reaction string
	Pending  []string // reactions already collected
}

// CanAddBinding evaluates whether a reaction can join the pending bindings.
// Rules:
// - A reaction may be bound only once per session
func CanAddBinding(ctx AddBindingContext) GuardResult {
	for _, r := range ctx.Pending {
		if r == ctx.Reaction {
			return GuardResult{
				Allowed: false,
				Reason:  "You have already used that reaction for another role.",
			}
		}
	}
	return GuardResult{Allowed: true}
}

package primary

import (
	"context"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// RoleService defines the primary port for granting and revoking roles in
// response to reactions on selectors.
type RoleService interface {
	// ReactionAdded grants the bound role or removes an unbound reaction.
	ReactionAdded(ctx context.Context, ev secondary.ReactionEvent) error

	// ReactionRemoved revokes the bound role.
	ReactionRemoved(ctx context.Context, ev secondary.ReactionEvent) error
}
